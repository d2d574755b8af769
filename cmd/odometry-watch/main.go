// odometry-watch - print live estimates from an odometry-server
//
//	odometry-watch -url ws://localhost:8090/ws/estimates
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-odometry/internal/log"
	"github.com/teslashibe/go-odometry/pkg/hub"
	"github.com/teslashibe/go-odometry/pkg/web"
)

const (
	handshakeTimeout = 10 * time.Second
	readTimeout      = 120 * time.Second
)

func main() {
	url := flag.String("url", "ws://localhost:8090/ws/estimates", "estimate feed URL")
	raw := flag.Bool("raw", false, "print raw event JSON")
	flag.Parse()

	logger := log.Init("")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := watch(ctx, *url, *raw); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("watch failed", "url", *url, "error", err)
		os.Exit(1)
	}
}

func watch(ctx context.Context, url string, raw bool) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer ws.Close()
	log.L().Info("connected", "url", url)

	// The server pings periodically; each ping extends the read deadline.
	ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPingHandler(func(appData string) error {
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	go func() {
		<-ctx.Done()
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.Close()
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		ws.SetReadDeadline(time.Now().Add(readTimeout))

		if raw {
			fmt.Println(string(msg))
			continue
		}
		if err := printEvent(msg); err != nil {
			log.L().Warn("bad event", "error", err)
		}
	}
}

func printEvent(msg []byte) error {
	var ev hub.Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		return err
	}
	if ev.Type != web.EventEstimate {
		return nil
	}

	var rec web.Record
	if err := json.Unmarshal(ev.Data, &rec); err != nil {
		return err
	}
	mark := " "
	if !rec.Accepted {
		mark = "?"
	}
	fmt.Printf("%s %s dx=%4d dy=%4d conf=%.2f trials=%2d pos=(%d, %d) %6.1fms\n",
		ev.Time.Local().Format(time.TimeOnly), mark,
		rec.Vector.DX, rec.Vector.DY, rec.Confidence, rec.Trials,
		rec.Position[0], rec.Position[1], rec.ElapsedMS)
	return nil
}
