// odometry-server - HTTP API and live websocket feed for the estimator
//
//	POST /api/estimate      multipart frame1, frame2
//	GET  /api/config        current parameters
//	PUT  /api/config        partial update
//	GET  /api/presets       available presets
//	POST /api/presets/:name apply a preset
//	GET  /api/history       recent estimates
//	GET  /api/trajectory    accumulated path
//	GET  /ws/estimates      live estimate events
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-odometry/internal/config"
	"github.com/teslashibe/go-odometry/internal/log"
	_ "github.com/teslashibe/go-odometry/pkg/odometry/cvmatch"
	"github.com/teslashibe/go-odometry/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "listen port (overrides config and ODOMETRY_PORT)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.L().Error("configuration error", "error", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger := log.Init(cfg.LogLevel)

	srv, err := web.NewServer(web.Config{
		Port:        cfg.Port,
		HistorySize: cfg.HistorySize,
		Preset:      cfg.Preset,
		Odometry:    cfg.Odometry,
	}, logger)
	if err != nil {
		logger.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting odometry server",
		"port", cfg.Port,
		"preset", cfg.Preset,
		"matcher", cfg.Odometry.Matcher,
	)
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	<-srv.Hub().Done()
	logger.Info("stopped")
}
