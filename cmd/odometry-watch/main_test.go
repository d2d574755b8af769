package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintEvent(t *testing.T) {
	assert.NoError(t, printEvent([]byte(`{"type":"config","data":{}}`)))
	assert.NoError(t, printEvent([]byte(`{"type":"estimate","time":"2026-01-02T03:04:05Z","data":{"vector":{"dx":3,"dy":-2},"confidence":0.75,"trials":4}}`)))
	assert.Error(t, printEvent([]byte(`{`)))
	assert.Error(t, printEvent([]byte(`{"type":"estimate","data":"oops"}`)))
}

func TestWatch_StopsOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"estimate","data":{"vector":{"dx":1,"dy":1}}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := watch(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), false)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatch_ConnectFailure(t *testing.T) {
	err := watch(context.Background(), "ws://127.0.0.1:1/ws/estimates", true)
	assert.ErrorContains(t, err, "connect")
}
