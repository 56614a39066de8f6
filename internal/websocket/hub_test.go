// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/models"
)

type wireMessage struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Serve(ctx)
	}()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		if !hub.RegisterClient(client) {
			_ = conn.Close()
			return
		}
		client.Start()
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	var msg wireMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), want)
}

func TestHub_GreetsWithSnapshot(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	hub.SetSnapshotSource(func() activity.Snapshot {
		return activity.Snapshot{State: activity.StateDetecting, FramesProcessed: 7}
	})

	conn := dial(t, srv)
	msg := readMessage(t, conn)
	if msg.Type != models.EventSession {
		t.Fatalf("first message type = %q, want %q", msg.Type, models.EventSession)
	}
	if msg.Data["state"] != "detecting" {
		t.Errorf("state = %v, want detecting", msg.Data["state"])
	}
	if msg.Data["frames_processed"] != float64(7) {
		t.Errorf("frames_processed = %v, want 7", msg.Data["frames_processed"])
	}
}

func TestHub_BroadcastsDetections(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	first := dial(t, srv)
	second := dial(t, srv)
	waitForClients(t, hub, 2)

	det := activity.Detection{ID: "d-1", Type: "Fighting", Activity: activity.ActivityFighting, Confidence: 0.9}
	if err := hub.HandleDetection(context.Background(), det); err != nil {
		t.Fatalf("HandleDetection: %v", err)
	}

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		if msg.Type != models.EventDetection {
			t.Fatalf("type = %q, want %q", msg.Type, models.EventDetection)
		}
		if msg.Data["id"] != "d-1" {
			t.Errorf("id = %v, want d-1", msg.Data["id"])
		}
	}
}

func TestHub_SinkEventTypes(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)
	ctx := context.Background()

	_ = hub.HandleAlert(ctx, activity.AlertState{Active: true})
	_ = hub.HandleAnalysis(ctx, activity.ActivityAnalysis{})
	_ = hub.HandleSession(ctx, activity.Snapshot{State: activity.StateIdle})

	for _, want := range []string{models.EventAlertState, models.EventAnalysis, models.EventSession} {
		if got := readMessage(t, conn).Type; got != want {
			t.Errorf("type = %q, want %q", got, want)
		}
	}
}

func TestHub_PingPong(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(map[string]string{"type": MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := readMessage(t, conn).Type; got != MessageTypePong {
		t.Errorf("type = %q, want %q", got, MessageTypePong)
	}
}

func TestHub_UnregisterOnClose(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_AnalysisSkippedWithoutClients(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	if err := hub.HandleAnalysis(context.Background(), activity.ActivityAnalysis{}); err != nil {
		t.Fatalf("HandleAnalysis: %v", err)
	}
	if n := len(hub.broadcast); n != 0 {
		t.Errorf("queued %d messages, want 0", n)
	}
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	for i := 0; i < cap(hub.broadcast); i++ {
		if !hub.Broadcast(models.EventDetection, i) {
			t.Fatalf("Broadcast %d rejected before buffer was full", i)
		}
	}
	if hub.Broadcast(models.EventDetection, "overflow") {
		t.Error("Broadcast on full buffer = true, want false")
	}
}

func TestHub_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.Serve(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if hub.String() != "websocket-hub" || hub.Name() != "websocket" {
		t.Errorf("names = %q/%q", hub.String(), hub.Name())
	}
}
