// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/models"
	"github.com/tomtom215/watchpost/internal/store"
	ws "github.com/tomtom215/watchpost/internal/websocket"
)

const fireFrame = `{
	"keypoints": [
		{"name": "nose", "x": 100, "y": 50, "score": 0.9},
		{"name": "left_wrist", "x": 80, "y": 120, "score": 0.8}
	],
	"objects": [{"class": "oven", "score": 0.99, "bbox": {"x": 10, "y": 10, "width": 50, "height": 50}}]
}`

// envelope mirrors models.APIResponse with raw data for per-test decoding.
type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

type testServer struct {
	engine  *activity.Engine
	archive *store.DetectionStore
	handler *Handler
	http    http.Handler
}

func newTestServer(t *testing.T, withArchive bool) *testServer {
	t.Helper()

	engine := activity.New()
	h := NewHandler(engine, []string{"http://dashboard.local"})

	ts := &testServer{engine: engine, handler: h}
	if withArchive {
		archive, err := store.Open(store.Config{InMemory: true})
		if err != nil {
			t.Fatalf("store.Open: %v", err)
		}
		t.Cleanup(func() { _ = archive.Close() })
		engine.AddSink(archive)
		h.SetArchive(archive)
		ts.archive = archive
	}

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	ts.http = NewRouter(h, NewChiMiddleware(cfg)).SetupChi()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.http.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (body %q)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, true)
	ts.handler.SetEventBus("gochannel")
	ts.handler.SetNotifiers([]string{"webhook"})
	ts.handler.SetVersion("1.2.3")

	rec, env := ts.do(t, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var health models.HealthResponse
	decodeData(t, env, &health)
	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if health.Version != "1.2.3" || health.EventBus != "gochannel" || !health.Store {
		t.Errorf("health = %+v", health)
	}
	if health.Session != activity.StateIdle {
		t.Errorf("Session = %q, want idle", health.Session)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestHealth_DegradedWhenArchiveClosed(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, true)
	_ = ts.archive.Close()

	_, env := ts.do(t, http.MethodGet, "/api/v1/health", "")
	var health models.HealthResponse
	decodeData(t, env, &health)
	if health.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", health.Status)
	}
}

func TestHealthLive(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)
	rec, env := ts.do(t, http.MethodGet, "/api/v1/health/live", "")
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Fatalf("status = %d %q", rec.Code, env.Status)
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)

	tests := []struct {
		path      string
		wantCode  int
		wantState activity.State
		wantErr   string
	}{
		{"/api/v1/session/stop", http.StatusConflict, "", models.ErrCodeSession},
		{"/api/v1/session/start", http.StatusOK, activity.StateDetecting, ""},
		{"/api/v1/session/start", http.StatusConflict, "", models.ErrCodeSession},
		{"/api/v1/session/reset", http.StatusOK, activity.StateDetecting, ""},
		{"/api/v1/session/stop", http.StatusOK, activity.StateIdle, ""},
		{"/api/v1/session/reset", http.StatusOK, activity.StateIdle, ""},
	}

	for i, tt := range tests {
		rec, env := ts.do(t, http.MethodPost, tt.path, "")
		if rec.Code != tt.wantCode {
			t.Fatalf("step %d %s: status = %d, want %d", i, tt.path, rec.Code, tt.wantCode)
		}
		if tt.wantErr != "" {
			if env.Error == nil || env.Error.Code != tt.wantErr {
				t.Fatalf("step %d: error = %+v, want %s", i, env.Error, tt.wantErr)
			}
			continue
		}
		var resp models.SessionResponse
		decodeData(t, env, &resp)
		if resp.State != tt.wantState {
			t.Errorf("step %d %s: state = %q, want %q", i, tt.path, resp.State, tt.wantState)
		}
	}
}

func TestSessionStart_WrongMethod(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)
	rec, _ := ts.do(t, http.MethodGet, "/api/v1/session/start", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestSubmitFrame(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, true)
	if err := ts.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	rec, env := ts.do(t, http.MethodPost, "/api/v1/frames", fireFrame)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result activity.FrameResult
	decodeData(t, env, &result)
	if result.Analysis.Type != activity.ActivityFire {
		t.Errorf("Type = %q, want fire", result.Analysis.Type)
	}
	if result.Detection == nil {
		t.Fatal("Detection = nil, want first fire frame logged")
	}
	if !result.Alert.Active {
		t.Error("Alert.Active = false, want true")
	}

	// Status, detections, history and stats all reflect the frame.
	_, env = ts.do(t, http.MethodGet, "/api/v1/status", "")
	var status models.StatusResponse
	decodeData(t, env, &status)
	if status.FramesProcessed != 1 || status.Stats.Fire != 1 || status.TotalDetections != 1 {
		t.Errorf("status = %+v", status)
	}
	if status.AlertColor == "" {
		t.Error("AlertColor empty")
	}

	_, env = ts.do(t, http.MethodGet, "/api/v1/detections", "")
	var dets models.DetectionsResponse
	decodeData(t, env, &dets)
	if dets.Count != 1 || dets.Source != "session" {
		t.Errorf("detections = %+v", dets)
	}

	_, env = ts.do(t, http.MethodGet, "/api/v1/detections/history?limit=5&activity=fire", "")
	var hist models.DetectionsResponse
	decodeData(t, env, &hist)
	if hist.Count != 1 || hist.Source != "archive" {
		t.Errorf("history = %+v", hist)
	}
	if hist.Detections[0].ID != result.Detection.ID {
		t.Errorf("history ID = %q, want %q", hist.Detections[0].ID, result.Detection.ID)
	}

	_, env = ts.do(t, http.MethodGet, "/api/v1/stats", "")
	var stats models.StatsResponse
	decodeData(t, env, &stats)
	if stats.Total != 1 || stats.Archived == nil || stats.Archived.Fire != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSubmitFrame_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		start    bool
		body     string
		wantCode int
		wantErr  string
	}{
		{"idle engine", false, fireFrame, http.StatusConflict, models.ErrCodeSession},
		{"malformed json", true, `{"keypoints": [`, http.StatusBadRequest, models.ErrCodeValidation},
		{"unknown joint", true, `{"keypoints": [{"name": "tail", "x": 1, "y": 1, "score": 0.5}]}`, http.StatusBadRequest, models.ErrCodeValidation},
		{"score out of range", true, `{"keypoints": [{"name": "nose", "x": 1, "y": 1, "score": 1.5}]}`, http.StatusBadRequest, models.ErrCodeValidation},
		{"missing object class", true, `{"objects": [{"score": 0.5}]}`, http.StatusBadRequest, models.ErrCodeValidation},
		{"too large", true, `{"objects": [{"class": "` + strings.Repeat("x", maxBodyBytes) + `"}]}`, http.StatusRequestEntityTooLarge, models.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestServer(t, false)
			if tt.start {
				if err := ts.engine.Start(context.Background()); err != nil {
					t.Fatalf("Start: %v", err)
				}
			}
			rec, env := ts.do(t, http.MethodPost, "/api/v1/frames", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantErr)
			}
		})
	}
}

func TestSubmitFrame_MaxObjects(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)
	ts.handler.SetMaxObjects(1)
	if err := ts.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	body := `{"objects": [{"class": "cup", "score": 0.5}, {"class": "oven", "score": 0.9}]}`
	rec, env := ts.do(t, http.MethodPost, "/api/v1/frames", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeValidation {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestSubmitFrame_EmptyFrameSkipped(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)
	if err := ts.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	rec, env := ts.do(t, http.MethodPost, "/api/v1/frames", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result activity.FrameResult
	decodeData(t, env, &result)
	if !result.Skipped {
		t.Error("Skipped = false, want true for a frame without a pose")
	}
}

func TestDetectionHistory_Validation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, true)
	tests := []struct {
		query    string
		wantCode int
	}{
		{"", http.StatusOK},
		{"?limit=1000", http.StatusOK},
		{"?limit=0", http.StatusBadRequest},
		{"?limit=1001", http.StatusBadRequest},
		{"?activity=normal", http.StatusBadRequest},
		{"?activity=theft", http.StatusOK},
		{"?since=yesterday", http.StatusBadRequest},
		{"?since=2026-03-01T12:00:00Z", http.StatusOK},
	}
	for _, tt := range tests {
		rec, _ := ts.do(t, http.MethodGet, "/api/v1/detections/history"+tt.query, "")
		if rec.Code != tt.wantCode {
			t.Errorf("%q: status = %d, want %d", tt.query, rec.Code, tt.wantCode)
		}
	}
}

func TestDetectionHistory_NoArchive(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)
	rec, env := ts.do(t, http.MethodGet, "/api/v1/detections/history", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeStoreUnavailable {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)
	rec, env := ts.do(t, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != models.ErrCodeNotFound {
		t.Errorf("status = %d, error = %+v", rec.Code, env.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)
	rec := httptest.NewRecorder()
	ts.http.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_active_requests") {
		t.Error("metrics output missing api_active_requests")
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	h := NewHandler(activity.New(), nil)
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	router := NewRouter(h, NewChiMiddleware(cfg)).SetupChi()

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	var env envelope
	if err := json.Unmarshal(last.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error == nil || env.Error.Code != models.ErrCodeRateLimited {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"missing origin", []string{"*"}, "", false},
		{"wildcard", []string{"*"}, "http://anything", true},
		{"exact match", []string{"http://a", "http://b"}, "http://b", true},
		{"not allowed", []string{"http://a"}, "http://evil", false},
		{"empty list", nil, "http://a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(activity.New(), tt.allowed)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSocket_ReceivesDetections(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)
	hub := ws.NewHub()
	hub.SetSnapshotSource(ts.engine.Snapshot)
	ts.handler.SetHub(hub)
	ts.engine.AddSink(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Serve(ctx) }()

	srv := httptest.NewServer(ts.http)
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "http://dashboard.local")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() models.Event {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev models.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		return ev
	}

	if ev := read(); ev.Type != models.EventSession {
		t.Fatalf("greeting type = %q, want session", ev.Type)
	}

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/session/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d", rec.Code)
	}
	rec, _ = ts.do(t, http.MethodPost, "/api/v1/frames", fireFrame)
	if rec.Code != http.StatusOK {
		t.Fatalf("frame status = %d", rec.Code)
	}

	seen := map[string]bool{}
	for len(seen) < 4 {
		seen[read().Type] = true
	}
	for _, want := range []string{models.EventSession, models.EventAnalysis, models.EventDetection, models.EventAlertState} {
		if !seen[want] {
			t.Errorf("missing %q event", want)
		}
	}
}

func TestWebSocket_NoHub(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)
	rec, env := ts.do(t, http.MethodGet, "/api/v1/ws", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env.Error == nil {
		t.Error("missing error envelope")
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	got := sanitizeLogValue("a\nb\tc")
	if got != `a\x0ab\x09c` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}

// Compile-time checks that the concrete types satisfy the handler interfaces.
var (
	_ Engine           = (*activity.Engine)(nil)
	_ DetectionArchive = (*store.DetectionStore)(nil)
)
