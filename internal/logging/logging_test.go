package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := globalLogger
	globalLogger = zap.New(core)
	t.Cleanup(func() { globalLogger = prev })
	return logs
}

func TestMiddlewareRequestID(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	var scoped *zap.Logger
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = FromContext(r.Context())
		scoped.Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/folders", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID header = %q", got)
	}
	inside := logs.FilterMessage("inside handler").All()
	if len(inside) != 1 || inside[0].ContextMap()["request_id"] != "abc-123" {
		t.Errorf("handler log not tagged with request id: %+v", inside)
	}

	done := logs.FilterMessage("request completed").All()
	if len(done) != 1 {
		t.Fatalf("got %d completion logs, want 1", len(done))
	}
	if done[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn for a 4xx", done[0].Level)
	}
	fields := done[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["request_id"] != "abc-123" {
		t.Errorf("request_id field = %v", fields["request_id"])
	}
	if fields["route"] != "unmatched" {
		t.Errorf("route field = %v, want unmatched without a mux", fields["route"])
	}
}

func TestMiddlewareGeneratesRequestID(t *testing.T) {
	observe(t, zapcore.InfoLevel)

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no request id generated")
	}
}

func TestMiddlewareLogsRouteAndNode(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /folders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})
	mux.HandleFunc("GET /folders", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	h := Middleware(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/folders/n-42", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/folders?q=report", nil))

	done := logs.FilterMessage("request completed").All()
	if len(done) != 2 {
		t.Fatalf("got %d completion logs, want 2", len(done))
	}

	byID := done[0].ContextMap()
	if byID["route"] != "GET /folders/{id}" {
		t.Errorf("route = %v", byID["route"])
	}
	if byID["node_id"] != "n-42" {
		t.Errorf("node_id = %v", byID["node_id"])
	}
	if byID["bytes"] != int64(2) {
		t.Errorf("bytes = %v", byID["bytes"])
	}
	if done[0].Level != zapcore.InfoLevel {
		t.Errorf("level = %v, want info", done[0].Level)
	}

	search := done[1].ContextMap()
	if search["route"] != "GET /folders" {
		t.Errorf("route = %v", search["route"])
	}
	if search["query"] != "report" {
		t.Errorf("query = %v", search["query"])
	}
	if _, ok := search["node_id"]; ok {
		t.Error("node_id set on a route without {id}")
	}
	if done[1].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v, want error for a 5xx", done[1].Level)
	}
}

func TestNodeField(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	parent := "root-1"
	Info("node created", Node(&models.Node{ID: "n-1", Name: "cv.pdf", Type: models.TypeFile, ParentID: &parent}))

	entry := logs.All()[0].ContextMap()
	node, ok := entry["node"].(map[string]interface{})
	if !ok {
		t.Fatalf("node field = %#v", entry["node"])
	}
	if node["id"] != "n-1" || node["name"] != "cv.pdf" || node["parent_id"] != "root-1" {
		t.Errorf("node field = %v", node)
	}
}
