// Package api provides the HTTP server and handlers.
package api

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/samsirama/windows-explorer-clone/internal/events"
	"github.com/samsirama/windows-explorer-clone/internal/folder"
	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/internal/metrics"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
)

// maxBodySize caps request bodies; node payloads are tiny.
const maxBodySize = 1 << 20

// Pool gzip writers to reduce allocations on tree responses.
var gzipPool = sync.Pool{
	New: func() any { return gzip.NewWriter(nil) },
}

// Server is the HTTP server.
type Server struct {
	folders     *folder.Service
	broadcaster *events.Broadcaster
	corsOrigins []string
}

// NewServer creates a new server. broadcaster may be nil, in which case
// the event stream answers 503.
func NewServer(folders *folder.Service, broadcaster *events.Broadcaster, corsOrigins []string) *Server {
	return &Server{
		folders:     folders,
		broadcaster: broadcaster,
		corsOrigins: corsOrigins,
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /folders", s.handleList)
	mux.HandleFunc("GET /folders/events", s.handleEvents)
	mux.HandleFunc("GET /folders/{id}", s.handleGet)
	mux.HandleFunc("POST /folders", s.handleCreate)
	mux.HandleFunc("PATCH /folders/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /folders/{id}", s.handleDelete)

	// metrics reads r.Pattern after the mux has matched, so it must see
	// the same *http.Request the mux does.
	return logging.Middleware(metrics.Middleware(s.cors(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleList serves the forest, or a flat search result when q is set.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		nodes, err := s.folders.Search(r.Context(), q)
		if err != nil {
			s.sendServiceError(w, r, err)
			return
		}
		s.sendJSON(w, http.StatusOK, nodes)
		return
	}

	roots, err := s.folders.Tree(r.Context())
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}

	if acceptsGzip(r) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Vary", "Accept-Encoding")
		gw := gzipPool.Get().(*gzip.Writer)
		gw.Reset(w)
		json.NewEncoder(gw).Encode(roots)
		gw.Close()
		gzipPool.Put(gw)
		return
	}

	s.sendJSON(w, http.StatusOK, roots)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	node, err := s.folders.Contents(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, node)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateNodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	node, err := s.folders.Create(r.Context(), req)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, node)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req protocol.UpdateNodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	node, err := s.folders.Update(r.Context(), r.PathValue("id"), req.Patch())
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, node)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	recursive := false
	if v := r.URL.Query().Get("recursive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.sendError(w, http.StatusBadRequest, "invalid recursive flag: "+v)
			return
		}
		recursive = b
	}

	deleted, err := s.folders.Delete(r.Context(), id, recursive)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.DeleteResponse{ID: id, Deleted: deleted})
}

// handleEvents streams node changes as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.broadcaster == nil {
		s.sendError(w, http.StatusServiceUnavailable, "event stream disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := events.MarshalEvent(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

// cors reflects allowed origins and answers preflight requests.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			h.Set("Access-Control-Max-Age", "86400")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.corsOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// sendServiceError maps folder service errors onto HTTP statuses.
// Store failures are logged and surface as a generic 500.
func (s *Server) sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, folder.ErrInvalid):
		s.sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, folder.ErrNotFound):
		s.sendError(w, http.StatusNotFound, err.Error())
	default:
		logging.FromContext(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(protocol.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}
