// Package server implements the tracetower HTTP API for serve mode.
//
// The API exposes the processing pipeline over POST /api/process and a
// processed-trace history under /api/traces, backed by either the
// in-memory store or MongoDB. Responses are JSON; errors carry the
// structured code from pkg/errors.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/store"
)

// Server wires the pipeline runner and trace store into an HTTP API.
type Server struct {
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger
}

// New creates a server. A nil store disables the /api/traces routes'
// persistence and is only useful in tests that never touch them.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Runner: runner, Store: st, Logger: logger}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/process", s.handleProcess)

	r.Route("/api/traces", func(r chi.Router) {
		r.Get("/", s.handleListTraces)
		r.Post("/", s.handleSaveTrace)
		r.Get("/{id}", s.handleGetTrace)
		r.Delete("/{id}", s.handleDeleteTrace)
	})

	return r
}

// requestLogger logs one line per request with a generated request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		next.ServeHTTP(w, r)

		s.Logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"id", reqID,
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// processRequest is the POST /api/process payload: pipeline options
// with the trace document inline.
type processRequest struct {
	pipeline.Options
}

// processResponse returns the artifacts and run statistics. Artifact
// bytes are base64 in JSON per encoding/json []byte rules.
type processResponse struct {
	TraceHash  string            `json:"trace_hash"`
	LayoutHash string            `json:"layout_hash"`
	TotalRows  int               `json:"total_rows"`
	LaneCount  int               `json:"lane_count"`
	TaskCount  int               `json:"task_count"`
	Artifacts  map[string][]byte `json:"artifacts"`
	LayoutHit  bool              `json:"layout_cache_hit"`
	RenderHit  bool              `json:"render_cache_hit"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "malformed request body: %v", err))
		return
	}

	// Paths on the server host are not accepted; the document travels
	// in the request.
	req.TracePath = ""
	if len(req.TraceData) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "trace_data is required"))
		return
	}

	result, err := s.Runner.Execute(r.Context(), req.Options)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, processResponse{
		TraceHash:  result.TraceHash,
		LayoutHash: result.LayoutHash,
		TotalRows:  result.Stats.TotalRows,
		LaneCount:  result.Stats.LaneCount,
		TaskCount:  result.Stats.TaskCount,
		Artifacts:  result.Artifacts,
		LayoutHit:  result.CacheInfo.LayoutHit,
		RenderHit:  result.CacheInfo.RenderHit,
	})
}

// saveTraceRequest is the POST /api/traces payload.
type saveTraceRequest struct {
	Name      string `json:"name"`
	TraceData []byte `json:"trace_data"`
}

func (s *Server) handleSaveTrace(w http.ResponseWriter, r *http.Request) {
	var req saveTraceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "malformed request body: %v", err))
		return
	}
	if len(req.TraceData) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "trace_data is required"))
		return
	}

	result, err := s.Runner.Execute(r.Context(), pipeline.Options{
		TraceData: req.TraceData,
		Name:      req.Name,
		Formats:   []string{pipeline.FormatJSON},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	st := &store.StoredTrace{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
		Document:  result.Document,
		Layout:    result.Layout,
	}
	if err := s.Store.Save(r.Context(), st); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         st.ID,
		"total_rows": result.Stats.TotalRows,
	})
}

func (s *Server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.Store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	st, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteTrace(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Response Helpers
// =============================================================================

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

// statusFor maps structured error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidTrace, errors.ErrCodeInvalidRange,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidLane,
		errors.ErrCodeIngestion:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeTraceNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
