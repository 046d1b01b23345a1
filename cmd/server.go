package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/draftdesk/docfill/internal/engine"
	"github.com/draftdesk/docfill/internal/model"
)

type ingestRequest struct {
	Title        string `json:"title"`
	DocumentText string `json:"document_text"`
}

type ingestResponse struct {
	ReferenceID int64             `json:"reference_id"`
	Title       string            `json:"title,omitempty"`
	Progress    model.Progress    `json:"progress"`
	Fields      []engine.FieldRow `json:"fields"`
}

type submitRequest struct {
	UserInput          string `json:"user_input"`
	ConsentAutoSuggest bool   `json:"consent_auto_suggest"`
}

// refLocks serializes lifecycle operations per reference. The engine holds no
// locks of its own, so concurrent requests against the same aggregate must
// queue here.
type refLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newRefLocks() *refLocks {
	return &refLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock acquires the per-reference mutex and returns its release func.
func (l *refLocks) lock(id int64) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

type server struct {
	env   *appEnv
	locks *refLocks
}

// newRouter wires the HTTP API around an initialized environment.
func newRouter(env *appEnv, corsOrigins []string) http.Handler {
	s := &server{env: env, locks: newRefLocks()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Route("/api/references", func(r chi.Router) {
		r.Post("/", s.handleIngest)
		r.Get("/", s.handleList)
		r.Route("/{ref}", func(r chi.Router) {
			r.Get("/", s.handlePreview)
			r.Get("/status", s.handleStatus)
			r.Get("/questions", s.handleQuestions)
			r.Post("/fields/{field}/submit", s.handleSubmit)
			r.Post("/fields/{field}/undo", s.handleUndo)
			r.Post("/assemble", s.handleAssemble)
			r.Get("/actions", s.handleActions)
			r.Get("/artifacts/{name}", s.handleArtifact)
		})
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(model.ErrInvalidRequest, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.DocumentText) == "" {
		writeError(w, eris.Wrap(model.ErrInvalidRequest, "document_text is required"))
		return
	}

	ref, err := s.env.Engine.Ingest(r.Context(), req.Title, req.DocumentText)
	if err != nil {
		writeError(w, err)
		return
	}

	rows := make([]engine.FieldRow, 0, len(ref.Fields))
	for i := range ref.Fields {
		f := &ref.Fields[i]
		rows = append(rows, engine.FieldRow{
			ID:     f.ID,
			Name:   f.Name,
			Type:   f.ExpectedType,
			Status: f.Status,
		})
	}
	writeJSON(w, http.StatusCreated, ingestResponse{
		ReferenceID: ref.ID,
		Title:       ref.Title,
		Progress:    ref.Progress(),
		Fields:      rows,
	})
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	refs, err := s.env.Engine.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	refID, err := refParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := s.env.Engine.Preview(r.Context(), refID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	refID, err := refParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := s.env.Engine.Status(r.Context(), refID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	refID, err := refParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	unlock := s.locks.lock(refID)
	defer unlock()

	items, err := s.env.Engine.Questions(r.Context(), refID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	refID, err := refParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(model.ErrInvalidRequest, "invalid request body"))
		return
	}
	unlock := s.locks.lock(refID)
	defer unlock()

	res, err := s.env.Engine.Submit(r.Context(), refID, chi.URLParam(r, "field"), req.UserInput, req.ConsentAutoSuggest)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleUndo(w http.ResponseWriter, r *http.Request) {
	refID, err := refParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	unlock := s.locks.lock(refID)
	defer unlock()

	res, err := s.env.Engine.Undo(r.Context(), refID, chi.URLParam(r, "field"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	refID, err := refParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	unlock := s.locks.lock(refID)
	defer unlock()

	res, err := s.env.Engine.Assemble(r.Context(), refID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleActions(w http.ResponseWriter, r *http.Request) {
	refID, err := refParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, eris.Wrapf(model.ErrInvalidRequest, "invalid limit %q", v))
			return
		}
		limit = n
	}
	entries, err := s.env.Engine.Actions(r.Context(), refID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	refID, err := refParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := s.env.Store.ReadArtifact(r.Context(), refID, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// refParam parses the {ref} path segment.
func refParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "ref")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, eris.Wrapf(model.ErrInvalidRequest, "invalid reference id %q", raw)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

// writeError maps domain errors to HTTP statuses. The pending-fields check
// runs first since that error unwraps to ErrInvalidRequest.
func writeError(w http.ResponseWriter, err error) {
	var pending *engine.PendingFieldsError
	switch {
	case errors.As(err, &pending):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   pending.Error(),
			"pending": pending.PendingOrdered,
		})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
