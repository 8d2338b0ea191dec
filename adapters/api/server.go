// Package api exposes the engine over HTTP: submit a run, fetch stored
// run summaries, and render a run report. Dataset JSON decoding happens
// at this boundary only; the engine consumes already-built domain types.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"goxtab/domain/banner"
	"goxtab/domain/core"
	"goxtab/domain/run"
	"goxtab/domain/survey"
	"goxtab/internal"
	"goxtab/internal/engine"
	apperrors "goxtab/internal/errors"
	"goxtab/models"
	"goxtab/ports"
)

// Server is the HTTP surface over the engine and run history
type Server struct {
	router *chi.Mux
	runs   ports.RunRepository // nil when run history is disabled
	log    *internal.Logger
	cfg    run.Config
}

// NewServer creates the API server. runs may be nil.
func NewServer(runs ports.RunRepository, defaults run.Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		runs:   runs,
		log:    internal.DefaultLogger,
		cfg:    defaults,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Post("/runs", s.handleCreateRun)
	s.router.Get("/runs", s.handleListRuns)
	s.router.Get("/runs/{id}", s.handleGetRun)
	s.router.Get("/runs/{id}/report", s.handleRunReport)
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RunRequest is the JSON payload for POST /runs
type RunRequest struct {
	Questions []survey.Question `json:"questions"`
	Records   []survey.Record   `json:"records"`
	Weights   survey.Weights    `json:"weights,omitempty"`
	Banner    banner.Spec       `json:"banner"`
	Config    *run.Config       `json:"config,omitempty"`
}

// RefusalResponse is the structured refusal body for hard-gate failures
type RefusalResponse struct {
	Code    string `json:"code"`
	Problem string `json:"problem"`
	Remedy  string `json:"remedy,omitempty"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("request body is not valid run JSON"))
		return
	}

	cfg := s.cfg
	if req.Config != nil {
		cfg = *req.Config
	}

	result, err := engine.Run(r.Context(), req.Questions, survey.Dataset{Records: req.Records}, req.Weights, req.Banner, cfg)
	if err != nil {
		// Hard gates refuse with a structured body; nothing partial.
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	if s.runs != nil {
		if err := s.runs.SaveRun(r.Context(), models.NewRunRecord(result)); err != nil {
			s.log.Warn("run %s not persisted: %v", result.RunID, err)
		}
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusNotImplemented, apperrors.New(apperrors.CodeDatabaseError, "run history is not configured"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(RenderHTMLReport(record))
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*models.RunRecord, bool) {
	if s.runs == nil {
		s.writeError(w, http.StatusNotImplemented, apperrors.New(apperrors.CodeDatabaseError, "run history is not configured"))
		return nil, false
	}
	id := core.RunID(chi.URLParam(r, "id"))
	record, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err)
		return nil, false
	}
	return record, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, RefusalResponse{
		Code:    apperrors.GetCode(err),
		Problem: err.Error(),
		Remedy:  apperrors.GetRemedy(err),
	})
}
