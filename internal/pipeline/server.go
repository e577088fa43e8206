package pipeline

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stanley1208/ADK/internal/descriptor"
	"github.com/stanley1208/ADK/internal/run"
	"github.com/stanley1208/ADK/pkg/cerr"
)

// Server exposes pipeline execution and run history over HTTP. Request
// bodies are checked against the descriptor's input schema before they
// reach the orchestrator.
type Server struct {
	orchestrator *Orchestrator
	descriptor   *descriptor.Descriptor
	runRepo      run.Repository
}

func NewServer(o *Orchestrator, d *descriptor.Descriptor, runRepo run.Repository) *Server {
	return &Server{
		orchestrator: o,
		descriptor:   d,
		runRepo:      runRepo,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/pipeline/run", s.handleRun)
	r.Get("/pipeline/runs", s.handleListRuns)
	r.Get("/pipeline/runs/{id}", s.handleGetRun)
}

func (s *Server) handleRun(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "failed to read request body", err)
		return
	}
	if len(body) == 0 {
		body = []byte(`{}`)
	}
	if err := s.descriptor.ValidateInput(body); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	cerr.SetJSONResponse(ctx, s.orchestrator.Execute(ctx, req))
}

type listRunsResponse struct {
	Runs  []*run.Run `json:"runs"`
	Total int        `json:"total"`
}

func (s *Server) handleListRuns(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	runs, total, err := s.runRepo.List(ctx, q.Get("session_id"), limit, offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if runs == nil {
		runs = []*run.Run{}
	}
	cerr.SetJSONResponse(ctx, listRunsResponse{Runs: runs, Total: total})
}

func (s *Server) handleGetRun(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rn, err := s.runRepo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, rn)
}
