package bqlog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stanley1208/ADK/pkg/cerr"
)

// Server exposes the sensor reading history stored in BigQuery.
type Server struct {
	logger Logger
}

func NewServer(logger Logger) *Server {
	return &Server{logger: logger}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/history", s.handleHistory)
}

type historyResponse struct {
	Entries   []HistoryEntry `json:"entries"`
	Location  string         `json:"location,omitempty"`
	HoursBack int            `json:"hours_back"`
}

func (s *Server) handleHistory(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !s.logger.Enabled() {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "BigQuery logging is not enabled", nil)
		return
	}

	q := r.URL.Query()
	hoursBack, _ := strconv.Atoi(q.Get("hours_back"))
	if hoursBack <= 0 {
		hoursBack = 24
	}
	location := q.Get("location")

	entries, err := s.logger.QueryHistory(ctx, location, hoursBack)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "history query failed", err)
		return
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	cerr.SetJSONResponse(ctx, historyResponse{
		Entries:   entries,
		Location:  location,
		HoursBack: hoursBack,
	})
}
