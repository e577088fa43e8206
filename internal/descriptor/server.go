package descriptor

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stanley1208/ADK/pkg/cerr"
)

// Server exposes the deployment descriptor for operators and tooling.
type Server struct {
	descriptor *Descriptor
}

func NewServer(d *Descriptor) *Server {
	return &Server{descriptor: d}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/descriptor", s.handleGet)
}

func (s *Server) handleGet(_ http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), s.descriptor)
}
