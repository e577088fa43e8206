package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/stanley1208/ADK/internal/alerting"
	"github.com/stanley1208/ADK/internal/bqlog"
	"github.com/stanley1208/ADK/internal/config"
	"github.com/stanley1208/ADK/internal/descriptor"
	"github.com/stanley1208/ADK/internal/pipeline"
	"github.com/stanley1208/ADK/pkg/cerr"
	"github.com/stanley1208/ADK/pkg/clog"
)

type Server struct {
	server           *http.Server
	env              *config.Env
	logger           bqlog.Logger
	agentDescriptor  *descriptor.Descriptor
	pipelineServer   *pipeline.Server
	historyServer    *bqlog.Server
	descriptorServer *descriptor.Server
	alertingServer   *alerting.Server

	startedAt time.Time
}

func NewServer(
	env *config.Env,
	logger bqlog.Logger,
	agentDescriptor *descriptor.Descriptor,
	pipelineServer *pipeline.Server,
	historyServer *bqlog.Server,
	descriptorServer *descriptor.Server,
	alertingServer *alerting.Server,
) *Server {
	return &Server{
		env:              env,
		logger:           logger,
		agentDescriptor:  agentDescriptor,
		pipelineServer:   pipelineServer,
		historyServer:    historyServer,
		descriptorServer: descriptorServer,
		alertingServer:   alertingServer,
		startedAt:        time.Now(),
	}
}

// ListenAndServe starts the HTTP server. The provided context is the base
// context for all incoming requests, so cancelling it on shutdown also
// cancels in-flight handlers.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})

		s.pipelineServer.RegisterRoutes(r)
		s.historyServer.RegisterRoutes(r)
		s.descriptorServer.RegisterRoutes(r)
		s.alertingServer.RegisterRoutes(r)
		r.Get("/status", s.handleStatus)
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(s.apiKeyMiddleware(mux)), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type statusResponse struct {
	Agent         string       `json:"agent"`
	Version       string       `json:"version"`
	Environment   string       `json:"environment"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	BigQuery      bqlog.Status `json:"bigquery"`
}

func (s *Server) handleStatus(_ http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), statusResponse{
		Agent:         s.agentDescriptor.Name,
		Version:       s.agentDescriptor.Version,
		Environment:   s.env.Environment,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		BigQuery:      s.logger.Status(),
	})
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip API key check for the health endpoint.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if s.env.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.Header.Get("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}
		if apiKey != s.env.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
