package web

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"nutriplan-backend/internal/infra/metrics"
	"nutriplan-backend/internal/usecase"
)

// Server is the operator-facing admin API: recipe catalog management, stats,
// and the Prometheus scrape endpoint. It stays on a plain mux behind a
// bearer key; this surface is never exposed to end users.
type Server struct {
	recipes usecase.RecipeUseCase
	stats   usecase.StatsUseCase
	apiKey  string
	log     *zerolog.Logger
}

func NewServer(recipes usecase.RecipeUseCase, stats usecase.StatsUseCase, apiKey string, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "admin-api").Logger()
	return &Server{recipes: recipes, stats: stats, apiKey: apiKey, log: &l}
}

// RegisterRoutes sets up the routing for the admin API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	metrics.MustRegister()
	mux.Handle("/metrics", promhttp.Handler())

	recipesRouter := s.authMiddleware(s.recipesRouter())
	mux.Handle("/api/v1/recipes", recipesRouter)
	mux.Handle("/api/v1/recipes/", recipesRouter)

	mux.Handle("/api/v1/stats", s.authMiddleware(statsHandler(s.stats)))
}

// authMiddleware provides simple Bearer token authentication for the admin API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			metrics.IncAdminRequest("unauthorized")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			metrics.IncAdminRequest("unauthorized")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			metrics.IncAdminRequest("unauthorized")
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			metrics.IncAdminRequest("unauthorized")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		metrics.IncAdminRequest("authorized")
		next.ServeHTTP(w, r)
	})
}

// recipesRouter acts as a sub-router for /api/v1/recipes
func (s *Server) recipesRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/recipes")
		path = strings.Trim(path, "/")

		// Route /api/v1/recipes (no ID)
		if path == "" {
			switch r.Method {
			case http.MethodGet:
				recipesListHandler(s.recipes)(w, r)
			case http.MethodPost:
				recipesCreateHandler(s.recipes)(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		// Route /api/v1/recipes/{id}
		switch r.Method {
		case http.MethodGet:
			recipesGetHandler(s.recipes, path)(w, r)
		case http.MethodPut:
			recipesUpdateHandler(s.recipes, path)(w, r)
		case http.MethodDelete:
			recipesDeleteHandler(s.recipes, path)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}
