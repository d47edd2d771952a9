// Package api exposes the HTTP surface: authentication, company and
// request CRUD, and on-demand risk assessment.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/risk-api/internal/assessment"
	"github.com/sells-group/risk-api/internal/auth"
	"github.com/sells-group/risk-api/internal/config"
	"github.com/sells-group/risk-api/internal/store"
)

// Server wires the service layer to the router.
type Server struct {
	svc     *assessment.Service
	store   store.Store
	tokens  *auth.TokenManager
	authCfg config.AuthConfig
	limiter *ipLimiter
}

// NewServer creates a Server. The store is used directly only for user
// lookups; everything else goes through the service.
func NewServer(svc *assessment.Service, st store.Store, tokens *auth.TokenManager, authCfg config.AuthConfig) *Server {
	return &Server{
		svc:     svc,
		store:   st,
		tokens:  tokens,
		authCfg: authCfg,
		limiter: newIPLimiter(authCfg.LoginRatePerMin, authCfg.LoginBurst),
	}
}

// Router builds the chi handler tree.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(s.rateLimit).Post("/register", s.handleRegister)
			r.With(s.rateLimit).Post("/login", s.handleLogin)
			r.With(s.authenticate).Get("/me", s.handleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", s.handleListCompanies)
				r.Post("/", s.handleCreateCompany)
				r.Get("/{id}", s.handleGetCompany)
				r.Put("/{id}", s.handleUpdateCompany)
				r.Delete("/{id}", s.handleDeleteCompany)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", s.handleListRequests)
				r.Post("/", s.handleCreateRequest)
				r.Get("/stats/summary", s.handleRequestSummary)
				r.Get("/{id}", s.handleGetRequest)
				r.Put("/{id}", s.handleUpdateRequest)
				r.Delete("/{id}", s.handleDeleteRequest)
			})

			r.Post("/risk/assess", s.handleAssess)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
