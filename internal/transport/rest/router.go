package rest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/snwareresearch/project-tracker/api"
	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/auth"
	"github.com/snwareresearch/project-tracker/internal/project"
	"github.com/snwareresearch/project-tracker/internal/transport/middleware"
	"github.com/snwareresearch/project-tracker/internal/transport/swagger"
	"github.com/snwareresearch/project-tracker/internal/user"
)

type Dependencies struct {
	Config         *internal.Config
	DB             Pinger
	AuthHandler    *auth.Handler
	RBAC           *auth.RBACAuthorization
	UserHandler    *user.Handler
	ProjectHandler *project.Handler
	Metrics        *middleware.Metrics
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) error {
	cfg := deps.Config
	healthHandler := NewHealthHandler(deps.DB)

	authLimiter, err := middleware.NewIPRateLimiter(cfg.Security.AuthRateLimit, cfg.Security.TrustForwardHeader)
	if err != nil {
		return fmt.Errorf("auth rate limit: %w", err)
	}

	router.Use(chiMiddleware.RequestID)
	if cfg.Security.TrustForwardHeader {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.NewSecure(middleware.SecureOptions(cfg.Env != internal.EnvProduction)))
	router.Use(middleware.CORS(cfg.Server.OriginsFor(cfg.Env)))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
	}
	router.Use(middleware.LoggingMiddleware(deps.Logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPISpec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	if deps.Metrics != nil && cfg.Observability.Metrics.Enabled {
		router.Handle(cfg.Observability.Metrics.Path, deps.Metrics.Handler())
	}

	if deps.AuthHandler != nil {
		ah := deps.AuthHandler
		router.Route("/auth", func(r chi.Router) {
			r.Post("/logout", ah.Logout)

			r.Group(func(lr chi.Router) {
				lr.Use(authLimiter)
				lr.Post("/login", ah.Login)
				lr.Post("/forgot-password", ah.ForgotPassword)
				lr.Post("/update-password", ah.UpdatePassword)
				lr.With(ah.OptionalAuthMiddleware).Post("/signup", ah.Signup)
			})

			r.Group(func(pr chi.Router) {
				pr.Use(ah.AuthMiddleware)
				pr.Get("/me", ah.Me)
			})
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if deps.AuthHandler == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.AuthMiddleware)

			if deps.UserHandler != nil {
				pr.Get("/sales-reps", deps.UserHandler.ListSalesReps)

				pr.Route("/users", func(ur chi.Router) {
					ur.Use(deps.RBAC.RequireAdmin())
					ur.Get("/", deps.UserHandler.ListUsers)
					ur.Patch("/{id}", deps.UserHandler.UpdateUser)
				})
			}

			if deps.ProjectHandler != nil {
				pr.Route("/projects", func(prr chi.Router) {
					prr.Get("/", deps.ProjectHandler.ListProjects)
					prr.Post("/", deps.ProjectHandler.CreateProject)
					prr.Get("/generate-id", deps.ProjectHandler.GenerateID)
					prr.Put("/{id}", deps.ProjectHandler.UpdateProject)
				})
			}
		})
	})

	return nil
}
