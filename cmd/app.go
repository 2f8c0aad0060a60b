package cmd

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-chi/chi"
	"gorm.io/gorm"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/auth"
	authPostgres "github.com/snwareresearch/project-tracker/internal/auth/postgres"
	"github.com/snwareresearch/project-tracker/internal/core/common/validation"
	"github.com/snwareresearch/project-tracker/internal/notification"
	"github.com/snwareresearch/project-tracker/internal/project"
	projectPostgres "github.com/snwareresearch/project-tracker/internal/project/postgres"
	"github.com/snwareresearch/project-tracker/internal/transport"
	"github.com/snwareresearch/project-tracker/internal/transport/middleware"
	"github.com/snwareresearch/project-tracker/internal/transport/rest"
	"github.com/snwareresearch/project-tracker/internal/user"
	userPostgres "github.com/snwareresearch/project-tracker/internal/user/postgres"
)

// application is the wired object graph shared by the server and seed commands.
type application struct {
	Router      *chi.Mux
	AuthService *auth.Service
	Metrics     *middleware.Metrics
}

func buildApplication(cfg *internal.Config, gdb *gorm.DB, pinger rest.Pinger, mailer notification.Mailer, lg *slog.Logger) (*application, error) {
	hasher, err := auth.NewBcryptHasher(cfg.Security.BCryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, auth.WithTokenLogger(lg))
	if err != nil {
		return nil, err
	}
	v := validation.New(cfg.Security.EmailDomain)
	metrics := middleware.NewMetrics()

	authService := auth.NewService(
		authPostgres.NewRepository(gdb),
		hasher,
		tokens,
		mailer,
		v,
		auth.ServiceConfig{TokenTTL: cfg.Security.TokenTTL, QueryTimeout: cfg.Database.QueryTimeout},
		lg,
	)
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Name:     cfg.Security.CookieName,
		Secure:   cfg.Security.CookieSecure,
		SameSite: cfg.Security.SameSiteMode(),
	}, metrics)

	userService := user.NewService(userPostgres.NewUserRepository(gdb), v, cfg.Database.QueryTimeout, lg)

	projectRepo := projectPostgres.NewProjectRepository(gdb)
	projectService := project.NewService(
		projectRepo,
		project.NewAllocator(projectRepo, project.WithAllocatorQueryTimeout(cfg.Database.QueryTimeout)),
		v,
		project.ServiceConfig{AllocAttempts: cfg.Security.AllocAttempts, QueryTimeout: cfg.Database.QueryTimeout},
		lg,
	)

	router := chi.NewRouter()
	err = rest.RegisterAllRoutes(router, rest.Dependencies{
		Config:         cfg,
		DB:             pinger,
		AuthHandler:    authHandler,
		RBAC:           auth.NewRBACAuthorization(lg),
		UserHandler:    user.NewHandler(userService),
		ProjectHandler: project.NewHandler(transport.NewBaseHandler(lg), projectService),
		Metrics:        metrics,
		Logger:         lg,
	})
	if err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	return &application{
		Router:      router,
		AuthService: authService,
		Metrics:     metrics,
	}, nil
}

// newMailer uses the SMTP relay when one is configured and logs mail otherwise.
func newMailer(cfg internal.MailConfig, lg *slog.Logger) (notification.Mailer, error) {
	if cfg.Host == "" {
		lg.Warn("no SMTP host configured; mail will only be logged")
		return notification.NewLogMailer(lg), nil
	}
	lg.Info("using SMTP relay", "addr", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	mailer, err := notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: "Snware Project",
		Timeout:  cfg.Timeout,
	}, lg)
	if err != nil {
		return nil, err
	}
	return mailer, nil
}
