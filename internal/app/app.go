// Package app wires configuration, logging, services and the HTTP router
// into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"mediasov/internal/config"
	apperrors "mediasov/internal/errors"
	"mediasov/internal/infrastructure"
	custommw "mediasov/internal/middleware"
	"mediasov/internal/services"
	transporthttp "mediasov/internal/transport/http"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Application holds the assembled service dependencies.
type Application struct {
	config *config.Config
	logger *slog.Logger
	server *http.Server
}

// NewApplication creates the application with all dependencies wired.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	app := &Application{
		config: cfg,
		logger: logger,
	}
	app.server = app.createServer(app.createRouter())

	logger.Info("application initialized",
		slog.Int("port", cfg.Server.Port),
		slog.String("version", Version),
	)
	return app, nil
}

func (a *Application) createRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(a.logger))
	r.Use(custommw.Recoverer(a.logger))
	r.Use(custommw.Timeout(a.config.Server.RequestTimeout, a.logger))
	r.Use(custommw.SecurityHeaders)

	if a.config.Security.EnableCORS {
		r.Use(custommw.CORS(a.config.Security.AllowedOrigins, a.logger))
	}
	if a.config.Limits.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(a.config.Limits.RateLimit.RPS, a.config.Limits.RateLimit.Burst, a.logger)
		r.Use(limiter.Handler)
	}

	errorHandler := apperrors.NewErrorHandler(a.logger)
	mergeService := services.NewMergeService(a.logger)
	reportService := services.NewReportService(a.logger)

	maxUpload := a.config.Limits.MaxUploadBytes
	mergeHandler := transporthttp.NewMergeHandler(mergeService, errorHandler, a.logger, maxUpload)
	reportHandler := transporthttp.NewReportHandler(reportService, errorHandler, a.logger, maxUpload)
	healthHandler := transporthttp.NewHealthHandler(Version)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Mount("/merge", mergeHandler.Routes())
		r.Mount("/reports", reportHandler.Routes())
	})

	return r
}

func (a *Application) createServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      handler,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}
}

// Start begins serving HTTP traffic. It blocks until the server stops.
func (a *Application) Start() error {
	a.logger.Info("server starting", slog.String("addr", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (a *Application) Stop(ctx context.Context) error {
	a.logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// Run starts the application and blocks until an interrupt or terminate
// signal arrives, then shuts down gracefully.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.logger.Info("signal received", slog.String("signal", sig.String()))
		return a.Stop(context.Background())
	}
}
