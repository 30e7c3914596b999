package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SpotCast/internal/domain/repository"
	"SpotCast/pkg/cache"
	pkgch "SpotCast/pkg/clickhouse"
	"SpotCast/pkg/config"
	xhttp "SpotCast/pkg/http"
	applogger "SpotCast/pkg/logger"
	pkgsqlite "SpotCast/pkg/sqlite"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	chClient    *pkgch.Client
	sqClient    *pkgsqlite.Client
	events      repository.EventPublisher
	snapshots   cache.Service
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	sqClient *pkgsqlite.Client,
	events repository.EventPublisher,
	snapshots cache.Service,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		httpHandler: handler,
		chClient:    chClient,
		sqClient:    sqClient,
		events:      events,
		snapshots:   snapshots,
	}
}

// SetHTTPHandler allows swapping the HTTP handler before Run.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, opts...)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(context.Background())
}

// shutdown gracefully stops the server and closes infrastructure clients.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			a.log.Warn("snapshot cache close error", applogger.Error(err))
		}
	}
	if a.sqClient != nil {
		if err := a.sqClient.Close(); err != nil {
			a.log.Warn("sqlite close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
