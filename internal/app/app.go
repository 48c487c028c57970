package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dataviews/internal/api"
	"dataviews/internal/config"
	"dataviews/internal/dbclient"
	"dataviews/internal/domain"
	mcpserver "dataviews/internal/mcp"
	"dataviews/internal/service"
)

const shutdownTimeout = 5 * time.Second

// App wires the backend client, the views service and its outer surfaces.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	client dbclient.Client
	svc    *service.DataViewsService
	hub    *api.EventHub
	resync *service.Resyncer
}

// New loads the schema, connects the backend and performs the initial fetch.
// A failed fetch is logged and leaves the record list empty.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	schema, err := LoadSchema(cfg.Schema.Path)
	if err != nil {
		return nil, err
	}

	client, err := dbclient.Open(ctx, cfg.Backend, schema.ID, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend.Driver, err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping %s backend: %w", cfg.Backend.Driver, err)
	}

	hub := api.NewEventHub(logger)
	svc := service.NewDataViewsService(schema, client, service.Options{
		Config:  cfg.Views,
		Emitter: hub,
		Logger:  logger,
	})
	svc.Mount(ctx)

	logger.Info("table mounted",
		zap.String("table", schema.ID),
		zap.String("driver", string(cfg.Backend.Driver)),
		zap.Int("records", len(svc.Records())),
	)

	return &App{
		cfg:    cfg,
		logger: logger,
		client: client,
		svc:    svc,
		hub:    hub,
		resync: service.NewResyncer(svc, logger),
	}, nil
}

// Service exposes the views service.
func (a *App) Service() *service.DataViewsService { return a.svc }

// Handler returns the HTTP API including the event stream.
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.NewHandler(a.svc, a.hub, a.logger))
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP API on ln with the scheduled resync and the schema
// watcher until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.resync.Start(ctx, a.cfg.Sync.Schedule); err != nil {
		ln.Close()
		return err
	}
	defer a.resync.Stop()

	if a.cfg.Schema.Watch {
		watcher, err := a.watchSchema(ctx)
		if err != nil {
			a.logger.Warn("schema watch disabled", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	// Websocket subscribers are hijacked and outlive Shutdown otherwise.
	a.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("http server stopped")
	return nil
}

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects.
func (a *App) ServeMCP(ctx context.Context) error {
	if err := a.resync.Start(ctx, a.cfg.Sync.Schedule); err != nil {
		return err
	}
	defer a.resync.Stop()

	a.logger.Info("starting MCP stdio server")
	return mcpserver.New(a.svc, a.logger).ServeStdio()
}

// Close releases the backend connection.
func (a *App) Close() error {
	a.resync.Stop()
	a.hub.Close()
	return a.client.Close()
}

func (a *App) watchSchema(ctx context.Context) (*SchemaWatcher, error) {
	return NewSchemaWatcher(a.cfg.Schema.Path, func(schema *domain.TableSchema) {
		// The backend client is scoped to the table id it was opened with.
		if current := a.svc.Schema().ID; schema.ID != current {
			a.logger.Warn("schema id changed, restart required",
				zap.String("current", current), zap.String("new", schema.ID))
			return
		}
		if err := a.svc.ReplaceSchema(ctx, schema); err != nil {
			a.logger.Warn("schema not applied", zap.Error(err))
		}
	}, a.logger)
}
