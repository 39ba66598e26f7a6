// Package server wires configuration, storage, services and the HTTP and
// gRPC transports into a runnable application, and handles graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/logging"
	"github.com/dmitrijs2005/lingoplay/internal/server/config"
	"github.com/dmitrijs2005/lingoplay/internal/server/httpapi"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lingoplay/internal/server/services"
	"github.com/dmitrijs2005/lingoplay/internal/server/storage"
	"github.com/dmitrijs2005/lingoplay/internal/telemetry"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/lingoplay/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	userService *services.UserService
	uploads     *services.UploadService
	closer      io.Closer
}

// NewApp connects to the database, applies migrations and builds the
// storage backend selected by c.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager(db)
	if err := rm.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := storage.New(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	app, err := newApp(c, logger, rm, store)
	if err != nil {
		db.Close()
		return nil, err
	}
	app.closer = db
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager, store storage.Storage) (*App, error) {
	creds, err := services.NewCredentialStore(rm, c)
	if err != nil {
		return nil, err
	}

	us := services.NewUserService(creds, services.NewTokenManager(rm, c))
	ups := services.NewUploadService(rm, store, logger)

	return &App{config: c, logger: logger, repomanager: rm, userService: us, uploads: ups}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) httpHandler() http.Handler {
	h := httpapi.NewHandler(app.config, app.logger, app.userService, app.uploads, app.repomanager, httpapi.NewMetrics())
	return telemetry.WrapHandler(h.Routes())
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or
// either server fails.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	shutdownTracing, err := telemetry.Init(ctx, app.config.OTLPEndpoint, app.logger)
	if err != nil {
		return fmt.Errorf("telemetry init error: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpapi.NewServer(app.config.EndpointAddrHTTP, app.httpHandler(), app.logger).Run(gctx)
	})

	g.Go(func() error {
		return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService).Run(gctx)
	})

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_ = shutdownTracing(shutdownCtx)

	if app.closer != nil {
		if cerr := app.closer.Close(); cerr != nil {
			app.logger.Warn(ctx, "error closing db", "error", cerr)
		}
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
