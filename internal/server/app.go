// Package server wires the auth service together: configuration, logging,
// the identity store, key material and the HTTP and gRPC front ends. It runs
// until SIGINT or SIGTERM and then shuts both servers down gracefully.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/keuthlie/internal/logging"
	"github.com/dmitrijs2005/keuthlie/internal/server/config"
	"github.com/dmitrijs2005/keuthlie/internal/server/httpapi"
	"github.com/dmitrijs2005/keuthlie/internal/server/keys"
	"github.com/dmitrijs2005/keuthlie/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keuthlie/internal/server/services"

	gs "github.com/dmitrijs2005/keuthlie/internal/server/grpc"
)

// runner is a front end that serves until its context is cancelled.
type runner interface {
	Run(ctx context.Context) error
}

// App is the process-wide context object. It is built once and shared by
// every request.
type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	auth    *services.AuthService
	runners map[string]runner
}

// seams for tests
var (
	openDB = func(cfg *config.Config) (*sql.DB, error) {
		return repomanager.OpenPostgres(cfg.DatabaseDSN, repomanager.PoolLimits{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
	}
	logOutput io.Writer = os.Stdout
)

func NewApp(ctx context.Context, c *config.Config, rm repomanager.RepositoryManager) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, logOutput)
	if err != nil {
		return nil, err
	}

	loader := keys.Loader{S3: keys.S3Options{
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
	}}
	kp, err := loader.LoadPair(ctx, c.PrivateKeyLocation, c.PublicKeyLocation)
	if err != nil {
		return nil, fmt.Errorf("key init error: %w", err)
	}

	db, err := openDB(c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	auth, err := services.NewAuthService(db, rm, c, kp, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	router := httpapi.NewRouter(auth, logger.With("module", "http"), c.AllowedOrigins)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		auth:   auth,
		runners: map[string]runner{
			"http": httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
			"grpc": gs.NewGRPCServer(c.EndpointAddrGRPC, logger, auth),
		},
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run starts every front end and blocks until all of them have stopped.
// A failing front end stops the others.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	for name, r := range app.runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
