// Package server wires configuration, storage, the object store and the
// HTTP API together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/logging"
	"github.com/dmitrijs2005/cloudnotes/internal/server/auth"
	"github.com/dmitrijs2005/cloudnotes/internal/server/blob"
	"github.com/dmitrijs2005/cloudnotes/internal/server/config"
	"github.com/dmitrijs2005/cloudnotes/internal/server/httpapi"
	"github.com/dmitrijs2005/cloudnotes/internal/server/metrics"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudnotes/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// seams for tests
var (
	openDB               = sql.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	migrationsTimeout    = time.Minute
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel).With("env", c.Environment)
	return newApp(c, logger)
}

func newApp(c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := openDB("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(c.DBMaxOpenConns)
	db.SetMaxIdleConns(c.DBMaxIdleConns)
	db.SetConnMaxIdleTime(c.DBConnMaxIdleTime)

	rm := newRepositoryManager()

	ctx, cancel := context.WithTimeout(context.Background(), migrationsTimeout)
	defer cancel()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrations error: %w", err)
	}

	store := blob.NewS3Store(c)
	if !store.Configured() {
		logger.Warn(ctx, "object store not configured, uploads are disabled")
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := httpapi.NewRouter(&httpapi.RouterDeps{
		Users:             services.NewUserService(db, rm, tokens, c),
		Notes:             services.NewNoteService(db, rm, c),
		Uploads:           services.NewUploadService(db, rm, store, logger.With("module", "uploads"), c),
		Tokens:            tokens,
		DB:                db,
		Logger:            logger,
		Metrics:           metrics.NewCollector(reg),
		Gatherer:          reg,
		Production:        c.IsProduction(),
		CORSAllowedOrigin: c.CORSAllowedOrigin,
		UploadMaxBytes:    c.UploadMaxBytes,
	})

	return &App{config: c, logger: logger, db: db, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.handler, app.logger, app.config.ShutdownTimeout)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is canceled or a termination signal arrives, then
// closes the database pool.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
