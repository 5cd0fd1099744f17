// Package server wires the expensekeeper backend together: logging, the
// PostgreSQL pool and migrations, object storage, services and the HTTP API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/config"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/expensekeeper/internal/server/rest"
	"github.com/dmitrijs2005/expensekeeper/internal/server/services"
	"github.com/dmitrijs2005/expensekeeper/internal/server/storage"
)

var (
	openDB         = repomanager.OpenDB
	newRepoManager = repomanager.NewPostgresRepositoryManager
	newPresigner   = func(ctx context.Context, c *config.Config) (storage.Presigner, error) {
		return storage.NewS3Presigner(ctx, c)
	}
)

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   runner
}

// NewApp opens the database, applies migrations and builds the HTTP server.
// The returned App owns the pool; Run closes it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	presigner, err := newPresigner(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	hasher := auth.NewPasswordHasher(c.BcryptCost)
	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	us := services.NewUserService(db, rm, hasher, issuer)
	ps := services.NewProfileService(db, rm, hasher, presigner)
	es := services.NewExpenseService(db, rm)

	srv := rest.NewHTTPServer(rest.Options{
		Address:        c.EndpointAddrHTTP,
		AllowedOrigins: c.AllowedOrigins,
		RequestTimeout: c.RequestTimeout,
	}, logger, issuer, us, ps, es)

	return &App{config: c, logger: logger, db: db, http: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	err := app.http.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
