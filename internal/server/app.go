// Package server initializes and runs the application: it opens the
// database, runs migrations, wires the services and starts the HTTP API,
// handling graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authwall/internal/logging"
	"github.com/dmitrijs2005/authwall/internal/server/auth"
	"github.com/dmitrijs2005/authwall/internal/server/config"
	"github.com/dmitrijs2005/authwall/internal/server/hashing"
	"github.com/dmitrijs2005/authwall/internal/server/httpapi"
	"github.com/dmitrijs2005/authwall/internal/server/messaging"
	"github.com/dmitrijs2005/authwall/internal/server/mx"
	"github.com/dmitrijs2005/authwall/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authwall/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	publisher  messaging.Publisher
	httpServer *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	codec, err := auth.NewCodec([]byte(cfg.SecretKey), logger)
	if err != nil {
		return nil, fmt.Errorf("codec init error: %w", err)
	}

	var hasher hashing.Hasher
	switch cfg.PasswordScheme {
	case config.PasswordSchemeXOR:
		hasher = hashing.NewXORHasher()
	default:
		hasher = hashing.NewArgon2Hasher()
	}

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.AMQPUrl != "" {
		publisher, err = messaging.NewRabbitPublisher(cfg.AMQPUrl, cfg.Environment)
		if err != nil {
			return nil, fmt.Errorf("broker init error: %w", err)
		}
	}

	tokenService := services.NewTokenService(db, m, codec, logger, cfg)
	accountService := services.NewAccountService(db, m, hasher, tokenService, mx.NewNetResolver(), publisher, logger)

	handler := httpapi.NewHandler(accountService, tokenService, logger)
	httpServer := httpapi.NewServer(cfg.EndpointAddrHTTP, handler, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		publisher:  publisher,
		httpServer: httpServer,
	}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.publisher.Close(); err != nil {
		app.logger.Error(ctx, "broker close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
