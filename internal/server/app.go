// Package server initializes and runs the messenger backend: it opens the
// database, applies migrations, builds the revocation whitelist, the event
// broker, and the core services, and serves the HTTP/WebSocket API until
// shutdown.
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

	"github.com/dmitrijs2005/messenger/internal/logging"
	"github.com/dmitrijs2005/messenger/internal/server/auth"
	"github.com/dmitrijs2005/messenger/internal/server/config"
	"github.com/dmitrijs2005/messenger/internal/server/httpapi"
	"github.com/dmitrijs2005/messenger/internal/server/pubsub"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/messenger/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	broker *pubsub.Broker
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	// The whitelist lives for the whole process; it is derivable from the
	// sessions table, so it needs no flush on shutdown.
	whitelist := auth.NewMemoryWhitelist()
	broker := pubsub.NewBroker(logger)

	sessionService := services.NewSessionService(db, rm, whitelist, cfg)
	userService := services.NewUserService(db, rm, sessionService)
	accessService := services.NewAccessService(db, rm)
	messengerService := services.NewMessengerService(db, rm, accessService, broker, logger)
	messageService := services.NewMessageService(db, rm, accessService, broker, logger)
	readRecordService := services.NewReadRecordService(db, rm, accessService)

	srv := httpapi.NewServer(
		cfg.EndpointAddr,
		logger,
		cfg.AllowedOrigins,
		userService,
		sessionService,
		accessService,
		messengerService,
		messageService,
		readRecordService,
		broker,
	)

	return &App{config: cfg, logger: logger, db: db, broker: broker, server: srv}, nil
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

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	app.broker.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
