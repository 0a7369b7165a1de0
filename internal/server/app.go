// Package server wires configuration, storage, mail transport and the
// services together and runs the HTTP and gRPC servers until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/config"
	"github.com/dmitrijs2005/todolist/internal/server/httpapi"
	"github.com/dmitrijs2005/todolist/internal/server/mailer"
	"github.com/dmitrijs2005/todolist/internal/server/metrics"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/services"

	gs "github.com/dmitrijs2005/todolist/internal/server/grpc"
)

// seams for tests
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepoManager = repomanager.NewPostgresRepositoryManager
	newMailer      = mailer.New
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	closeMail  func() error
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	sender, closeMail, err := newMailer(c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	m := metrics.New()
	opts := []services.Option{services.WithLogger(logger), services.WithMetrics(m)}

	us := services.NewUserService(db, rm, c, opts...)
	ts := services.NewTodolistService(db, rm, opts...)
	notifier := services.NewNotifier(db, rm, sender, c.NotificationThreshold, opts...)
	is := services.NewItemService(db, rm, c, notifier, us, opts...)
	es := services.NewExportService(db, rm, c, opts...)

	h := httpapi.NewHandler(us, ts, is, es, logger)
	httpServer := httpapi.NewServer(c.EndpointAddrHTTP, h, logger, httpapi.Options{
		Secret:         c.SecretKey,
		Metrics:        m,
		RateLimitRPS:   c.RateLimitRPS,
		RateLimitBurst: c.RateLimitBurst,
	})
	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, m, ts, is, c.SecretKey)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		closeMail:  closeMail,
		httpServer: httpServer,
		grpcServer: grpcServer,
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

// serve runs one server; a failure stops the whole app.
func (app *App) serve(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "grpc", app.grpcServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "http", app.httpServer.Run)
	}()

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close(ctx context.Context) {
	if err := app.closeMail(); err != nil {
		app.logger.Warn(ctx, "mail transport close failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}
}
