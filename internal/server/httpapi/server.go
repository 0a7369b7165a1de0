// Package httpapi is the REST transport of the todolist server.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/metrics"
)

type Server struct {
	address string
	handler http.Handler
	limiter *limiterStore
	logger  logging.Logger
}

// Options carries what the router needs besides the handler.
type Options struct {
	Secret         string
	Metrics        *metrics.Metrics
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewServer(address string, h *Handler, logger logging.Logger, opts Options) *Server {
	logger = logger.With("module", "http_server")
	h.logger = logger
	limiter := newLimiterStore(opts.RateLimitRPS, opts.RateLimitBurst)
	return &Server{
		address: address,
		handler: newRouter(h, logger, limiter, opts),
		limiter: limiter,
		logger:  logger,
	}
}

func newRouter(h *Handler, logger logging.Logger, limiter *limiterStore, opts Options) http.Handler {
	protected := authenticate([]byte(opts.Secret))
	p := func(fn http.HandlerFunc) http.Handler { return protected(fn) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", opts.Metrics.Handler())

	mux.HandleFunc("POST /users", h.HandleRegister)
	mux.HandleFunc("POST /auth/login", h.HandleLogin)
	mux.Handle("GET /users/{id}", p(h.HandleGetUser))

	mux.Handle("POST /todolists", p(h.HandleCreateTodolist))
	mux.Handle("GET /todolists", p(h.HandleListTodolists))
	mux.Handle("GET /todolists/{id}", p(h.HandleGetTodolist))
	mux.Handle("PUT /todolists/{id}", p(h.HandleRenameTodolist))
	mux.Handle("DELETE /todolists/{id}", p(h.HandleDeleteTodolist))
	mux.Handle("POST /todolists/{id}/export", p(h.HandleExportTodolist))
	mux.Handle("GET /todolists/{id}/items", p(h.HandleListItems))

	mux.Handle("POST /items", p(h.HandleCreateItem))
	mux.Handle("GET /items/{id}", p(h.HandleGetItem))
	mux.Handle("PUT /items/{id}", p(h.HandleUpdateItem))
	mux.Handle("DELETE /items/{id}", p(h.HandleDeleteItem))

	var handler http.Handler = mux
	if opts.RateLimitRPS > 0 {
		handler = rateLimit(limiter)(handler)
	}
	return logRequests(logger, opts.Metrics)(handler)
}

func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.limiter.startJanitor(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
