package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// ServerAddr is the network address to listen on
	ServerAddr string `env:"SERVER_ADDR" default:":8080"`
	// ReadHeaderTimeout is the timeout in seconds for reading request headers
	ReadHeaderTimeout int64 `env:"READ_HEADER_TIMEOUT" default:"5"`

	ReadTimeout  int64 `env:"READ_TIMEOUT" default:"10"`
	WriteTimeout int64 `env:"WRITE_TIMEOUT" default:"30"`

	// ShutdownTimeout bounds the graceful shutdown once the context is cancelled
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`

	// CORSOrigins lists the origins allowed to call the API from a browser
	CORSOrigins []string `env:"CORS_ORIGINS" default:"*"`
}

// HTTPTransport is implemented by every service that exposes HTTP routes.
type HTTPTransport interface {
	// Routes mounts the service's handlers on r.
	Routes(r chi.Router)
}

// Middleware is a chi-compatible handler decorator.
type Middleware = func(http.Handler) http.Handler

// NewRouter builds the API router: CORS, tracing, access logging, panic
// recovery, then the given middlewares (e.g. authentication) in order, the
// liveness endpoints and every transport's routes.
func NewRouter(cfg HTTPTransportConfig, middlewares []Middleware, transports ...HTTPTransport) chi.Router {
	log := logging.GetLogger("infra.transport.http")

	r := chi.NewRouter()

	//nolint:exhaustruct
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", TraceIDHeader},
		ExposedHeaders: []string{TraceIDHeader, "Location"},
		MaxAge:         300,
	}))
	r.Use(chimw.StripSlashes)
	r.Use(TracingMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(RescueingMiddleware(log))
	r.Use(middlewares...)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteErrorMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", handleStatus)
	r.Get("/health", handleStatus)

	for _, transport := range transports {
		transport.Routes(r)
	}

	return r
}

func handleStatus(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, domain.StatusResponse{Status: "ok"})
}

// ListenAndServe serves handler until ctx is cancelled, then shuts the server
// down gracefully within cfg.ShutdownTimeout.
func ListenAndServe(ctx context.Context, handler http.Handler, cfg HTTPTransportConfig) error {
	log := logging.GetLogger("infra.transport.http")

	//nolint:exhaustruct
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeout * int64(time.Second)),
		ReadTimeout:       time.Duration(cfg.ReadTimeout * int64(time.Second)),
		WriteTimeout:      time.Duration(cfg.WriteTimeout * int64(time.Second)),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.InfoContext(ctx, "listening", "addr", sock.Addr().String())

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.Serve(sock); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		log.InfoContext(shutdownCtx, "shutting down")

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	})

	return group.Wait() //nolint:wrapcheck
}
