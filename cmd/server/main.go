package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lychee-technology/jsonerd"
	"github.com/lychee-technology/jsonerd/factory"
	"github.com/lychee-technology/jsonerd/internal"
	"go.uber.org/zap"
)

// Server represents the HTTP server in front of the inference engine
type Server struct {
	config   *jsonerd.Config
	analyzer jsonerd.Analyzer
	codec    jsonerd.ShareCodec
	store    jsonerd.SnapshotStore
	router   chi.Router
}

// NewServer creates a new Server instance
func NewServer(config *jsonerd.Config, analyzer jsonerd.Analyzer, codec jsonerd.ShareCodec, store jsonerd.SnapshotStore) *Server {
	return &Server{
		config:   config,
		analyzer: analyzer,
		codec:    codec,
		store:    store,
		router:   chi.NewRouter(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/share", s.handleShareEncode)
		r.Get("/share", s.handleShareDecode)
		r.Post("/jsonschema", s.handleJSONSchema)

		r.Post("/snapshots", s.handleSnapshotCreate)
		r.Get("/snapshots/{id}", s.handleSnapshotGet)
		r.Delete("/snapshots/{id}", s.handleSnapshotDelete)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("starting server", "addr", httpServer.Addr, "storage", s.config.Storage.Backend)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	zap.S().Infow("shutting down server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	config, err := internal.LoadConfig(os.Getenv("JSONERD_CONFIG_FILE"))
	if err != nil {
		panic(err)
	}

	logger, err := internal.NewLogger(config.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec := factory.NewShareCodec(config)
	store, err := factory.NewSnapshotStore(ctx, config, codec)
	if err != nil {
		sugar.Fatalf("failed to create snapshot store: %v", err)
	}
	defer store.Close()

	server := NewServer(config, factory.NewAnalyzer(config), codec, store)
	server.RegisterRoutes()

	if err := server.Start(ctx); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}
