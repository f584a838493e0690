package upload

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/handiism/audio-normalizer/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Options configures the HTTP server.
type Options struct {
	Bind string

	// RequestTimeout bounds each request. Zero disables it.
	RequestTimeout time.Duration

	// MaxUploadBytes caps the request body of an upload. Zero means
	// unlimited.
	MaxUploadBytes int64

	AllowedOrigins []string
}

// OptionsFromSettings converts server settings to Options.
func OptionsFromSettings(s config.Server) Options {
	return Options{
		Bind:           s.Bind,
		RequestTimeout: time.Duration(s.RequestTimeout) * time.Second,
		MaxUploadBytes: int64(s.MaxUploadMB) << 20,
		AllowedOrigins: append([]string(nil), s.AllowedOrigins...),
	}
}

// Server exposes a Service over HTTP.
type Server struct {
	svc     *Service
	opts    Options
	log     *zap.Logger
	handler http.Handler
}

// NewServer builds the routes and middleware for svc.
func NewServer(svc *Service, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{svc: svc, opts: opts, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/{$}", s.handleUpload)
	mux.HandleFunc("GET /normalized/{filename}", s.handleNormalized)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	if opts.RequestTimeout > 0 {
		h = withTimeout(h, opts.RequestTimeout)
	}
	h = withCORS(h, opts.AllowedOrigins)
	h = withRequestLog(h, log)
	s.handler = h
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Bind, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("upload server listening", zap.String("address", listener.Addr().String()))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.log.Info("upload server stopped")
		return nil
	})
	return g.Wait()
}
