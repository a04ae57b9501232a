package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Addr is the address to listen on, e.g. ":9090". Empty disables the
	// server.
	Addr string

	// Path is the path metrics are served on. Defaults to "/metrics".
	Path string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns a disabled ServerConfig with sane timeouts.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Path:         "/metrics",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server exposes the counters and histograms Init registered over HTTP.
type Server struct {
	config ServerConfig
	server *http.Server
}

// NewServer constructs a Server. Start is a no-op when config.Addr is empty.
func NewServer(config ServerConfig) *Server {
	if config.Path == "" {
		config.Path = "/metrics"
	}
	return &Server{config: config}
}

// Start begins serving metrics in the background. It returns immediately;
// listen errors are reported to the logger callback rather than the caller,
// matching the "metrics are non-critical" posture the rest of this package
// takes toward observability failures.
func (s *Server) Start(onError func(error)) {
	if s.config.Addr == "" {
		return
	}

	Init()

	mux := http.NewServeMux()
	mux.Handle(s.config.Path, promhttp.Handler())

	s.server = &http.Server{
		Addr:         s.config.Addr,
		Handler:      mux,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if onError != nil {
				onError(fmt.Errorf("metrics server: %w", err))
			}
		}
	}()
}

// Stop gracefully shuts down the metrics server, if it was started.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
