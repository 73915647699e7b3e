package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/discograf/discograf/log"
	"github.com/discograf/discograf/transport"
)

var _ transport.Server = (*Server)(nil)

const (
	defaultName = "http"
	defaultAddr = ":8080"
)

// Server wraps an http.Server as a transport.Server
type Server struct {
	name        string
	metricsPath string
	server      *http.Server
}

// Option configures the Server
type Option func(*Server)

// WithName sets the server name used in logs
func WithName(name string) Option {
	return func(s *Server) {
		s.name = name
	}
}

// WithMetrics exposes prometheus metrics on the given path
func WithMetrics(path string) Option {
	return func(s *Server) {
		s.metricsPath = path
	}
}

// NewServer creates an HTTP server for the given address and handler
func NewServer(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		name: defaultName,
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metricsPath != "" {
		if r, ok := handler.(*gin.Engine); ok {
			r.GET(s.metricsPath, gin.WrapH(promhttp.Handler()))
		}
	}

	return s
}

// Run implements transport.Server
func (s *Server) Run() error {
	if ok := transport.ValidateAddress(s.server.Addr); !ok {
		log.Warn().Msgf("invalid address %s, using default address: %s", s.server.Addr, defaultAddr)
		s.server.Addr = defaultAddr
	}
	log.Info().Msgf("%s server listening on %s", s.name, s.server.Addr)

	return s.server.ListenAndServe()
}

// Shutdown implements transport.Server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
