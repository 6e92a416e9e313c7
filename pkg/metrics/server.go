package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/0xmhha/runonchange/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 5 * time.Second

// Server serves /metrics and /healthz.
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   logger.Logger
	done     chan struct{}
}

// NewRouter returns the HTTP handler for m.
func NewRouter(m *Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	return r
}

// Listen binds addr and serves m in the background.
func Listen(addr string, m *Metrics, log logger.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &Server{
		srv: &http.Server{
			Handler:           NewRouter(m),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		listener: ln,
		logger:   log,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	log.Debug("metrics server listening", "addr", ln.Addr().String())
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the server and waits for the serve goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
