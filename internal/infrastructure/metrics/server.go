package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/okmqtt/internal/bridges/llap"
)

// Server timeouts.
const (
	readHeaderTimeout       = 5 * time.Second
	gracefulShutdownTimeout = 5 * time.Second
)

// Handler returns the HTTP router:
//
//	GET /metrics  Prometheus exposition
//	GET /healthz  200 when the broker session is up, 503 otherwise
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", m.handleHealth)
	return r
}

func (m *Metrics) handleHealth(w http.ResponseWriter, _ *http.Request) {
	state := m.State()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if state != llap.StateConnected {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	fmt.Fprintln(w, state.String()) //nolint:errcheck // client went away
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	return m.serve(ctx, ln)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down metrics server: %w", err)
	}
	return nil
}
