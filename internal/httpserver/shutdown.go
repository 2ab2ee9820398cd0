package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultShutdownTimeout bounds graceful shutdown when no timeout is configured.
const DefaultShutdownTimeout = 10 * time.Second

// Run serves on ln until ctx is canceled or the server fails, then drains
// in-flight requests for at most timeout.
func (s *Server) Run(ctx context.Context, ln net.Listener, timeout time.Duration, logger *slog.Logger) error {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- s.Serve(ln)
	}()

	select {
	case err := <-srvErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server", "timeout", timeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-srvErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
