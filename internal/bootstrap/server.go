package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Domenick1991/airreserve/config"
	"github.com/sirupsen/logrus"
)

// Run serves handler on cfg.Address and blocks until ctx is canceled or the server fails.
// On cancellation in-flight requests get cfg.ShutdownTimeout() to finish.
func Run(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger *logrus.Logger) error {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.Address, err)
	}
	return serve(ctx, lis, cfg, handler, logger)
}

func serve(ctx context.Context, lis net.Listener, cfg config.HTTPConfig, handler http.Handler, logger *logrus.Logger) error {
	srv := &http.Server{Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", lis.Addr().String()).Info("http server listening")
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
