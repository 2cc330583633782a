package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// serve runs app on server until ctx is done, then drains in-flight
// requests. echo's own Shutdown only knows e.Server, so the server passed
// to StartServer is shut down directly.
func serve(ctx context.Context, app *echo.Echo, server *http.Server, timeout time.Duration, logger logrus.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return <-errCh
}
