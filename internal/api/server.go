package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Serve runs srv on ln until a value arrives on stop, then drains in-flight
// requests for up to grace. It returns only after Shutdown has finished, so
// callers can release the database afterwards.
func Serve(srv *http.Server, ln net.Listener, stop <-chan os.Signal, grace time.Duration, log *logrus.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := <-stop; !ok {
			return
		}

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("server shutdown")
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
