package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const DefaultShutdownTimeout = 5 * time.Second

// ListenAndServeCtx will call [http.Server.ListenAndServe] and respond to context cancellation to shut down the server.
// An optional shutdownTimeout may be passed to override [DefaultShutdownTimeout].
func ListenAndServeCtx(ctx context.Context, srv *http.Server, shutdownTimeout ...time.Duration) error {
	return listenCtx(ctx, srv.ListenAndServe, srv.Shutdown, shutdownTimeout...)
}

// ServeCtx is the same as [ListenAndServeCtx] for an already bound listener.
func ServeCtx(ctx context.Context, srv *http.Server, l net.Listener, shutdownTimeout ...time.Duration) error {
	return listenCtx(ctx, func() error {
		return srv.Serve(l)
	}, srv.Shutdown, shutdownTimeout...)
}

func listenCtx(ctx context.Context, serveFn func() error, shutdownFn func(context.Context) error, shutdownTimeout ...time.Duration) error {
	srvErrs := make(chan error, 1)
	go func() {
		defer close(srvErrs)
		if err := serveFn(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrs <- err
		}
	}()

	select {
	case err, more := <-srvErrs:
		if !more {
			return nil
		}
		return err
	case <-ctx.Done():
		timeout := DefaultShutdownTimeout
		if len(shutdownTimeout) > 0 {
			timeout = shutdownTimeout[0]
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return shutdownFn(shutdownCtx)
	}
}
