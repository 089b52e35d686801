package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Middleware is a function that wraps another [http.Handler] to inject logic before or after the handler is run.
type Middleware func(next http.Handler) http.Handler

// Wrap will wrap the given [http.Handler], such that all given [Middleware] will be executed in the order provided.
//
// If no middleware are provided, then the handler will be returned unchanged.
func Wrap(next http.Handler, middlewares ...Middleware) http.Handler {
	if next == nil {
		panic("nil handler")
	}
	// Wrapped in reverse order, so they're executed in parameter order.
	for i := len(middlewares) - 1; i >= 0; i-- {
		next = middlewares[i](next)
	}
	return next
}

type loggingWriter struct {
	http.ResponseWriter
	statusCode int
}

func (l *loggingWriter) WriteHeader(statusCode int) {
	l.ResponseWriter.WriteHeader(statusCode)
	l.statusCode = statusCode
}

// RequestLogger is a type that can log HTTP requests received by a server.
type RequestLogger interface {
	Log(statusCode int, method, path string, duration time.Duration)
}

type RequestLoggerFunc func(statusCode int, method, path string, dur time.Duration)

func (f RequestLoggerFunc) Log(statusCode int, method, path string, dur time.Duration) {
	f(statusCode, method, path, dur)
}

// SlogLogger returns a [RequestLogger] that logs to l at the provided level.
// Server errors are always logged at [slog.LevelError].
func SlogLogger(l *slog.Logger, level slog.Level) RequestLogger {
	return RequestLoggerFunc(func(statusCode int, method, path string, dur time.Duration) {
		lvl := level
		if statusCode >= http.StatusInternalServerError {
			lvl = slog.LevelError
		}
		l.Log(context.Background(), lvl, "Request", "statusCode", statusCode, "method", method, "path", path, "duration", dur)
	})
}

// LoggingMiddleware will log each request, including status code, method, path, and duration.
func LoggingMiddleware(logger RequestLogger) Middleware {
	if logger == nil {
		panic("nil logger")
	}
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("nil handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lw := &loggingWriter{w, http.StatusOK}
			start := time.Now()
			defer func() {
				logger.Log(lw.statusCode, r.Method, r.URL.Path, time.Since(start))
			}()
			next.ServeHTTP(lw, r)
		})
	}
}

const HeaderRequestID = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the ID assigned by [RequestIDMiddleware], or an empty string.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware assigns a random ID to each request, unless the client sent one.
// The ID is echoed in the response headers and available from [RequestID].
func RequestIDMiddleware(next http.Handler) http.Handler {
	if next == nil {
		panic("nil handler")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if len(id) == 0 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// PanicHandler is notified of a recovered panic, and may write a response.
type PanicHandler interface {
	Handle(w http.ResponseWriter, r *http.Request, recovered any)
}

type PanicHandlerFunc func(w http.ResponseWriter, r *http.Request, recovered any)

func (f PanicHandlerFunc) Handle(w http.ResponseWriter, r *http.Request, recovered any) {
	f(w, r, recovered)
}

// RecoveryMiddleware keeps a panicking handler from taking down the server.
func RecoveryMiddleware(handler PanicHandler) Middleware {
	if handler == nil {
		panic("nil panic handler")
	}
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("nil handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					handler.Handle(w, r, rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

const (
	HeaderCORSOrigin      = "Origin"
	HeaderCORSVary        = "Vary"
	HeaderCORSAllowOrigin = "Access-Control-Allow-Origin"
	HeaderCORSAllowMethod = "Access-Control-Allow-Methods"

	CORSAnyOrigin  = "*"
	CORSNullOrigin = "null"
)

// normalizeOrigin reduces an origin to scheme://host[:port], or returns false if it isn't a valid origin.
func normalizeOrigin(origin string) (string, bool) {
	if origin == CORSAnyOrigin {
		return origin, true
	}
	u, err := url.Parse(origin)
	if err != nil || len(u.Scheme) == 0 || len(u.Host) == 0 {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

// CORSMiddleware allows browser pages from the given origins to send GET requests, which is all this gateway needs.
// A null origin is never allowed. Without any valid origins, the middleware does nothing.
func CORSMiddleware(origins ...string) Middleware {
	var allowed []string
	for _, origin := range origins {
		if normalized, ok := normalizeOrigin(origin); ok {
			allowed = append(allowed, normalized)
		}
	}
	anyOrigin := slices.Contains(allowed, CORSAnyOrigin)
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("nil handler")
		}
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get(HeaderCORSOrigin)
			switch {
			case len(origin) == 0 || origin == CORSNullOrigin:
			case anyOrigin:
				w.Header().Set(HeaderCORSAllowOrigin, CORSAnyOrigin)
			case slices.Contains(allowed, origin):
				w.Header().Set(HeaderCORSAllowOrigin, origin)
				w.Header().Add(HeaderCORSVary, HeaderCORSOrigin)
			}
			if r.Method == http.MethodOptions {
				w.Header().Set(HeaderCORSAllowMethod, http.MethodGet)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
