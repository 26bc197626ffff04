// Package logger provides structured logging functionality
// using the Uber zap logging library. It supports log levels and an HTTP request logging middleware.
package logger

import (
	"errors"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Log is a global SugaredLogger instance from the zap logging library.
// It provides a structured and leveled logging API with a simpler interface
// for common use cases like formatted output and key-value logging.
// Log is a no-op until initialized via Init().
var Log = zap.NewNop().Sugar()

type responseDetails struct {
	status int
	size   int
}

type loggingResponseWriter struct {
	http.ResponseWriter
	responseDetails *responseDetails
}

// Write captures the size of the response body.
// A handler that writes without calling WriteHeader responds with 200.
func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	if w.responseDetails.status == 0 {
		w.responseDetails.status = http.StatusOK
	}

	size, err := w.ResponseWriter.Write(b)
	w.responseDetails.size += size

	return size, err
}

// WriteHeader records the HTTP status code before passing it to the underlying writer.
func (w *loggingResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.responseDetails.status = statusCode
}

// Init initializes the global logger configuration.
// It sets the output destination and global log level.
func Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl.Sugar()

	return nil
}

// Sync flushes any buffered log entries to the output.
// It should be called when shutting down to ensure all logs are written.
func Sync() error {
	if err := Log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}

	return nil
}

// WithLoggingHTTPMiddleware wraps an http.Handler with structured request logging.
// It logs the method, URI, response status, duration and response size of every request.
func WithLoggingHTTPMiddleware(h http.Handler) http.Handler {
	logFn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		details := &responseDetails{}
		lw := loggingResponseWriter{
			ResponseWriter:  w,
			responseDetails: details,
		}
		h.ServeHTTP(&lw, r)

		duration := time.Since(start)

		Log.Infoln(
			"uri", r.RequestURI,
			"method", r.Method,
			"status", details.status,
			"duration", duration,
			"size", details.size,
		)
	}

	return http.HandlerFunc(logFn)
}
