// file: internal/middleware/structured_logger.go
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LoggingConfig holds configuration for structured logging middleware
type LoggingConfig struct {
	// Performance monitoring
	SlowRequestThreshold time.Duration `json:"slow_request_threshold"`
	VerySlowThreshold    time.Duration `json:"very_slow_threshold"`

	LogUserAgent bool `json:"log_user_agent"`
}

// DefaultLoggingConfig returns production-ready logging configuration
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SlowRequestThreshold: 1 * time.Second,
		VerySlowThreshold:    5 * time.Second,
		LogUserAgent:         true,
	}
}

// StructuredLogging creates structured request/response logging middleware
func StructuredLogging(logger *zap.Logger, config *LoggingConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := GetRequestStart(r.Context())
			requestLogger := GetRequestLogger(r.Context())

			writer := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

			fields := []zap.Field{
				zap.String("query", r.URL.RawQuery),
				zap.Int64("content_length", r.ContentLength),
			}
			if config.LogUserAgent {
				fields = append(fields, zap.String("user_agent", r.UserAgent()))
			}
			requestLogger.Info("Request started", fields...)

			next.ServeHTTP(writer, r)

			duration := time.Since(start)
			completedFields := []zap.Field{
				zap.Int("status", writer.status),
				zap.Int64("bytes_written", writer.bytesWritten),
				zap.Duration("duration", duration),
			}

			switch {
			case writer.status >= http.StatusInternalServerError:
				requestLogger.Error("Request completed", completedFields...)
			case writer.status >= http.StatusBadRequest:
				requestLogger.Warn("Request completed", completedFields...)
			default:
				requestLogger.Info("Request completed", completedFields...)
			}

			// Performance warnings
			if duration > config.VerySlowThreshold {
				requestLogger.Error("Very slow request detected",
					zap.Duration("duration", duration),
					zap.Duration("threshold", config.VerySlowThreshold),
				)
			} else if duration > config.SlowRequestThreshold {
				requestLogger.Warn("Slow request detected",
					zap.Duration("duration", duration),
					zap.Duration("threshold", config.SlowRequestThreshold),
				)
			}
		})
	}
}

// ===============================
// STATUS RESPONSE WRITER
// ===============================

// statusResponseWriter captures response status and size for logging
type statusResponseWriter struct {
	http.ResponseWriter
	status       int
	bytesWritten int64
	wroteHeader  bool
}

func (w *statusResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(data)
	w.bytesWritten += int64(n)
	return n, err
}
