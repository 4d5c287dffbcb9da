// file: internal/middleware/recovery.go
package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"didaur/internal/contextutils"

	"go.uber.org/zap"
)

// RecoveryConfig holds configuration for panic recovery middleware
type RecoveryConfig struct {
	EnableStackTrace   bool `json:"enable_stack_trace"`
	MaskInternalErrors bool `json:"mask_internal_errors"`
}

// DefaultRecoveryConfig returns production-ready recovery configuration
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		EnableStackTrace:   true,
		MaskInternalErrors: true,
	}
}

// Recovery creates panic recovery middleware that converts panics into JSON 500s
func Recovery(logger *zap.Logger, config *RecoveryConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultRecoveryConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					requestLogger := GetRequestLogger(r.Context())

					fields := []zap.Field{
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
					}
					if config.EnableStackTrace {
						fields = append(fields, zap.ByteString("stack", debug.Stack()))
					}
					requestLogger.Error("Panic recovered", fields...)

					writePanicResponse(w, r, config)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writePanicResponse writes a generic internal error response
func writePanicResponse(w http.ResponseWriter, r *http.Request, config *RecoveryConfig) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":    "INTERNAL_ERROR",
			"message": "An internal error occurred",
		},
		"request_id": contextutils.GetRequestID(r.Context()),
	})
}
