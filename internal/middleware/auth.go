// file: internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"didaur/internal/contextutils"
	"didaur/internal/response"
	"didaur/internal/services"

	"go.uber.org/zap"
)

// AuthConfig holds authentication middleware configuration
type AuthConfig struct {
	// Cookie fallback for clients that cannot set headers
	SessionCookieName string `json:"session_cookie_name"`
	LogFailedAuth     bool   `json:"log_failed_auth"`
}

// DefaultAuthConfig returns production-ready authentication configuration
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		SessionCookieName: "didaur_session",
		LogFailedAuth:     true,
	}
}

// AuthMiddleware validates session tokens and injects the account into context
type AuthMiddleware struct {
	config      *AuthConfig
	authService services.AuthService
	builder     *response.Builder
	logger      *zap.Logger
}

// NewAuthMiddleware creates authentication middleware
func NewAuthMiddleware(authService services.AuthService, builder *response.Builder, logger *zap.Logger, config *AuthConfig) *AuthMiddleware {
	if config == nil {
		config = DefaultAuthConfig()
	}
	return &AuthMiddleware{
		config:      config,
		authService: authService,
		builder:     builder,
		logger:      logger,
	}
}

// RequireAuth rejects requests without a valid session token
func (am *AuthMiddleware) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := am.extractToken(r)
			if token == "" {
				am.unauthorized(w, r, "missing session token")
				return
			}

			account, err := am.authService.ValidateSession(r.Context(), token)
			if err != nil {
				if am.config.LogFailedAuth {
					GetRequestLogger(r.Context()).Warn("Authentication failed",
						zap.String("path", r.URL.Path),
						zap.Error(err),
					)
				}
				am.builder.WriteError(w, r, err)
				return
			}

			ctx := contextutils.WithAccount(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken pulls the session token from the Authorization header or cookie
func (am *AuthMiddleware) extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie(am.config.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}

func (am *AuthMiddleware) unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	am.builder.WriteError(w, r, services.NewUnauthorizedError(message))
}
