// ===============================
// FILE: internal/handlers/api/v1/auth/auth_controller.go
// ===============================

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"didaur/internal/contextutils"
	"didaur/internal/response"
	"didaur/internal/services"

	"go.uber.org/zap"
)

// SessionCookieName is the cookie used as fallback transport for the session token
const SessionCookieName = "didaur_session"

// AuthController handles authentication API endpoints
type AuthController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewAuthController creates a new authentication controller
func NewAuthController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *AuthController {
	return &AuthController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// ===============================
// AUTHENTICATION ENDPOINTS
// ===============================

// Register handles account registration - POST /api/v1/auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "register")

	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid request body", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid request body", err))
		return
	}

	result, err := c.serviceCollection.AuthService.Register(ctx, &req)
	if err != nil {
		logger.Warn("Registration failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("Account registered",
		zap.String("email", result.Profile.Email),
	)

	c.setSessionCookie(w, r, result)
	c.responseBuilder.WriteCreated(w, r, result)
}

// Login handles authentication - POST /api/v1/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "login")

	var req services.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid request body", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid request body", err))
		return
	}

	result, err := c.serviceCollection.AuthService.Login(ctx, &req)
	if err != nil {
		logger.Warn("Login failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("Account logged in",
		zap.String("email", result.Profile.Email),
	)

	c.setSessionCookie(w, r, result)
	c.responseBuilder.WriteSuccess(w, r, result)
}

// Logout invalidates the current session - POST /api/v1/auth/logout
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "logout")

	token := extractBearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("missing session token"))
		return
	}

	if err := c.serviceCollection.AuthService.Logout(ctx, token); err != nil {
		logger.Warn("Logout failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	// Expire the session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})

	c.responseBuilder.WriteNoContent(w, r)
}

// ResetPassword replaces an account's password - POST /api/v1/auth/reset-password
func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "reset_password")

	var req services.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid request body", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid request body", err))
		return
	}

	if err := c.serviceCollection.AuthService.ResetPassword(ctx, &req); err != nil {
		logger.Warn("Password reset failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("Password reset completed", zap.String("email", req.Email))

	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{
		"message": "Password updated successfully",
	})
}

// ===============================
// HELPERS
// ===============================

// setSessionCookie mirrors the bearer token into a cookie for browser clients
func (c *AuthController) setSessionCookie(w http.ResponseWriter, r *http.Request, result *services.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    result.Token,
		Expires:  time.UnixMilli(result.ExpiresAt),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
		Path:     "/",
	})
}

func (c *AuthController) endpointLogger(r *http.Request, endpoint string) *zap.Logger {
	return c.logger.With(
		zap.String("request_id", contextutils.GetRequestID(r.Context())),
		zap.String("endpoint", endpoint),
	)
}

func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
