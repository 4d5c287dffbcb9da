// ===============================
// FILE: internal/handlers/api/v1/profile/profile_controller.go
// ===============================

package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"didaur/internal/contextutils"
	"didaur/internal/response"
	"didaur/internal/services"

	"go.uber.org/zap"
)

// ProfileController handles profile API endpoints for the authenticated account
type ProfileController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewProfileController creates a new profile controller
func NewProfileController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *ProfileController {
	return &ProfileController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// GetProfile returns the authenticated profile - GET /api/v1/profile
func (c *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	profile, err := c.serviceCollection.AuthService.GetProfile(ctx, email)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, profile)
}

// UpdateProfile updates name and avatar - PUT /api/v1/profile
func (c *ProfileController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "update_profile")

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	var req services.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid request body", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid request body", err))
		return
	}

	profile, err := c.serviceCollection.AuthService.UpdateProfile(ctx, email, &req)
	if err != nil {
		logger.Warn("Profile update failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("Profile updated", zap.String("email", email))

	c.responseBuilder.WriteSuccess(w, r, profile)
}

// SetTheme toggles the dark mode preference - PUT /api/v1/profile/theme
func (c *ProfileController) SetTheme(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "set_theme")

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	var req struct {
		DarkMode bool `json:"darkMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid request body", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid request body", err))
		return
	}

	if err := c.serviceCollection.AuthService.SetDarkMode(ctx, email, req.DarkMode); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{
		"darkMode": req.DarkMode,
	})
}

func (c *ProfileController) endpointLogger(r *http.Request, endpoint string) *zap.Logger {
	return c.logger.With(
		zap.String("request_id", contextutils.GetRequestID(r.Context())),
		zap.String("endpoint", endpoint),
	)
}
