// ===============================
// FILE: internal/handlers/api/v1/uploads/uploads_controller.go
// ===============================

package uploads

import (
	"context"
	"errors"
	"net/http"
	"time"

	"didaur/internal/contextutils"
	"didaur/internal/response"
	"didaur/internal/services"
	"didaur/internal/utils"

	"go.uber.org/zap"
)

// maxUploadMemory bounds in-memory multipart parsing; larger parts spill to disk
const maxUploadMemory = 10 << 20

// UploadController handles image upload API endpoints
type UploadController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewUploadController creates a new upload controller
func NewUploadController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *UploadController {
	return &UploadController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// UploadImage stores an image and returns its URL - POST /api/v1/uploads
func (c *UploadController) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	logger := c.logger.With(
		zap.String("request_id", contextutils.GetRequestID(r.Context())),
		zap.String("endpoint", "upload_image"),
	)

	if c.serviceCollection.Uploader == nil {
		c.responseBuilder.WriteError(w, r, services.NewServiceUnavailableError("image uploads are not configured"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("Invalid multipart form", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid multipart form", err))
		return
	}

	_, header, err := r.FormFile("image")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Missing image file", err))
		return
	}

	result, err := c.serviceCollection.Uploader.Upload(ctx, header)
	if err != nil {
		logger.Warn("Image upload failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, c.convertUploadError(err))
		return
	}

	logger.Info("Image uploaded",
		zap.String("public_id", result.PublicID),
		zap.Int64("size", header.Size),
	)

	c.responseBuilder.WriteCreated(w, r, result)
}

// convertUploadError maps uploader failures onto the service error taxonomy
func (c *UploadController) convertUploadError(err error) error {
	switch {
	case errors.Is(err, utils.ErrFileTooLarge),
		errors.Is(err, utils.ErrInvalidContentType),
		errors.Is(err, utils.ErrInvalidExtension):
		return services.NewValidationError(err.Error(), err)
	case errors.Is(err, utils.ErrMissingCredentials):
		return services.NewServiceUnavailableError("image uploads are not configured")
	default:
		return services.NewInternalError("image upload failed")
	}
}
