// ===============================
// FILE: internal/handlers/api/v1/scans/scans_controller.go
// ===============================

package scans

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"didaur/internal/contextutils"
	"didaur/internal/models"
	"didaur/internal/response"
	"didaur/internal/services"

	"go.uber.org/zap"
)

// ScanController handles scan history API endpoints
type ScanController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewScanController creates a new scan history controller
func NewScanController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *ScanController {
	return &ScanController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// RecordScan stores an analysis result and credits the scanner - POST /api/v1/scans
func (c *ScanController) RecordScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "record_scan")

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	var analysis models.AnalysisResult
	if err := json.NewDecoder(r.Body).Decode(&analysis); err != nil {
		logger.Warn("Invalid request body", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid request body", err))
		return
	}

	result, err := c.serviceCollection.ScanService.Record(ctx, email, &analysis)
	if err != nil {
		logger.Warn("Scan recording failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("Scan recorded",
		zap.String("scan_id", result.Record.ID),
		zap.String("material_type", analysis.MaterialType),
	)

	c.responseBuilder.WriteCreated(w, r, result)
}

// GetHistory lists the scanner's recent scans newest-first - GET /api/v1/scans
func (c *ScanController) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	history, err := c.serviceCollection.ScanService.History(ctx, email)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, history)
}

// ClearHistory wipes the scanner's history - DELETE /api/v1/scans
func (c *ScanController) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "clear_history")

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	if err := c.serviceCollection.ScanService.Clear(ctx, email); err != nil {
		logger.Warn("History clear failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

func (c *ScanController) endpointLogger(r *http.Request, endpoint string) *zap.Logger {
	return c.logger.With(
		zap.String("request_id", contextutils.GetRequestID(r.Context())),
		zap.String("endpoint", endpoint),
	)
}
