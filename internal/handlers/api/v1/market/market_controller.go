// ===============================
// FILE: internal/handlers/api/v1/market/market_controller.go
// ===============================

package market

import (
	"context"
	"net/http"
	"strings"
	"time"

	"didaur/internal/contextutils"
	"didaur/internal/response"
	"didaur/internal/services"

	"go.uber.org/zap"
)

// MarketController handles marketplace API endpoints
type MarketController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewMarketController creates a new marketplace controller
func NewMarketController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *MarketController {
	return &MarketController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// ListItems returns open listings newest-first - GET /api/v1/market
func (c *MarketController) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := c.serviceCollection.MarketService.Listings(ctx)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, items)
}

// Purchase buys a listing with points - POST /api/v1/market/{id}/purchase
func (c *MarketController) Purchase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "purchase")

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	itemID := extractIDFromPath(r.URL.Path, 3)
	if itemID == "" {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid item ID", nil))
		return
	}

	result, err := c.serviceCollection.MarketService.Purchase(ctx, email, itemID)
	if err != nil {
		logger.Warn("Purchase failed", zap.Error(err), zap.String("item_id", itemID))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("Purchase processed",
		zap.String("item_id", itemID),
		zap.Bool("success", result.Success),
	)

	// Failed purchases are a domain outcome, not an HTTP error:
	// the message explains why and the profile stays untouched
	c.responseBuilder.WriteSuccess(w, r, result)
}

func (c *MarketController) endpointLogger(r *http.Request, endpoint string) *zap.Logger {
	return c.logger.With(
		zap.String("request_id", contextutils.GetRequestID(r.Context())),
		zap.String("endpoint", endpoint),
	)
}

// extractIDFromPath extracts a path segment at the given position
func extractIDFromPath(path string, position int) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if position >= len(parts) {
		return ""
	}
	return parts[position]
}
