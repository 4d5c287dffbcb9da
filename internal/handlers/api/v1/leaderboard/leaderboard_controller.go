// ===============================
// FILE: internal/handlers/api/v1/leaderboard/leaderboard_controller.go
// ===============================

package leaderboard

import (
	"context"
	"net/http"
	"time"

	"didaur/internal/contextutils"
	"didaur/internal/response"
	"didaur/internal/services"
)

// LeaderboardController handles the standings API endpoint
type LeaderboardController struct {
	serviceCollection *services.ServiceCollection
	responseBuilder   *response.Builder
}

// NewLeaderboardController creates a new leaderboard controller
func NewLeaderboardController(
	serviceCollection *services.ServiceCollection,
	responseBuilder *response.Builder,
) *LeaderboardController {
	return &LeaderboardController{
		serviceCollection: serviceCollection,
		responseBuilder:   responseBuilder,
	}
}

// GetStandings returns the ranked standings including the viewer - GET /api/v1/leaderboard
func (c *LeaderboardController) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	standings, err := c.serviceCollection.LeaderboardService.Standings(ctx, email)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, standings)
}
