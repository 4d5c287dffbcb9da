// ===============================
// FILE: internal/services/leaderboard_service.go
// ===============================

package services

import (
	"context"
	"encoding/json"
	"time"

	"didaur/internal/cache"
	"didaur/internal/models"
	"didaur/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// Showcase rows shown alongside the viewer. Ids are stable so the
// client can key on them.
var showcaseEntries = []models.LeaderboardEntry{
	{ID: "l1", Name: "Andi Green", Points: 8450, AvatarURL: "https://picsum.photos/seed/1/100/100"},
	{ID: "l2", Name: "Rina Eco", Points: 7200, AvatarURL: "https://picsum.photos/seed/2/100/100"},
	{ID: "l3", Name: "Zaki Waste", Points: 5100, AvatarURL: "https://picsum.photos/seed/3/100/100"},
}

// leaderboardService implements LeaderboardService
type leaderboardService struct {
	accountRepo repositories.AccountRepository
	cache       cache.Cache
	logger      *zap.Logger
	ttl         time.Duration
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(
	accountRepo repositories.AccountRepository,
	cache cache.Cache,
	logger *zap.Logger,
) LeaderboardService {
	return &leaderboardService{
		accountRepo: accountRepo,
		cache:       cache,
		logger:      logger,
		ttl:         time.Minute,
	}
}

// Standings returns the showcase rows plus the viewer, sorted by
// points descending with 1-based positional ranks. The sort is stable so
// ties keep their insertion order, viewer last.
func (s *leaderboardService) Standings(ctx context.Context, email string) ([]models.LeaderboardEntry, error) {
	cacheKey := "leaderboard:" + email
	if cached, found := s.cache.Get(ctx, cacheKey); found {
		if entries, ok := decodeStandings(cached); ok {
			return entries, nil
		}
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to load account")
	}
	if account == nil {
		return nil, EntityNotFoundError("account", email)
	}

	entries := make([]models.LeaderboardEntry, len(showcaseEntries), len(showcaseEntries)+1)
	copy(entries, showcaseEntries)
	entries = append(entries, models.LeaderboardEntry{
		ID:        account.ID,
		Name:      account.Name,
		Points:    account.Points,
		AvatarURL: account.AvatarURL,
	})

	slices.SortStableFunc(entries, func(a, b models.LeaderboardEntry) int {
		switch {
		case a.Points > b.Points:
			return -1
		case a.Points < b.Points:
			return 1
		default:
			return 0
		}
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if err := s.cache.Set(ctx, cacheKey, entries, s.ttl); err != nil {
		s.logger.Warn("Failed to cache leaderboard", zap.Error(err))
	}

	return entries, nil
}

// decodeStandings recovers entries from the cache, which may hand
// back either the original slice or JSON-decoded generic values.
func decodeStandings(cached interface{}) ([]models.LeaderboardEntry, bool) {
	if entries, ok := cached.([]models.LeaderboardEntry); ok {
		return entries, true
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		return nil, false
	}
	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries, true
}
