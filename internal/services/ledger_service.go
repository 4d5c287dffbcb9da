// ===============================
// FILE: internal/services/ledger_service.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"didaur/internal/cache"
	"didaur/internal/models"
	"didaur/internal/repositories"
	"didaur/internal/validation"

	"go.uber.org/zap"
)

// Activity point awards. Scan points are flat regardless of the
// analysis estimate; the estimate is display-only.
const (
	ScanPoints  int64 = 50
	SharePoints int64 = 100
)

// ledgerService implements LedgerService. All gamification state
// moves through ApplyDelta so counters, points, rank and badges can
// never drift apart.
type ledgerService struct {
	accountRepo repositories.AccountRepository
	cache       cache.Cache
	logger      *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	accountRepo repositories.AccountRepository,
	cache cache.Cache,
	logger *zap.Logger,
) LedgerService {
	return &ledgerService{
		accountRepo: accountRepo,
		cache:       cache,
		logger:      logger,
	}
}

// ApplyDelta applies one activity's contribution to a profile inside
// the account row's critical section: bump the activity counters, add
// the points, raise the rank when a threshold is crossed and award
// any badge whose criteria now hold.
func (s *ledgerService) ApplyDelta(ctx context.Context, email string, delta *ProgressDelta) (*LedgerResult, error) {
	if err := validation.ValidateStruct(delta); err != nil {
		return nil, NewValidationError("invalid progress delta", err)
	}

	var newBadges []string

	account, err := s.accountRepo.UpdateProfileTx(ctx, email, func(account *models.Account) error {
		applyCounters(&account.UserProfile, delta)

		account.Points += delta.Points
		account.TotalCo2Saved += delta.Co2

		// Rank only ever moves up; below the first threshold it
		// keeps its current value.
		if rank := models.RankForPoints(account.Points); rank != "" {
			account.Rank = rank
		}

		newBadges = models.EvaluateBadges(&account.UserProfile)
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, EntityNotFoundError("account", email)
		}
		s.logger.Error("Failed to apply progress delta",
			zap.String("email", email),
			zap.String("kind", string(delta.Kind)),
			zap.Error(err),
		)
		return nil, NewInternalError("failed to apply progress delta")
	}

	invalidateProfileCaches(ctx, s.cache, s.logger, email)

	if len(newBadges) > 0 {
		s.logger.Info("Badges awarded",
			zap.String("email", email),
			zap.Strings("badges", newBadges),
		)
	}

	return &LedgerResult{
		Profile:   account.Profile(),
		NewBadges: newBadges,
	}, nil
}

// applyCounters bumps the per-activity counters on the profile.
func applyCounters(p *models.UserProfile, delta *ProgressDelta) {
	switch delta.Kind {
	case DeltaScan:
		p.ItemsScanned++
		if strings.Contains(strings.ToLower(delta.MaterialType), "plastik") {
			p.PlasticItemsScanned++
		}
	case DeltaShare:
		p.CreationsShared++
	case DeltaComment:
		p.CommentsMade++
	}
}

// invalidateProfileCaches drops cached views that embed profile
// state. Shared by every service that mutates the account row.
func invalidateProfileCaches(ctx context.Context, c cache.Cache, logger *zap.Logger, email string) {
	if err := c.Delete(ctx, profileCacheKey(email)); err != nil {
		logger.Warn("Failed to invalidate profile cache",
			zap.String("email", email),
			zap.Error(err),
		)
	}
	if err := c.DeletePattern(ctx, "leaderboard:*"); err != nil {
		logger.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
	}
}

// profileCacheKey is shared by every service that caches profiles.
func profileCacheKey(email string) string {
	return "profile:" + email
}
