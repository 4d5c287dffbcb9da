// ===============================
// FILE: internal/services/market_service.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"errors"

	"didaur/internal/cache"
	"didaur/internal/models"
	"didaur/internal/repositories"
	"didaur/internal/utils"

	"go.uber.org/zap"
)

// User-facing purchase outcomes, kept in the product language.
const (
	msgInsufficientPoints = "Poin (XP) tidak mencukupi untuk membeli karya ini."
	msgItemNotFound       = "Item tidak ditemukan."
	msgPurchaseSuccess    = "Pembelian berhasil! Karya ini kini milikmu."
)

// marketService implements MarketService
type marketService struct {
	marketRepo  repositories.MarketRepository
	accountRepo repositories.AccountRepository
	cache       cache.Cache
	logger      *zap.Logger
}

// NewMarketService creates a new marketplace service
func NewMarketService(
	marketRepo repositories.MarketRepository,
	accountRepo repositories.AccountRepository,
	cache cache.Cache,
	logger *zap.Logger,
) MarketService {
	return &marketService{
		marketRepo:  marketRepo,
		accountRepo: accountRepo,
		cache:       cache,
		logger:      logger,
	}
}

// Listings returns all active listings, newest first.
func (s *marketService) Listings(ctx context.Context) ([]models.MarketplaceItem, error) {
	items, err := s.marketRepo.List(ctx)
	if err != nil {
		return nil, NewInternalError("failed to load listings")
	}
	if items == nil {
		items = []models.MarketplaceItem{}
	}
	return items, nil
}

// Purchase transfers a listing to the buyer. The checks run in a
// fixed order (balance before existence) and the transfer itself is
// atomic: debit, history append, badge unlock and listing removal
// land together or not at all. A failed attempt changes nothing.
func (s *marketService) Purchase(ctx context.Context, email, itemID string) (*PurchaseResult, error) {
	buyer, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to load account")
	}
	if buyer == nil {
		return nil, EntityNotFoundError("account", email)
	}

	listing, err := s.marketRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, NewInternalError("failed to load listing")
	}

	// Balance is reported against the asking price first, even when
	// the listing has already been sold.
	if listing != nil && buyer.Points < listing.Price {
		return &PurchaseResult{Success: false, Message: msgInsufficientPoints}, nil
	}
	if listing == nil {
		return &PurchaseResult{Success: false, Message: msgItemNotFound}, nil
	}

	account, err := s.marketRepo.PurchaseTx(ctx, itemID, email, func(account *models.Account, item *models.MarketplaceItem) error {
		// Re-check under the row locks; the pre-checks raced.
		if account.Points < item.Price {
			return errInsufficientPoints
		}

		account.Points -= item.Price
		account.PurchasedItems = append(account.PurchasedItems, models.PurchaseRecord{
			ItemID:       item.ID,
			Title:        item.Title,
			Price:        item.Price,
			ImageURL:     item.ImageURL,
			PurchaseDate: utils.NowMillis(),
		})
		account.AwardBadge(models.BadgeFirstPurchase)
		return nil
	})
	if err != nil {
		if errors.Is(err, errInsufficientPoints) {
			return &PurchaseResult{Success: false, Message: msgInsufficientPoints}, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return &PurchaseResult{Success: false, Message: msgItemNotFound}, nil
		}
		s.logger.Error("Purchase failed",
			zap.String("item_id", itemID),
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, NewInternalError("failed to complete purchase")
	}

	invalidateProfileCaches(ctx, s.cache, s.logger, email)

	return &PurchaseResult{
		Success: true,
		Message: msgPurchaseSuccess,
		Profile: account.Profile(),
	}, nil
}

var errInsufficientPoints = errors.New("insufficient points")
