package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"didaur/internal/database"
	"didaur/internal/models"

	"go.uber.org/zap"
)

// marketRepository implements MarketRepository on postgres.
type marketRepository struct {
	*BaseRepository
}

// NewMarketRepository creates a new marketplace repository.
func NewMarketRepository(db *database.Manager, logger *zap.Logger) MarketRepository {
	return &marketRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const marketColumns = `id, seller_name, seller_avatar, title, description, price,
	image_url, material_tag, created_ms`

// Create inserts a marketplace listing.
func (r *marketRepository) Create(ctx context.Context, item *models.MarketplaceItem) error {
	query := `
		INSERT INTO market_items (
			id, seller_name, seller_avatar, title, description, price,
			image_url, material_tag, created_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.ExecContext(
		ctx, query,
		item.ID, item.SellerName, item.SellerAvatar, item.Title,
		item.Description, item.Price, item.ImageURL, item.MaterialTag,
		item.Timestamp,
	)
	if err != nil {
		r.GetLogger().Error("Failed to create market listing",
			zap.Error(err),
			zap.String("item_id", item.ID),
			zap.String("seller_name", item.SellerName),
		)
		return fmt.Errorf("failed to create market listing: %w", err)
	}

	return nil
}

// GetByID retrieves a listing, returning (nil, nil) when it is gone.
func (r *marketRepository) GetByID(ctx context.Context, id string) (*models.MarketplaceItem, error) {
	query := `SELECT ` + marketColumns + ` FROM market_items WHERE id = $1`

	var item models.MarketplaceItem
	if err := scanMarketItem(r.QueryRowContext(ctx, query, id), &item); err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get market listing: %w", err)
	}
	return &item, nil
}

// List returns all active listings, newest first.
func (r *marketRepository) List(ctx context.Context) ([]models.MarketplaceItem, error) {
	query := `SELECT ` + marketColumns + ` FROM market_items ORDER BY created_ms DESC`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list market items: %w", err)
	}
	defer rows.Close()

	var items []models.MarketplaceItem
	for rows.Next() {
		var item models.MarketplaceItem
		if err := scanMarketItem(rows, &item); err != nil {
			return nil, fmt.Errorf("failed to scan market item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate market items: %w", err)
	}

	return items, nil
}

// PurchaseTx runs a purchase as one transaction: it locks the listing
// and the buyer's account row, hands both to mutate, then persists the
// buyer's profile and removes the listing. Either every effect lands
// or none does. Returns sql.ErrNoRows when the listing or the buyer
// no longer exists.
func (r *marketRepository) PurchaseTx(ctx context.Context, itemID, buyerEmail string, mutate func(*models.Account, *models.MarketplaceItem) error) (*models.Account, error) {
	var account *models.Account

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		itemQuery := `SELECT ` + marketColumns + ` FROM market_items WHERE id = $1 FOR UPDATE`
		var item models.MarketplaceItem
		if err := scanMarketItem(tx.QueryRowContext(ctx, itemQuery, itemID), &item); err != nil {
			return err
		}

		accountQuery := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 FOR UPDATE`
		var err error
		account, err = scanAccount(tx.QueryRowContext(ctx, accountQuery, buyerEmail))
		if err != nil {
			return err
		}

		if err := mutate(account, &item); err != nil {
			return err
		}

		if err := persistProfile(ctx, tx, account); err != nil {
			return err
		}

		remove := `DELETE FROM market_items WHERE id = $1`
		if _, err := tx.ExecContext(ctx, remove, itemID); err != nil {
			return fmt.Errorf("failed to remove purchased listing: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.GetLogger().Info("Purchase completed",
		zap.String("item_id", itemID),
		zap.String("buyer_email", buyerEmail),
	)
	return account, nil
}

func scanMarketItem(row rowScanner, item *models.MarketplaceItem) error {
	return row.Scan(
		&item.ID, &item.SellerName, &item.SellerAvatar, &item.Title,
		&item.Description, &item.Price, &item.ImageURL, &item.MaterialTag,
		&item.Timestamp,
	)
}
