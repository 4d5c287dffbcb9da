// file: internal/repositories/account_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"didaur/internal/database"
	"didaur/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// accountRepository implements AccountRepository on postgres. The
// accounts table is the only persisted copy of profile state; there
// is deliberately no separate "current user" record to reconcile.
type accountRepository struct {
	*BaseRepository
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *database.Manager, logger *zap.Logger) AccountRepository {
	return &accountRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const accountColumns = `
	id, email, name, avatar_url, password_hash,
	points, items_scanned, plastic_items_scanned, comments_made,
	creations_shared, total_co2_saved, rank, badges, purchased_items,
	dark_mode, created_at, updated_at`

// Create inserts a new account. A duplicate email violates the
// unique constraint and surfaces as an error for the service layer
// to map to a conflict.
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (
			id, email, name, avatar_url, password_hash,
			points, items_scanned, plastic_items_scanned, comments_made,
			creations_shared, total_co2_saved, rank, badges, purchased_items,
			dark_mode
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		) RETURNING created_at, updated_at`

	err := r.QueryRowContext(
		ctx, query,
		account.ID, account.Email, account.Name, account.AvatarURL,
		account.PasswordHash, account.Points, account.ItemsScanned,
		account.PlasticItemsScanned, account.CommentsMade,
		account.CreationsShared, account.TotalCo2Saved, account.Rank,
		pq.Array([]string(account.Badges)), account.PurchasedItems,
		account.DarkMode,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		r.GetLogger().Error("Failed to create account",
			zap.Error(err),
			zap.String("email", account.Email),
		)
		return fmt.Errorf("failed to create account: %w", err)
	}

	r.GetLogger().Info("Account created successfully",
		zap.String("account_id", account.ID),
		zap.String("email", account.Email),
	)

	return nil
}

// GetByEmail retrieves an account by email. Returns (nil, nil) when
// the email is unknown.
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(r.QueryRowContext(ctx, query, email))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// UpdatePassword replaces the stored secret for an account.
func (r *accountRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = CURRENT_TIMESTAMP
		WHERE email = $1`

	result, err := r.ExecContext(ctx, query, email, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check password update: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	r.GetLogger().Info("Password updated", zap.String("email", email))
	return nil
}

// UpdateInfo updates the mutable display fields of an account.
func (r *accountRepository) UpdateInfo(ctx context.Context, email, name, avatarURL string) error {
	query := `
		UPDATE accounts
		SET name = $2, avatar_url = $3, updated_at = CURRENT_TIMESTAMP
		WHERE email = $1`

	result, err := r.ExecContext(ctx, query, email, name, avatarURL)
	if err != nil {
		return fmt.Errorf("failed to update account info: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetDarkMode stores the theme preference.
func (r *accountRepository) SetDarkMode(ctx context.Context, email string, dark bool) error {
	query := `
		UPDATE accounts
		SET dark_mode = $2, updated_at = CURRENT_TIMESTAMP
		WHERE email = $1`

	result, err := r.ExecContext(ctx, query, email, dark)
	if err != nil {
		return fmt.Errorf("failed to set theme preference: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateProfileTx is the ledger write path. It locks the account row
// with FOR UPDATE, applies mutate to the loaded snapshot and persists
// every ledger field in the same transaction. The row lock serializes
// concurrent mutations of the same profile.
func (r *accountRepository) UpdateProfileTx(ctx context.Context, email string, mutate func(*models.Account) error) (*models.Account, error) {
	var account *models.Account

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 FOR UPDATE`

		var err error
		account, err = scanAccount(tx.QueryRowContext(ctx, query, email))
		if err != nil {
			return err
		}

		if err := mutate(account); err != nil {
			return err
		}

		return persistProfile(ctx, tx, account)
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// persistProfile writes the mutable ledger fields of an account row.
// Shared with the marketplace purchase transaction.
func persistProfile(ctx context.Context, tx *sql.Tx, account *models.Account) error {
	query := `
		UPDATE accounts SET
			name = $2, avatar_url = $3,
			points = $4, items_scanned = $5, plastic_items_scanned = $6,
			comments_made = $7, creations_shared = $8, total_co2_saved = $9,
			rank = $10, badges = $11, purchased_items = $12,
			updated_at = CURRENT_TIMESTAMP
		WHERE email = $1`

	_, err := tx.ExecContext(
		ctx, query,
		account.Email, account.Name, account.AvatarURL,
		account.Points, account.ItemsScanned, account.PlasticItemsScanned,
		account.CommentsMade, account.CreationsShared, account.TotalCo2Saved,
		account.Rank, pq.Array([]string(account.Badges)), account.PurchasedItems,
	)
	if err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAccount reads a full account row in accountColumns order.
func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var badges pq.StringArray

	err := row.Scan(
		&account.ID, &account.Email, &account.Name, &account.AvatarURL,
		&account.PasswordHash, &account.Points, &account.ItemsScanned,
		&account.PlasticItemsScanned, &account.CommentsMade,
		&account.CreationsShared, &account.TotalCo2Saved, &account.Rank,
		&badges, &account.PurchasedItems, &account.DarkMode,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Badges = badges
	return &account, nil
}
