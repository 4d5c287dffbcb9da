// file: internal/repositories/interfaces.go
package repositories

import (
	"context"

	"didaur/internal/models"
)

// AccountRepository owns the accounts table, the single source of
// truth for credentials and profile state.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	UpdateInfo(ctx context.Context, email, name, avatarURL string) error
	SetDarkMode(ctx context.Context, email string, dark bool) error

	// UpdateProfileTx loads the account row under a row lock, applies
	// mutate, and persists the result in the same transaction. This is
	// the ledger's single-writer critical section.
	UpdateProfileTx(ctx context.Context, email string, mutate func(*models.Account) error) (*models.Account, error)
}

// SessionRepository maps opaque tokens to accounts.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// PostRepository owns the community feed. Posts are never deleted in
// the normal flow; likes and comment counts mutate in place.
type PostRepository interface {
	Create(ctx context.Context, post *models.CommunityPost) error
	GetByID(ctx context.Context, id string) (*models.CommunityPost, error)
	List(ctx context.Context) ([]models.CommunityPost, error)
	IncrementLikes(ctx context.Context, id string) error
}

// CommentRepository owns the per-post comment side-table. Create also
// bumps the parent post's comment counter in the same transaction.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
}

// MarketRepository owns the listings collection and the purchase
// transaction.
type MarketRepository interface {
	Create(ctx context.Context, item *models.MarketplaceItem) error
	GetByID(ctx context.Context, id string) (*models.MarketplaceItem, error)
	List(ctx context.Context) ([]models.MarketplaceItem, error)

	// PurchaseTx runs the ownership transfer as one transaction: it
	// locks the listing and the buyer's account row, applies mutate
	// (which performs the debit, history append and badge unlock),
	// persists the account and deletes the listing. Nothing is
	// persisted if mutate returns an error.
	PurchaseTx(ctx context.Context, itemID, buyerEmail string,
		mutate func(*models.Account, *models.MarketplaceItem) error) (*models.Account, error)
}

// ScanRepository owns the capped scan history log.
type ScanRepository interface {
	// Create inserts the record and trims the user's log to
	// models.ScanHistoryLimit entries, dropping the oldest rows, in
	// one transaction.
	Create(ctx context.Context, record *models.ScanRecord) error
	ListByEmail(ctx context.Context, email string) ([]models.ScanRecord, error)
	DeleteByEmail(ctx context.Context, email string) error
}
