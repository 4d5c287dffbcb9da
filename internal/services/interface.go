package services

import (
	"context"

	"didaur/internal/models"
)

// AuthService owns accounts, credentials and sessions.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error

	// ValidateSession resolves a bearer token to the live account.
	ValidateSession(ctx context.Context, token string) (*models.Account, error)

	GetProfile(ctx context.Context, email string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, email string, req *UpdateProfileRequest) (*models.UserProfile, error)
	SetDarkMode(ctx context.Context, email string, dark bool) error
}

// LedgerService is the single write path for gamification state:
// points, counters, rank and badges move together or not at all.
type LedgerService interface {
	ApplyDelta(ctx context.Context, email string, delta *ProgressDelta) (*LedgerResult, error)
}

// CommunityService owns the feed: posts, likes and comments.
type CommunityService interface {
	Publish(ctx context.Context, email string, req *CreatePostRequest) (*PublishResult, error)
	Posts(ctx context.Context) ([]models.CommunityPost, error)
	Like(ctx context.Context, postID string) (*models.CommunityPost, error)
	Comment(ctx context.Context, email string, req *CommentRequest) (*CommentResult, error)
	CommentsFor(ctx context.Context, postID string) ([]models.Comment, error)
}

// MarketService owns listings and the purchase flow.
type MarketService interface {
	Listings(ctx context.Context) ([]models.MarketplaceItem, error)
	Purchase(ctx context.Context, email, itemID string) (*PurchaseResult, error)
}

// ScanService owns the capped scan history log.
type ScanService interface {
	Record(ctx context.Context, email string, analysis *models.AnalysisResult) (*ScanResult, error)
	History(ctx context.Context, email string) ([]models.ScanRecord, error)
	Clear(ctx context.Context, email string) error
}

// LeaderboardService assembles the ranked standings view.
type LeaderboardService interface {
	Standings(ctx context.Context, email string) ([]models.LeaderboardEntry, error)
}
