// file: internal/models/models.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ===============================
// CORE ENTITIES
// ===============================

// UserProfile represents the public, gamified profile of a user.
// The rank and badge fields are derived state: they are only ever
// mutated by the ledger rules, never written directly by handlers.
type UserProfile struct {
	ID        string `json:"id" db:"id"`
	Email     string `json:"email" db:"email" validate:"required,email,max=320"`
	Name      string `json:"name" db:"name" validate:"required,max=100"`
	AvatarURL string `json:"avatar" db:"avatar_url"`

	// Ledger state
	Points              int64 `json:"points" db:"points"`
	ItemsScanned        int   `json:"itemsScanned" db:"items_scanned"`
	PlasticItemsScanned int   `json:"plasticItemsScanned" db:"plastic_items_scanned"`
	CommentsMade        int   `json:"commentsMade" db:"comments_made"`
	CreationsShared     int   `json:"creationsShared" db:"creations_shared"`
	TotalCo2Saved       int64 `json:"totalCo2Saved" db:"total_co2_saved"`

	// Derived state (monotonic)
	Rank   string         `json:"rank" db:"rank"`
	Badges pq.StringArray `json:"badges" db:"badges"`

	// Purchase history (append-only)
	PurchasedItems PurchaseList `json:"purchasedItems" db:"purchased_items"`

	// Preferences
	DarkMode bool `json:"darkMode" db:"dark_mode"`

	// Timestamps
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasBadge reports whether the profile already holds the given badge.
func (p *UserProfile) HasBadge(id string) bool {
	for _, b := range p.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// AwardBadge adds a badge id if absent. Badges are never removed.
func (p *UserProfile) AwardBadge(id string) bool {
	if p.HasBadge(id) {
		return false
	}
	p.Badges = append(p.Badges, id)
	return true
}

// Account is the persisted credential record. It embeds the profile:
// the accounts table is the single source of truth for profile state,
// and the "session profile" is always derived from it with the secret
// stripped (see Profile).
type Account struct {
	UserProfile
	PasswordHash string `json:"-" db:"password_hash"`
}

// Profile returns the password-stripped profile copy handed to
// session and UI code. The secret never leaves the account store.
func (a *Account) Profile() *UserProfile {
	p := a.UserProfile
	p.Badges = append(pq.StringArray(nil), a.Badges...)
	p.PurchasedItems = append(PurchaseList(nil), a.PurchasedItems...)
	return &p
}

// Session maps an opaque token to an account. Sessions expire; the
// auth middleware treats an expired row the same as a missing one.
type Session struct {
	Token     string    `json:"session_token" db:"token"`
	Email     string    `json:"email" db:"email"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ===============================
// COMMUNITY
// ===============================

// CommunityPost represents a shared creation in the community feed.
// Timestamps are unix milliseconds to match the client contract.
type CommunityPost struct {
	ID           string `json:"id" db:"id"`
	UserName     string `json:"userName" db:"user_name"`
	UserAvatar   string `json:"userAvatar" db:"user_avatar"`
	ItemName     string `json:"itemName" db:"item_name" validate:"required,max=255"`
	Description  string `json:"description" db:"description" validate:"max=5000"`
	ImageURL     string `json:"imageUrl" db:"image_url"`
	Likes        int    `json:"likes" db:"likes"`
	Comments     int    `json:"comments" db:"comments"`
	Timestamp    int64  `json:"timestamp" db:"created_ms"`
	PointsEarned int64  `json:"pointsEarned" db:"points_earned"`
	MaterialTag  string `json:"materialTag" db:"material_tag" validate:"max=100"`
	IsForSale    bool   `json:"isForSale,omitempty" db:"is_for_sale"`
	Price        int64  `json:"price,omitempty" db:"price" validate:"omitempty,gt=0"`
}

// Comment is a child record of a community post.
type Comment struct {
	ID        string `json:"id" db:"id"`
	PostID    string `json:"postId" db:"post_id"`
	Author    string `json:"author" db:"author"`
	AvatarURL string `json:"avatar" db:"avatar_url"`
	Text      string `json:"text" db:"body" validate:"required,max=2000"`
	Timestamp int64  `json:"timestamp" db:"created_ms"`
}

// ===============================
// MARKETPLACE
// ===============================

// MarketplaceItem is a purchasable listing derived from a for-sale
// post. It shares the originating post's id; deletion of the row is
// the ownership-transfer point and happens exactly once, inside the
// purchase transaction.
type MarketplaceItem struct {
	ID           string `json:"id" db:"id"`
	SellerName   string `json:"sellerName" db:"seller_name"`
	SellerAvatar string `json:"sellerAvatar" db:"seller_avatar"`
	Title        string `json:"title" db:"title"`
	Description  string `json:"description" db:"description"`
	Price        int64  `json:"price" db:"price"`
	ImageURL     string `json:"imageUrl" db:"image_url"`
	MaterialTag  string `json:"materialTag" db:"material_tag"`
	Timestamp    int64  `json:"timestamp" db:"created_ms"`
}

// PurchaseRecord is an append-only entry in a buyer's history.
type PurchaseRecord struct {
	ItemID       string `json:"id"`
	Title        string `json:"title"`
	Price        int64  `json:"price"`
	ImageURL     string `json:"imageUrl"`
	PurchaseDate int64  `json:"purchaseDate"`
}

// PurchaseList stores the purchase history as a JSONB column.
type PurchaseList []PurchaseRecord

// Value implements driver.Valuer for JSONB storage.
func (l PurchaseList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshaling purchase list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB storage.
func (l *PurchaseList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PurchaseList", src)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// ===============================
// SCAN HISTORY
// ===============================

// AnalysisResult is the opaque payload produced by the external AI
// analysis collaborator. The store only reads EstimatedPoints,
// Co2Impact and MaterialType; the idea list is carried verbatim.
type AnalysisResult struct {
	ItemName        string          `json:"itemName" validate:"required,max=255"`
	MaterialType    string          `json:"materialType" validate:"required,max=100"`
	Difficulty      string          `json:"difficulty" validate:"omitempty,max=50"`
	EstimatedPoints int64           `json:"estimatedPoints" validate:"gte=0"`
	Co2Impact       int64           `json:"co2Impact" validate:"gte=0"`
	Ideas           json.RawMessage `json:"diyIdeas,omitempty"`
}

// ScanRecord is a stored analysis result. The per-user log is capped
// at ScanHistoryLimit entries, most recent first.
type ScanRecord struct {
	ID        string `json:"id" db:"id"`
	Email     string `json:"-" db:"email"`
	Timestamp int64  `json:"timestamp" db:"created_ms"`
	AnalysisResult
}

// ScanHistoryLimit is the maximum number of retained scan records per
// user; the oldest entries past the cap are dropped on insert.
const ScanHistoryLimit = 20

// ===============================
// LEADERBOARD
// ===============================

// LeaderboardEntry is a derived row, never persisted. Rank is 1-based
// and assigned by descending points at read time.
type LeaderboardEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Points    int64  `json:"points"`
	AvatarURL string `json:"avatar"`
	Rank      int    `json:"rank"`
}
