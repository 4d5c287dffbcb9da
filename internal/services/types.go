package services

import (
	"didaur/internal/models"
)

// ===============================
// AUTH TYPES
// ===============================

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest is the payload for credential login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordRequest replaces a forgotten password by email
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=128"`
}

// UpdateProfileRequest carries the mutable display fields
type UpdateProfileRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	AvatarURL string `json:"avatar" validate:"omitempty,url,max=500"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	Token     string              `json:"token"`
	ExpiresAt int64               `json:"expiresAt"`
	Profile   *models.UserProfile `json:"profile"`
}

// ===============================
// LEDGER TYPES
// ===============================

// DeltaKind names the activity that produced a progress delta
type DeltaKind string

const (
	DeltaScan    DeltaKind = "scan"
	DeltaShare   DeltaKind = "share"
	DeltaComment DeltaKind = "comment"
)

// ProgressDelta is one activity's contribution to the ledger
type ProgressDelta struct {
	Kind         DeltaKind `json:"kind" validate:"required,oneof=scan share comment"`
	Points       int64     `json:"points" validate:"gte=0"`
	Co2          int64     `json:"co2" validate:"gte=0"`
	MaterialType string    `json:"materialType"`
}

// LedgerResult carries the profile after a delta was applied
type LedgerResult struct {
	Profile   *models.UserProfile `json:"profile"`
	NewBadges []string            `json:"newBadges,omitempty"`
}

// ===============================
// COMMUNITY TYPES
// ===============================

// CreatePostRequest is the payload for publishing a creation
type CreatePostRequest struct {
	ItemName    string `json:"itemName" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,max=500"`
	MaterialTag string `json:"materialTag" validate:"max=100"`
	IsForSale   bool   `json:"isForSale"`
	Price       int64  `json:"price" validate:"omitempty,gt=0"`
}

// PublishResult bundles the created post with the updated profile
type PublishResult struct {
	Post      *models.CommunityPost `json:"post"`
	Profile   *models.UserProfile   `json:"profile"`
	NewBadges []string              `json:"newBadges,omitempty"`
}

// CommentRequest is the payload for commenting on a post
type CommentRequest struct {
	PostID string `json:"postId" validate:"required"`
	Text   string `json:"text" validate:"required,max=2000"`
}

// CommentResult bundles the created comment with the updated profile
type CommentResult struct {
	Comment   *models.Comment     `json:"comment"`
	Profile   *models.UserProfile `json:"profile"`
	NewBadges []string            `json:"newBadges,omitempty"`
}

// ===============================
// MARKET TYPES
// ===============================

// PurchaseResult reports the outcome of a purchase attempt. Message
// is user-facing and localized.
type PurchaseResult struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Profile *models.UserProfile `json:"profile,omitempty"`
}

// ===============================
// SCAN TYPES
// ===============================

// ScanResult bundles the stored record with the updated profile
type ScanResult struct {
	Record    *models.ScanRecord  `json:"record"`
	Profile   *models.UserProfile `json:"profile"`
	NewBadges []string            `json:"newBadges,omitempty"`
}
