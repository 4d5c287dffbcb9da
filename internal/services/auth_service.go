// ===============================
// FILE: internal/services/auth_service.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"didaur/internal/cache"
	"didaur/internal/models"
	"didaur/internal/repositories"
	"didaur/internal/utils"
	"didaur/internal/validation"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// RegistrationPoints is the starting balance every new account gets.
const RegistrationPoints int64 = 1000

// authService implements AuthService
type authService struct {
	accountRepo repositories.AccountRepository
	sessionRepo repositories.SessionRepository
	cache       cache.Cache
	hasher      PasswordHasher
	logger      *zap.Logger
	config      *AuthServiceConfig
}

// AuthServiceConfig holds auth service configuration
type AuthServiceConfig struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	SessionExpiry time.Duration
	ProfileTTL    time.Duration
}

// DefaultAuthConfig returns default auth service configuration
func DefaultAuthConfig() *AuthServiceConfig {
	return &AuthServiceConfig{
		JWTExpiry:     24 * time.Hour,
		SessionExpiry: 7 * 24 * time.Hour,
		ProfileTTL:    5 * time.Minute,
	}
}

// NewAuthService creates a new auth service
func NewAuthService(
	accountRepo repositories.AccountRepository,
	sessionRepo repositories.SessionRepository,
	cache cache.Cache,
	hasher PasswordHasher,
	logger *zap.Logger,
	config *AuthServiceConfig,
) AuthService {
	if config == nil {
		config = DefaultAuthConfig()
	}
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}

	return &authService{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		cache:       cache,
		hasher:      hasher,
		logger:      logger,
		config:      config,
	}
}

// ===============================
// REGISTRATION & LOGIN
// ===============================

// Register creates a new account with the starting balance and rank,
// then opens a session. A taken email is a conflict.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid registration request", err)
	}

	email := normalizeEmail(req.Email)

	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to check existing account")
	}
	if existing != nil {
		return nil, EntityAlreadyExistsError("account", "email", email)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("Password hashing failed", zap.Error(err))
		return nil, NewInternalError("failed to process credentials")
	}

	account := &models.Account{
		UserProfile: models.UserProfile{
			ID:             utils.NewID(),
			Email:          email,
			Name:           strings.TrimSpace(req.Name),
			AvatarURL:      utils.AvatarURL(email),
			Points:         RegistrationPoints,
			Rank:           models.RankBeginner,
			Badges:         []string{},
			PurchasedItems: models.PurchaseList{},
		},
		PasswordHash: hash,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// The unique index is the authority under concurrent signups
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, EntityAlreadyExistsError("account", "email", email)
		}
		return nil, NewInternalError("failed to create account")
	}

	s.logger.Info("Account registered",
		zap.String("account_id", account.ID),
		zap.String("email", email),
	)

	return s.openSession(ctx, account)
}

// Login verifies credentials and opens a session. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid login request", err)
	}

	email := normalizeEmail(req.Email)

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to load account")
	}
	if account == nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}

	if err := s.hasher.Compare(account.PasswordHash, req.Password); err != nil {
		s.logger.Warn("Failed login attempt", zap.String("email", email))
		return nil, NewUnauthorizedError("invalid email or password")
	}

	return s.openSession(ctx, account)
}

// openSession mints a token and stores the session row.
func (s *authService) openSession(ctx context.Context, account *models.Account) (*AuthResult, error) {
	token, _, err := utils.GenerateToken(account.Email, s.config.JWTSecret, s.config.JWTExpiry)
	if err != nil {
		s.logger.Error("Token generation failed", zap.Error(err))
		return nil, NewInternalError("failed to create session token")
	}

	session := &models.Session{
		Token:     token,
		Email:     account.Email,
		ExpiresAt: time.Now().Add(s.config.SessionExpiry),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, NewInternalError("failed to create session")
	}

	return &AuthResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt.UnixMilli(),
		Profile:   account.Profile(),
	}, nil
}

// Logout tears down a session. Unknown tokens are a no-op.
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.sessionRepo.Delete(ctx, token); err != nil {
		return NewInternalError("failed to delete session")
	}
	_ = s.cache.Delete(ctx, sessionCacheKey(token))
	return nil
}

// ResetPassword replaces the secret for a known email.
func (s *authService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := validation.ValidateStruct(req); err != nil {
		return NewValidationError("invalid reset request", err)
	}

	email := normalizeEmail(req.Email)

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return NewInternalError("failed to process credentials")
	}

	if err := s.accountRepo.UpdatePassword(ctx, email, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EntityNotFoundError("account", email)
		}
		return NewInternalError("failed to reset password")
	}

	s.logger.Info("Password reset", zap.String("email", email))
	return nil
}

// ===============================
// SESSION RESOLUTION
// ===============================

// ValidateSession resolves a bearer token to the live account. The
// token must verify, the session row must exist and not be expired.
func (s *authService) ValidateSession(ctx context.Context, token string) (*models.Account, error) {
	claims, err := utils.ParseToken(token, s.config.JWTSecret)
	if err != nil {
		return nil, NewUnauthorizedError("invalid or expired token")
	}

	// Logout deletes the row, so the token alone is not enough
	session, err := s.lookupSession(ctx, token)
	if err != nil {
		return nil, NewInternalError("failed to load session")
	}
	if session == nil || session.IsExpired() {
		return nil, NewUnauthorizedError("session expired")
	}

	account, err := s.accountRepo.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, NewInternalError("failed to load account")
	}
	if account == nil {
		return nil, NewUnauthorizedError("account no longer exists")
	}

	return account, nil
}

// lookupSession resolves the session row cache-aside; logout deletes
// the cache entry alongside the row.
func (s *authService) lookupSession(ctx context.Context, token string) (*models.Session, error) {
	if cached, found := s.cache.Get(ctx, sessionCacheKey(token)); found {
		if session, ok := cached.(*models.Session); ok {
			return session, nil
		}
	}

	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil || session == nil {
		return session, err
	}

	if err := s.cache.Set(ctx, sessionCacheKey(token), session, s.config.ProfileTTL); err != nil {
		s.logger.Warn("Failed to cache session", zap.Error(err))
	}
	return session, nil
}

// ===============================
// PROFILE OPERATIONS
// ===============================

// GetProfile returns the secret-stripped profile, cache-aside.
func (s *authService) GetProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	if cached, found := s.cache.Get(ctx, profileCacheKey(email)); found {
		if profile, ok := cached.(*models.UserProfile); ok {
			return profile, nil
		}
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to load account")
	}
	if account == nil {
		return nil, EntityNotFoundError("account", email)
	}

	profile := account.Profile()
	if err := s.cache.Set(ctx, profileCacheKey(email), profile, s.config.ProfileTTL); err != nil {
		s.logger.Warn("Failed to cache profile", zap.Error(err))
	}

	return profile, nil
}

// UpdateProfile changes the display name and avatar.
func (s *authService) UpdateProfile(ctx context.Context, email string, req *UpdateProfileRequest) (*models.UserProfile, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid profile update", err)
	}

	avatar := req.AvatarURL
	if avatar == "" {
		avatar = utils.AvatarURL(email)
	}

	if err := s.accountRepo.UpdateInfo(ctx, email, strings.TrimSpace(req.Name), avatar); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, EntityNotFoundError("account", email)
		}
		return nil, NewInternalError("failed to update profile")
	}

	_ = s.cache.Delete(ctx, profileCacheKey(email))
	return s.GetProfile(ctx, email)
}

// SetDarkMode stores the theme preference.
func (s *authService) SetDarkMode(ctx context.Context, email string, dark bool) error {
	if err := s.accountRepo.SetDarkMode(ctx, email, dark); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EntityNotFoundError("account", email)
		}
		return NewInternalError("failed to update theme preference")
	}

	_ = s.cache.Delete(ctx, profileCacheKey(email))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sessionCacheKey(token string) string {
	return "session:" + token
}
