package services

import (
	"context"
	"testing"
	"time"

	"didaur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authFixture struct {
	accounts *fakeAccountRepo
	sessions *fakeSessionRepo
	svc      AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	accounts := newFakeAccountRepo()
	sessions := newFakeSessionRepo()

	svc := NewAuthService(accounts, sessions, newTestCache(t), PlaintextHasher{}, zap.NewNop(), &AuthServiceConfig{
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		SessionExpiry: time.Hour,
		ProfileTTL:    time.Minute,
	})

	return &authFixture{accounts: accounts, sessions: sessions, svc: svc}
}

func (f *authFixture) register(t *testing.T, name, email, password string) *AuthResult {
	t.Helper()
	result, err := f.svc.Register(context.Background(), &RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return result
}

// ===============================
// REGISTRATION
// ===============================

func TestRegister_SeedsStartingProfile(t *testing.T) {
	f := newAuthFixture(t)

	result := f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	assert.NotEmpty(t, result.Token)
	assert.Greater(t, result.ExpiresAt, time.Now().UnixMilli())

	profile := result.Profile
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "dina@didaur.id", profile.Email)
	assert.Equal(t, "Dina Baru", profile.Name)
	assert.Equal(t, RegistrationPoints, profile.Points)
	assert.Equal(t, models.RankBeginner, profile.Rank)
	assert.Equal(t, "https://picsum.photos/seed/dina@didaur.id/200/200", profile.AvatarURL)
	assert.Empty(t, profile.Badges)
	assert.Empty(t, profile.PurchasedItems)

	// The token must resolve to the stored account
	account, err := f.svc.ValidateSession(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, account.ID)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	_, err := f.svc.Register(context.Background(), &RegisterRequest{
		Name:     "Dina Lagi",
		Email:    "  DINA@didaur.id ",
		Password: "rahasia2",
	})
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), &RegisterRequest{
		Name:     "Dina Baru",
		Email:    "dina@didaur.id",
		Password: "abc",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

// ===============================
// LOGIN & SESSIONS
// ===============================

func TestLogin_RoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	result, err := f.svc.Login(context.Background(), &LoginRequest{
		Email:    "Dina@didaur.id",
		Password: "rahasia1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "dina@didaur.id", result.Profile.Email)
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	_, wrongPassword := f.svc.Login(context.Background(), &LoginRequest{
		Email:    "dina@didaur.id",
		Password: "salah",
	})
	_, unknownEmail := f.svc.Login(context.Background(), &LoginRequest{
		Email:    "nobody@didaur.id",
		Password: "rahasia1",
	})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.True(t, IsUnauthorizedError(wrongPassword))
	assert.True(t, IsUnauthorizedError(unknownEmail))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogout_InvalidatesSession(t *testing.T) {
	f := newAuthFixture(t)
	result := f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	require.NoError(t, f.svc.Logout(context.Background(), result.Token))

	_, err := f.svc.ValidateSession(context.Background(), result.Token)
	require.Error(t, err)
	assert.True(t, IsUnauthorizedError(err))
}

func TestValidateSession_ServedFromCacheUntilLogout(t *testing.T) {
	f := newAuthFixture(t)
	result := f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	_, err := f.svc.ValidateSession(context.Background(), result.Token)
	require.NoError(t, err)

	// The row is gone but the cached session still resolves
	require.NoError(t, f.sessions.Delete(context.Background(), result.Token))
	_, err = f.svc.ValidateSession(context.Background(), result.Token)
	require.NoError(t, err)

	// Logout drops the cache entry along with the row
	require.NoError(t, f.svc.Logout(context.Background(), result.Token))
	_, err = f.svc.ValidateSession(context.Background(), result.Token)
	require.Error(t, err)
	assert.True(t, IsUnauthorizedError(err))
}

func TestValidateSession_RejectsGarbageToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.ValidateSession(context.Background(), "not-a-jwt")
	require.Error(t, err)
	assert.True(t, IsUnauthorizedError(err))
}

func TestResetPassword_ReplacesSecret(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	err := f.svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email:       "dina@didaur.id",
		NewPassword: "rahasia-baru",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), &LoginRequest{
		Email:    "dina@didaur.id",
		Password: "rahasia1",
	})
	assert.True(t, IsUnauthorizedError(err))

	_, err = f.svc.Login(context.Background(), &LoginRequest{
		Email:    "dina@didaur.id",
		Password: "rahasia-baru",
	})
	assert.NoError(t, err)
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email:       "nobody@didaur.id",
		NewPassword: "rahasia-baru",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

// ===============================
// PROFILE
// ===============================

func TestGetProfile_StripsSecretAndCaches(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	profile, err := f.svc.GetProfile(context.Background(), "dina@didaur.id")
	require.NoError(t, err)
	assert.Equal(t, "Dina Baru", profile.Name)

	// A direct store write is invisible while the cache entry lives
	err = f.accounts.UpdateInfo(context.Background(), "dina@didaur.id", "Nama Lain", profile.AvatarURL)
	require.NoError(t, err)

	cached, err := f.svc.GetProfile(context.Background(), "dina@didaur.id")
	require.NoError(t, err)
	assert.Equal(t, "Dina Baru", cached.Name)
}

func TestGetProfile_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.GetProfile(context.Background(), "nobody@didaur.id")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestUpdateProfile_EmptyAvatarFallsBackToDefault(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	profile, err := f.svc.UpdateProfile(context.Background(), "dina@didaur.id", &UpdateProfileRequest{
		Name: "  Dina Hijau  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dina Hijau", profile.Name)
	assert.Equal(t, "https://picsum.photos/seed/dina@didaur.id/200/200", profile.AvatarURL)

	custom, err := f.svc.UpdateProfile(context.Background(), "dina@didaur.id", &UpdateProfileRequest{
		Name:      "Dina Hijau",
		AvatarURL: "https://cdn.didaur.id/avatars/dina.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.didaur.id/avatars/dina.png", custom.AvatarURL)
}

func TestSetDarkMode_PersistsAndRefreshes(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Dina Baru", "dina@didaur.id", "rahasia1")

	require.NoError(t, f.svc.SetDarkMode(context.Background(), "dina@didaur.id", true))

	profile, err := f.svc.GetProfile(context.Background(), "dina@didaur.id")
	require.NoError(t, err)
	assert.True(t, profile.DarkMode)
}
