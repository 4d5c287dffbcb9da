package services

import (
	"context"
	"testing"

	"didaur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLedger(t *testing.T, accounts *fakeAccountRepo) LedgerService {
	t.Helper()
	return NewLedgerService(accounts, newTestCache(t), zap.NewNop())
}

func TestLedgerApplyDelta_ScanCreditsPointsAndCo2(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "user@didaur.id", 900)
	ledger := newTestLedger(t, accounts)

	result, err := ledger.ApplyDelta(context.Background(), "user@didaur.id", &ProgressDelta{
		Kind:         DeltaScan,
		Points:       ScanPoints,
		Co2:          120,
		MaterialType: "Plastik PET",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(950), result.Profile.Points)
	assert.Equal(t, int64(120), result.Profile.TotalCo2Saved)
	assert.Equal(t, 1, result.Profile.ItemsScanned)
	assert.Equal(t, 1, result.Profile.PlasticItemsScanned)

	// First scan unlocks the starter badge
	assert.Contains(t, result.NewBadges, models.BadgeFirstScan)
}

func TestLedgerApplyDelta_PlasticCounterIsCaseInsensitive(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "user@didaur.id", 0)
	ledger := newTestLedger(t, accounts)

	for _, material := range []string{"plastik", "PLASTIK HDPE", "Botol Plastik", "Kaca"} {
		_, err := ledger.ApplyDelta(context.Background(), "user@didaur.id", &ProgressDelta{
			Kind:         DeltaScan,
			Points:       ScanPoints,
			MaterialType: material,
		})
		require.NoError(t, err)
	}

	account, err := accounts.GetByEmail(context.Background(), "user@didaur.id")
	require.NoError(t, err)
	assert.Equal(t, 4, account.ItemsScanned)
	assert.Equal(t, 3, account.PlasticItemsScanned)
}

func TestLedgerApplyDelta_RankOnlyMovesUp(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "user@didaur.id", 980)
	ledger := newTestLedger(t, accounts)

	// Below the first threshold the starting rank is kept
	result, err := ledger.ApplyDelta(context.Background(), "user@didaur.id", &ProgressDelta{
		Kind:   DeltaScan,
		Points: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RankBeginner, result.Profile.Rank)

	// Crossing 1000 promotes
	result, err = ledger.ApplyDelta(context.Background(), "user@didaur.id", &ProgressDelta{
		Kind:   DeltaScan,
		Points: ScanPoints,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RankFighter, result.Profile.Rank)
}

func TestLedgerApplyDelta_CommentOnlyBumpsCounter(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "user@didaur.id", 500)
	ledger := newTestLedger(t, accounts)

	result, err := ledger.ApplyDelta(context.Background(), "user@didaur.id", &ProgressDelta{
		Kind: DeltaComment,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(500), result.Profile.Points)
	assert.Equal(t, 1, result.Profile.CommentsMade)
	assert.Zero(t, result.Profile.ItemsScanned)
}

func TestLedgerApplyDelta_UnknownAccount(t *testing.T) {
	ledger := newTestLedger(t, newFakeAccountRepo())

	_, err := ledger.ApplyDelta(context.Background(), "ghost@didaur.id", &ProgressDelta{
		Kind:   DeltaScan,
		Points: ScanPoints,
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestLedgerApplyDelta_RejectsInvalidDelta(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "user@didaur.id", 0)
	ledger := newTestLedger(t, accounts)

	_, err := ledger.ApplyDelta(context.Background(), "user@didaur.id", &ProgressDelta{
		Kind:   "bogus",
		Points: 10,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
