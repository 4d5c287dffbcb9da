package services

import (
	"context"
	"fmt"
	"testing"

	"didaur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scanFixture struct {
	accounts *fakeAccountRepo
	scans    *fakeScanRepo
	svc      ScanService
}

func newScanFixture(t *testing.T) *scanFixture {
	t.Helper()
	accounts := newFakeAccountRepo()
	scans := newFakeScanRepo()
	ledger := NewLedgerService(accounts, newTestCache(t), zap.NewNop())

	return &scanFixture{
		accounts: accounts,
		scans:    scans,
		svc:      NewScanService(scans, ledger, zap.NewNop()),
	}
}

func TestScanRecord_CreditsFlatAwardNotEstimate(t *testing.T) {
	f := newScanFixture(t)
	seedAccount(t, f.accounts, "scanner@didaur.id", 0)

	result, err := f.svc.Record(context.Background(), "scanner@didaur.id", &models.AnalysisResult{
		ItemName:        "Botol Plastik",
		MaterialType:    "Plastik PET",
		Difficulty:      "Mudah",
		EstimatedPoints: 9000,
		Co2Impact:       150,
	})
	require.NoError(t, err)

	// The analysis estimate is display-only; the award is flat
	assert.Equal(t, int64(ScanPoints), result.Profile.Points)
	assert.Equal(t, int64(150), result.Profile.TotalCo2Saved)
	assert.Equal(t, 1, result.Profile.ItemsScanned)
	assert.Equal(t, 1, result.Profile.PlasticItemsScanned)
	assert.Contains(t, result.NewBadges, models.BadgeFirstScan)

	assert.NotEmpty(t, result.Record.ID)
	assert.Equal(t, "Botol Plastik", result.Record.ItemName)
	assert.NotZero(t, result.Record.Timestamp)
}

func TestScanRecord_RejectsIncompleteAnalysis(t *testing.T) {
	f := newScanFixture(t)
	seedAccount(t, f.accounts, "scanner@didaur.id", 0)

	_, err := f.svc.Record(context.Background(), "scanner@didaur.id", &models.AnalysisResult{
		MaterialType: "Plastik",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestScanHistory_CappedAtLimitNewestFirst(t *testing.T) {
	f := newScanFixture(t)
	seedAccount(t, f.accounts, "scanner@didaur.id", 0)

	for i := 0; i < models.ScanHistoryLimit+5; i++ {
		_, err := f.svc.Record(context.Background(), "scanner@didaur.id", &models.AnalysisResult{
			ItemName:     fmt.Sprintf("Barang %02d", i),
			MaterialType: "Kardus",
		})
		require.NoError(t, err)
	}

	history, err := f.svc.History(context.Background(), "scanner@didaur.id")
	require.NoError(t, err)
	require.Len(t, history, models.ScanHistoryLimit)

	// Newest first, oldest five dropped
	assert.Equal(t, "Barang 24", history[0].ItemName)
	assert.Equal(t, "Barang 05", history[len(history)-1].ItemName)
}

func TestScanHistory_IsolatedPerUser(t *testing.T) {
	f := newScanFixture(t)
	seedAccount(t, f.accounts, "a@didaur.id", 0)
	seedAccount(t, f.accounts, "b@didaur.id", 0)

	_, err := f.svc.Record(context.Background(), "a@didaur.id", &models.AnalysisResult{
		ItemName:     "Botol",
		MaterialType: "Plastik",
	})
	require.NoError(t, err)

	history, err := f.svc.History(context.Background(), "b@didaur.id")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NotNil(t, history)
}

func TestScanClear_WipesOnlyOwnHistory(t *testing.T) {
	f := newScanFixture(t)
	seedAccount(t, f.accounts, "a@didaur.id", 0)
	seedAccount(t, f.accounts, "b@didaur.id", 0)

	for _, email := range []string{"a@didaur.id", "b@didaur.id"} {
		_, err := f.svc.Record(context.Background(), email, &models.AnalysisResult{
			ItemName:     "Botol",
			MaterialType: "Plastik",
		})
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.Clear(context.Background(), "a@didaur.id"))

	historyA, err := f.svc.History(context.Background(), "a@didaur.id")
	require.NoError(t, err)
	assert.Empty(t, historyA)

	historyB, err := f.svc.History(context.Background(), "b@didaur.id")
	require.NoError(t, err)
	assert.Len(t, historyB, 1)
}
