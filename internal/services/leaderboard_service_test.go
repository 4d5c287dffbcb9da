package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLeaderboard(t *testing.T, accounts *fakeAccountRepo) LeaderboardService {
	t.Helper()
	return NewLeaderboardService(accounts, newTestCache(t), zap.NewNop())
}

func TestStandings_ViewerRankedAmongShowcase(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "viewer@didaur.id", 6000)
	svc := newTestLeaderboard(t, accounts)

	entries, err := svc.Standings(context.Background(), "viewer@didaur.id")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "Andi Green", entries[0].Name)
	assert.Equal(t, int64(8450), entries[0].Points)
	assert.Equal(t, "Rina Eco", entries[1].Name)
	assert.Equal(t, "acc-viewer@didaur.id", entries[2].ID)
	assert.Equal(t, "Zaki Waste", entries[3].Name)

	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Rank)
	}
}

func TestStandings_ViewerLastWhenOutpointed(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "viewer@didaur.id", 1000)
	svc := newTestLeaderboard(t, accounts)

	entries, err := svc.Standings(context.Background(), "viewer@didaur.id")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "acc-viewer@didaur.id", entries[3].ID)
	assert.Equal(t, 4, entries[3].Rank)
}

func TestStandings_TieBreaksShowcaseFirst(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "viewer@didaur.id", 7200)
	svc := newTestLeaderboard(t, accounts)

	entries, err := svc.Standings(context.Background(), "viewer@didaur.id")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Stable sort keeps the showcase row ahead of the tied viewer
	assert.Equal(t, "Rina Eco", entries[1].Name)
	assert.Equal(t, "acc-viewer@didaur.id", entries[2].ID)
}

func TestStandings_CachedUntilInvalidated(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "viewer@didaur.id", 1000)
	svc := newTestLeaderboard(t, accounts)

	first, err := svc.Standings(context.Background(), "viewer@didaur.id")
	require.NoError(t, err)

	// A store write without invalidation does not move the board
	require.NoError(t, accounts.UpdateInfo(context.Background(), "viewer@didaur.id", "Nama Baru", "https://picsum.photos/seed/x/100/100"))

	second, err := svc.Standings(context.Background(), "viewer@didaur.id")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStandings_UnknownViewer(t *testing.T) {
	accounts := newFakeAccountRepo()
	svc := newTestLeaderboard(t, accounts)

	_, err := svc.Standings(context.Background(), "nobody@didaur.id")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}
