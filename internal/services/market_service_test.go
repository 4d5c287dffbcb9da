package services

import (
	"context"
	"testing"

	"didaur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMarket(t *testing.T, accounts *fakeAccountRepo, market *fakeMarketRepo) MarketService {
	t.Helper()
	return NewMarketService(market, accounts, newTestCache(t), zap.NewNop())
}

func seedListing(t *testing.T, market *fakeMarketRepo, id string, price int64) {
	t.Helper()
	require.NoError(t, market.Create(context.Background(), &models.MarketplaceItem{
		ID:          id,
		SellerName:  "Budi Kreatif",
		Title:       "Lampu Hias Botol Plastik",
		Price:       price,
		ImageURL:    "https://example.com/lampu.jpg",
		MaterialTag: "Plastik",
		Timestamp:   1700000000000,
	}))
}

func TestMarketPurchase_Success(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "buyer@didaur.id", 2000)
	market := newFakeMarketRepo(accounts)
	seedListing(t, market, "m1", 1500)
	svc := newTestMarket(t, accounts, market)

	result, err := svc.Purchase(context.Background(), "buyer@didaur.id", "m1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Pembelian berhasil! Karya ini kini milikmu.", result.Message)
	assert.Equal(t, int64(500), result.Profile.Points)
	assert.Contains(t, []string(result.Profile.Badges), models.BadgeFirstPurchase)

	require.Len(t, result.Profile.PurchasedItems, 1)
	assert.Equal(t, "m1", result.Profile.PurchasedItems[0].ItemID)
	assert.Equal(t, int64(1500), result.Profile.PurchasedItems[0].Price)

	// The listing is gone
	listings, err := svc.Listings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestMarketPurchase_InvalidatesLeaderboardCache(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "buyer@didaur.id", 9000)
	market := newFakeMarketRepo(accounts)
	seedListing(t, market, "m1", 1500)

	shared := newTestCache(t)
	marketSvc := NewMarketService(market, accounts, shared, zap.NewNop())
	boardSvc := NewLeaderboardService(accounts, shared, zap.NewNop())

	before, err := boardSvc.Standings(context.Background(), "buyer@didaur.id")
	require.NoError(t, err)
	assert.Equal(t, 1, before[0].Rank)
	assert.Equal(t, "acc-buyer@didaur.id", before[0].ID)

	result, err := marketSvc.Purchase(context.Background(), "buyer@didaur.id", "m1")
	require.NoError(t, err)
	require.True(t, result.Success)

	// The debit drops the buyer below Andi Green on the next read
	after, err := boardSvc.Standings(context.Background(), "buyer@didaur.id")
	require.NoError(t, err)
	assert.Equal(t, "Andi Green", after[0].Name)
	assert.Equal(t, "acc-buyer@didaur.id", after[1].ID)
	assert.Equal(t, int64(7500), after[1].Points)
}

func TestMarketPurchase_InsufficientPointsLeavesStateUntouched(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "buyer@didaur.id", 1000)
	market := newFakeMarketRepo(accounts)
	seedListing(t, market, "m1", 1500)
	svc := newTestMarket(t, accounts, market)

	result, err := svc.Purchase(context.Background(), "buyer@didaur.id", "m1")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "Poin (XP) tidak mencukupi untuk membeli karya ini.", result.Message)

	account, err := accounts.GetByEmail(context.Background(), "buyer@didaur.id")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), account.Points)
	assert.Empty(t, account.PurchasedItems)

	listings, err := svc.Listings(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestMarketPurchase_UnknownItem(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "buyer@didaur.id", 5000)
	market := newFakeMarketRepo(accounts)
	svc := newTestMarket(t, accounts, market)

	result, err := svc.Purchase(context.Background(), "buyer@didaur.id", "missing")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "Item tidak ditemukan.", result.Message)
}

func TestMarketPurchase_BalanceCheckedBeforeExistence(t *testing.T) {
	// A broke buyer chasing a vanished listing is told about the
	// balance only when a price is known; otherwise the item message
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "buyer@didaur.id", 0)
	market := newFakeMarketRepo(accounts)
	svc := newTestMarket(t, accounts, market)

	result, err := svc.Purchase(context.Background(), "buyer@didaur.id", "missing")
	require.NoError(t, err)
	assert.Equal(t, "Item tidak ditemukan.", result.Message)

	seedListing(t, market, "m1", 1500)
	result, err = svc.Purchase(context.Background(), "buyer@didaur.id", "m1")
	require.NoError(t, err)
	assert.Equal(t, "Poin (XP) tidak mencukupi untuk membeli karya ini.", result.Message)
}

func TestMarketPurchase_UnknownBuyer(t *testing.T) {
	accounts := newFakeAccountRepo()
	market := newFakeMarketRepo(accounts)
	seedListing(t, market, "m1", 100)
	svc := newTestMarket(t, accounts, market)

	_, err := svc.Purchase(context.Background(), "ghost@didaur.id", "m1")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestMarketPurchase_BadgeAwardedOnlyOnce(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "buyer@didaur.id", 5000)
	market := newFakeMarketRepo(accounts)
	seedListing(t, market, "m1", 100)
	seedListing(t, market, "m2", 100)
	svc := newTestMarket(t, accounts, market)

	_, err := svc.Purchase(context.Background(), "buyer@didaur.id", "m1")
	require.NoError(t, err)
	result, err := svc.Purchase(context.Background(), "buyer@didaur.id", "m2")
	require.NoError(t, err)

	count := 0
	for _, badge := range result.Profile.Badges {
		if badge == models.BadgeFirstPurchase {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, result.Profile.PurchasedItems, 2)
}
