package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankForPoints_Thresholds(t *testing.T) {
	tests := []struct {
		points int64
		want   string
	}{
		{0, ""},
		{1000, ""},
		{1001, RankFighter},
		{2000, RankFighter},
		{2001, RankHero},
		{5000, RankHero},
		{5001, RankLegend},
		{99999, RankLegend},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RankForPoints(tt.points), "points=%d", tt.points)
	}
}

func TestBadgeByID(t *testing.T) {
	badge, ok := BadgeByID(BadgeFirstScan)
	require.True(t, ok)
	assert.Equal(t, "Pejuang Pertama", badge.Name)

	_, ok = BadgeByID("b99")
	assert.False(t, ok)
}

func TestEvaluateBadges_ReturnsOnlyNewUnlocks(t *testing.T) {
	p := &UserProfile{
		ItemsScanned:        1,
		PlasticItemsScanned: 10,
		Badges:              []string{},
	}

	first := EvaluateBadges(p)
	assert.ElementsMatch(t, []string{BadgeFirstScan, BadgePlasticMaster}, first)
	assert.ElementsMatch(t, []string{BadgeFirstScan, BadgePlasticMaster}, []string(p.Badges))

	// A second pass over the same snapshot awards nothing
	assert.Empty(t, EvaluateBadges(p))
}

func TestEvaluateBadges_PurchaseBadgeNeverUnlocksHere(t *testing.T) {
	p := &UserProfile{
		ItemsScanned:        100,
		PlasticItemsScanned: 100,
		CommentsMade:        100,
		CreationsShared:     100,
		Points:              100000,
		TotalCo2Saved:       100000,
		Badges:              []string{},
	}

	awarded := EvaluateBadges(p)
	assert.NotContains(t, awarded, BadgeFirstPurchase)
	assert.Len(t, awarded, len(BadgeCatalog)-1)
}

func TestAwardBadge_Idempotent(t *testing.T) {
	p := &UserProfile{Badges: []string{}}

	assert.True(t, p.AwardBadge(BadgeFirstScan))
	assert.False(t, p.AwardBadge(BadgeFirstScan))
	assert.True(t, p.HasBadge(BadgeFirstScan))
	assert.False(t, p.HasBadge(BadgeGreenLegend))
	assert.Len(t, p.Badges, 1)
}
