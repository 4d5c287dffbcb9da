package services

import (
	"context"
	"fmt"
	"testing"

	"didaur/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type communityFixture struct {
	accounts *fakeAccountRepo
	posts    *fakePostRepo
	comments *fakeCommentRepo
	market   *fakeMarketRepo
	svc      CommunityService
}

func newCommunityFixture(t *testing.T) *communityFixture {
	t.Helper()
	accounts := newFakeAccountRepo()
	posts := newFakePostRepo()
	comments := newFakeCommentRepo(posts)
	market := newFakeMarketRepo(accounts)
	ledger := NewLedgerService(accounts, newTestCache(t), zap.NewNop())

	return &communityFixture{
		accounts: accounts,
		posts:    posts,
		comments: comments,
		market:   market,
		svc:      NewCommunityService(posts, comments, market, accounts, ledger, zap.NewNop()),
	}
}

func TestCommunityPublish_CreditsShareAward(t *testing.T) {
	f := newCommunityFixture(t)
	seedAccount(t, f.accounts, "maker@didaur.id", 100)

	result, err := f.svc.Publish(context.Background(), "maker@didaur.id", &CreatePostRequest{
		ItemName:    "Vas Bunga Minimalis",
		Description: "Botol kaca selai yang dicat ulang.",
		ImageURL:    "https://example.com/vas.jpg",
		MaterialTag: "Kaca",
	})
	require.NoError(t, err)

	assert.Equal(t, "Tester", result.Post.UserName)
	assert.Equal(t, int64(SharePoints), result.Post.PointsEarned)
	assert.Equal(t, int64(100+SharePoints), result.Profile.Points)
	assert.Equal(t, 1, result.Profile.CreationsShared)

	// Not for sale, so no listing appears
	listings, err := f.market.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestCommunityPublish_ForSaleCreatesListingWithPostID(t *testing.T) {
	f := newCommunityFixture(t)
	seedAccount(t, f.accounts, "maker@didaur.id", 0)

	result, err := f.svc.Publish(context.Background(), "maker@didaur.id", &CreatePostRequest{
		ItemName:    "Lampu Hias Botol Plastik",
		Description: "Mengubah botol bekas jadi lampu hias.",
		ImageURL:    "https://example.com/lampu.jpg",
		MaterialTag: "Plastik",
		IsForSale:   true,
		Price:       1500,
	})
	require.NoError(t, err)

	listings, err := f.market.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, result.Post.ID, listings[0].ID)
	assert.Equal(t, int64(1500), listings[0].Price)
	assert.Equal(t, "Tester", listings[0].SellerName)
}

func TestCommunityPublish_ForSaleNeedsPositivePrice(t *testing.T) {
	f := newCommunityFixture(t)
	seedAccount(t, f.accounts, "maker@didaur.id", 0)

	_, err := f.svc.Publish(context.Background(), "maker@didaur.id", &CreatePostRequest{
		ItemName:    "Organizer Meja Kardus",
		Description: "Kardus sepatu lama jadi rapi.",
		ImageURL:    "https://example.com/organizer.jpg",
		MaterialTag: "Kardus",
		IsForSale:   true,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCommunityPublish_FifthShareUnlocksBadge(t *testing.T) {
	f := newCommunityFixture(t)
	seedAccount(t, f.accounts, "maker@didaur.id", 0)

	var last *PublishResult
	for i := 0; i < 5; i++ {
		var err error
		last, err = f.svc.Publish(context.Background(), "maker@didaur.id", &CreatePostRequest{
			ItemName:    "Karya Daur Ulang",
			Description: "Hasil karya.",
			ImageURL:    "https://example.com/karya.jpg",
			MaterialTag: "Plastik",
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 5, last.Profile.CreationsShared)
	assert.Contains(t, last.NewBadges, models.BadgeGenerousMaker)
}

func TestCommunityLike_EveryTapCounts(t *testing.T) {
	f := newCommunityFixture(t)
	seedAccount(t, f.accounts, "maker@didaur.id", 0)

	published, err := f.svc.Publish(context.Background(), "maker@didaur.id", &CreatePostRequest{
		ItemName:    "Vas Bunga",
		Description: "Dekorasi meja.",
		ImageURL:    "https://example.com/vas.jpg",
		MaterialTag: "Kaca",
	})
	require.NoError(t, err)

	_, err = f.svc.Like(context.Background(), published.Post.ID)
	require.NoError(t, err)
	post, err := f.svc.Like(context.Background(), published.Post.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, post.Likes)
}

func TestCommunityLike_UnknownPost(t *testing.T) {
	f := newCommunityFixture(t)

	_, err := f.svc.Like(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestCommunityComment_BumpsCountersAndBadge(t *testing.T) {
	f := newCommunityFixture(t)
	seedAccount(t, f.accounts, "maker@didaur.id", 0)
	seedAccount(t, f.accounts, "fan@didaur.id", 0)

	published, err := f.svc.Publish(context.Background(), "maker@didaur.id", &CreatePostRequest{
		ItemName:    "Vas Bunga",
		Description: "Dekorasi meja.",
		ImageURL:    "https://example.com/vas.jpg",
		MaterialTag: "Kaca",
	})
	require.NoError(t, err)

	var last *CommentResult
	for i := 0; i < 5; i++ {
		last, err = f.svc.Comment(context.Background(), "fan@didaur.id", &CommentRequest{
			PostID: published.Post.ID,
			Text:   "Keren banget!",
		})
		require.NoError(t, err)
	}

	// Counter moved, points did not
	assert.Equal(t, 5, last.Profile.CommentsMade)
	assert.Equal(t, int64(0), last.Profile.Points)
	assert.Contains(t, last.NewBadges, models.BadgeCollaborator)

	post, err := f.posts.GetByID(context.Background(), published.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, post.Comments)

	comments, err := f.svc.CommentsFor(context.Background(), published.Post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 5)
	assert.Equal(t, "Tester", comments[0].Author)
}

func TestCommunityComment_UnknownPost(t *testing.T) {
	f := newCommunityFixture(t)
	seedAccount(t, f.accounts, "fan@didaur.id", 0)

	_, err := f.svc.Comment(context.Background(), "fan@didaur.id", &CommentRequest{
		PostID: "missing",
		Text:   "Halo",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

// fkViolationCommentRepo reports the missing parent the way postgres
// does when the insert hits the post foreign key.
type fkViolationCommentRepo struct{}

func (fkViolationCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return fmt.Errorf("failed to create comment: %w", &pq.Error{Code: "23503"})
}

func (fkViolationCommentRepo) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	return nil, nil
}

func TestCommunityComment_ForeignKeyViolationIsNotFound(t *testing.T) {
	accounts := newFakeAccountRepo()
	seedAccount(t, accounts, "fan@didaur.id", 0)
	ledger := NewLedgerService(accounts, newTestCache(t), zap.NewNop())
	svc := NewCommunityService(newFakePostRepo(), fkViolationCommentRepo{}, newFakeMarketRepo(accounts), accounts, ledger, zap.NewNop())

	_, err := svc.Comment(context.Background(), "fan@didaur.id", &CommentRequest{
		PostID: "deleted",
		Text:   "Halo",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestCommunityCommentsFor_UnknownPost(t *testing.T) {
	f := newCommunityFixture(t)

	_, err := f.svc.CommentsFor(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestCommunityPosts_EmptyFeedIsNotNil(t *testing.T) {
	f := newCommunityFixture(t)

	posts, err := f.svc.Posts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}
