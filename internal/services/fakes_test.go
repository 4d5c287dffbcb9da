package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"didaur/internal/cache"
	"didaur/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// newTestCache returns an in-process cache wired the way the service
// collection builds it.
func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// seedAccount stores a ready-made account the way registration would.
func seedAccount(t *testing.T, repo *fakeAccountRepo, email string, points int64) *models.Account {
	t.Helper()
	account := &models.Account{
		UserProfile: models.UserProfile{
			ID:             "acc-" + email,
			Email:          email,
			Name:           "Tester",
			AvatarURL:      "https://picsum.photos/seed/tester/200/200",
			Points:         points,
			Rank:           models.RankBeginner,
			Badges:         []string{},
			PurchasedItems: models.PurchaseList{},
		},
		PasswordHash: "x",
	}
	require.NoError(t, repo.Create(context.Background(), account))
	return account
}

// In-memory repository fakes. They reproduce the contracts the
// postgres implementations honor: nil-nil on misses, sql.ErrNoRows
// from mutations against missing rows, and all-or-nothing closures.

// ===============================
// ACCOUNT REPOSITORY FAKE
// ===============================

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*models.Account)}
}

func cloneAccount(a *models.Account) *models.Account {
	clone := *a
	clone.Badges = slices.Clone([]string(a.Badges))
	clone.PurchasedItems = slices.Clone(a.PurchasedItems)
	return &clone
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.Email]; exists {
		return &pq.Error{Code: "23505"}
	}
	r.accounts[account.Email] = cloneAccount(account)
	return nil
}

func (r *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return nil, nil
	}
	return cloneAccount(account), nil
}

func (r *fakeAccountRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return sql.ErrNoRows
	}
	account.PasswordHash = passwordHash
	return nil
}

func (r *fakeAccountRepo) UpdateInfo(ctx context.Context, email, name, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return sql.ErrNoRows
	}
	account.Name = name
	account.AvatarURL = avatarURL
	return nil
}

func (r *fakeAccountRepo) SetDarkMode(ctx context.Context, email string, dark bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return sql.ErrNoRows
	}
	account.DarkMode = dark
	return nil
}

func (r *fakeAccountRepo) UpdateProfileTx(ctx context.Context, email string, mutate func(*models.Account) error) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[email]
	if !ok {
		return nil, sql.ErrNoRows
	}

	working := cloneAccount(stored)
	if err := mutate(working); err != nil {
		return nil, err
	}
	r.accounts[email] = working
	return cloneAccount(working), nil
}

// ===============================
// SESSION REPOSITORY FAKE
// ===============================

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.Token] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok || session.IsExpired() {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for token, session := range r.sessions {
		if session.IsExpired() {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// ===============================
// POST REPOSITORY FAKE
// ===============================

type fakePostRepo struct {
	mu    sync.Mutex
	posts []models.CommunityPost
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{}
}

func (r *fakePostRepo) Create(ctx context.Context, post *models.CommunityPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, *post)
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id string) (*models.CommunityPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.posts {
		if r.posts[i].ID == id {
			copied := r.posts[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakePostRepo) List(ctx context.Context) ([]models.CommunityPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.posts)
	slices.SortStableFunc(out, func(a, b models.CommunityPost) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

func (r *fakePostRepo) IncrementLikes(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.posts {
		if r.posts[i].ID == id {
			r.posts[i].Likes++
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *fakePostRepo) bumpCommentCount(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.posts {
		if r.posts[i].ID == id {
			r.posts[i].Comments++
			return true
		}
	}
	return false
}

// ===============================
// COMMENT REPOSITORY FAKE
// ===============================

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []models.Comment
	posts    *fakePostRepo
}

func newFakeCommentRepo(posts *fakePostRepo) *fakeCommentRepo {
	return &fakeCommentRepo{posts: posts}
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	if !r.posts.bumpCommentCount(comment.PostID) {
		return sql.ErrNoRows
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ===============================
// MARKET REPOSITORY FAKE
// ===============================

type fakeMarketRepo struct {
	mu       sync.Mutex
	items    []models.MarketplaceItem
	accounts *fakeAccountRepo
}

func newFakeMarketRepo(accounts *fakeAccountRepo) *fakeMarketRepo {
	return &fakeMarketRepo{accounts: accounts}
}

func (r *fakeMarketRepo) Create(ctx context.Context, item *models.MarketplaceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *item)
	return nil
}

func (r *fakeMarketRepo) GetByID(ctx context.Context, id string) (*models.MarketplaceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			copied := r.items[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeMarketRepo) List(ctx context.Context) ([]models.MarketplaceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.items)
	slices.SortStableFunc(out, func(a, b models.MarketplaceItem) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

func (r *fakeMarketRepo) PurchaseTx(ctx context.Context, itemID, buyerEmail string, mutate func(*models.Account, *models.MarketplaceItem) error) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.items {
		if r.items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, sql.ErrNoRows
	}

	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()
	stored, ok := r.accounts.accounts[buyerEmail]
	if !ok {
		return nil, sql.ErrNoRows
	}

	working := cloneAccount(stored)
	item := r.items[idx]
	if err := mutate(working, &item); err != nil {
		return nil, err
	}

	r.accounts.accounts[buyerEmail] = working
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	return cloneAccount(working), nil
}

// ===============================
// SCAN REPOSITORY FAKE
// ===============================

type fakeScanRepo struct {
	mu      sync.Mutex
	records []models.ScanRecord
}

func newFakeScanRepo() *fakeScanRepo {
	return &fakeScanRepo{}
}

func (r *fakeScanRepo) Create(ctx context.Context, record *models.ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)

	// Trim the owner's log to the retention cap, newest kept
	var owned []models.ScanRecord
	for _, rec := range r.records {
		if rec.Email == record.Email {
			owned = append(owned, rec)
		}
	}
	if len(owned) <= models.ScanHistoryLimit {
		return nil
	}

	// Insertion order is chronological, so the overflow is the head
	drop := make(map[string]bool)
	for _, rec := range owned[:len(owned)-models.ScanHistoryLimit] {
		drop[rec.ID] = true
	}

	kept := r.records[:0]
	for _, rec := range r.records {
		if !drop[rec.ID] {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

func (r *fakeScanRepo) ListByEmail(ctx context.Context, email string) ([]models.ScanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ScanRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Email == email {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

func (r *fakeScanRepo) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.Email != email {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}
