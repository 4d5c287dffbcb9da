// ===============================
// FILE: internal/services/community_service.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"errors"

	"didaur/internal/models"
	"didaur/internal/repositories"
	"didaur/internal/utils"
	"didaur/internal/validation"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// communityService implements CommunityService
type communityService struct {
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository
	marketRepo  repositories.MarketRepository
	accountRepo repositories.AccountRepository
	ledger      LedgerService
	logger      *zap.Logger
}

// NewCommunityService creates a new community service
func NewCommunityService(
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	marketRepo repositories.MarketRepository,
	accountRepo repositories.AccountRepository,
	ledger LedgerService,
	logger *zap.Logger,
) CommunityService {
	return &communityService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		marketRepo:  marketRepo,
		accountRepo: accountRepo,
		ledger:      ledger,
		logger:      logger,
	}
}

// Publish creates a feed post for a creation, lists it on the market
// when marked for sale, and credits the share award to the author.
func (s *communityService) Publish(ctx context.Context, email string, req *CreatePostRequest) (*PublishResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid post request", err)
	}
	if req.IsForSale && req.Price <= 0 {
		return nil, NewValidationError("a listing needs a positive price", nil)
	}

	author, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to load author")
	}
	if author == nil {
		return nil, EntityNotFoundError("account", email)
	}

	post := &models.CommunityPost{
		ID:           utils.NewID(),
		UserName:     author.Name,
		UserAvatar:   author.AvatarURL,
		ItemName:     req.ItemName,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		Timestamp:    utils.NowMillis(),
		PointsEarned: SharePoints,
		MaterialTag:  req.MaterialTag,
		IsForSale:    req.IsForSale,
		Price:        req.Price,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, NewInternalError("failed to publish post")
	}

	if req.IsForSale {
		listing := &models.MarketplaceItem{
			ID:           post.ID,
			SellerName:   author.Name,
			SellerAvatar: author.AvatarURL,
			Title:        req.ItemName,
			Description:  req.Description,
			Price:        req.Price,
			ImageURL:     req.ImageURL,
			MaterialTag:  req.MaterialTag,
			Timestamp:    post.Timestamp,
		}
		if err := s.marketRepo.Create(ctx, listing); err != nil {
			s.logger.Error("Failed to create market listing for post",
				zap.String("post_id", post.ID),
				zap.Error(err),
			)
			return nil, NewInternalError("failed to list creation on market")
		}
	}

	result, err := s.ledger.ApplyDelta(ctx, email, &ProgressDelta{
		Kind:   DeltaShare,
		Points: SharePoints,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Creation published",
		zap.String("post_id", post.ID),
		zap.String("email", email),
		zap.Bool("for_sale", req.IsForSale),
	)

	return &PublishResult{
		Post:      post,
		Profile:   result.Profile,
		NewBadges: result.NewBadges,
	}, nil
}

// Posts returns the full feed, newest first.
func (s *communityService) Posts(ctx context.Context) ([]models.CommunityPost, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, NewInternalError("failed to load feed")
	}
	if posts == nil {
		posts = []models.CommunityPost{}
	}
	return posts, nil
}

// Like bumps a post's like counter. Likes are not deduplicated per
// user; every tap counts.
func (s *communityService) Like(ctx context.Context, postID string) (*models.CommunityPost, error) {
	if err := s.postRepo.IncrementLikes(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, EntityNotFoundError("post", postID)
		}
		return nil, NewInternalError("failed to like post")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil || post == nil {
		return nil, NewInternalError("failed to load post")
	}
	return post, nil
}

// Comment appends a comment to a post and bumps the author's comment
// counter, which can unlock the community badge.
func (s *communityService) Comment(ctx context.Context, email string, req *CommentRequest) (*CommentResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid comment request", err)
	}

	author, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to load author")
	}
	if author == nil {
		return nil, EntityNotFoundError("account", email)
	}

	comment := &models.Comment{
		ID:        utils.NewID(),
		PostID:    req.PostID,
		Author:    author.Name,
		AvatarURL: author.AvatarURL,
		Text:      req.Text,
		Timestamp: utils.NowMillis(),
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		// 23503 covers a post deleted between the existence check and
		// the insert hitting its foreign key.
		var pqErr *pq.Error
		if errors.Is(err, sql.ErrNoRows) || (errors.As(err, &pqErr) && pqErr.Code == "23503") {
			return nil, EntityNotFoundError("post", req.PostID)
		}
		return nil, NewInternalError("failed to create comment")
	}

	result, err := s.ledger.ApplyDelta(ctx, email, &ProgressDelta{Kind: DeltaComment})
	if err != nil {
		return nil, err
	}

	return &CommentResult{
		Comment:   comment,
		Profile:   result.Profile,
		NewBadges: result.NewBadges,
	}, nil
}

// CommentsFor returns a post's comments, oldest first.
func (s *communityService) CommentsFor(ctx context.Context, postID string) ([]models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, NewInternalError("failed to load post")
	}
	if post == nil {
		return nil, EntityNotFoundError("post", postID)
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, NewInternalError("failed to load comments")
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}
