package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"didaur/internal/database"
	"didaur/internal/models"

	"go.uber.org/zap"
)

// postRepository implements PostRepository on postgres.
type postRepository struct {
	*BaseRepository
}

// NewPostRepository creates a new community feed repository.
func NewPostRepository(db *database.Manager, logger *zap.Logger) PostRepository {
	return &postRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const postColumns = `id, user_name, user_avatar, item_name, description, image_url,
	likes, comments, created_ms, points_earned, material_tag, is_for_sale, price`

// Create inserts a community post.
func (r *postRepository) Create(ctx context.Context, post *models.CommunityPost) error {
	query := `
		INSERT INTO posts (
			id, user_name, user_avatar, item_name, description, image_url,
			likes, comments, created_ms, points_earned, material_tag,
			is_for_sale, price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.ExecContext(
		ctx, query,
		post.ID, post.UserName, post.UserAvatar, post.ItemName,
		post.Description, post.ImageURL, post.Likes, post.Comments,
		post.Timestamp, post.PointsEarned, post.MaterialTag,
		post.IsForSale, post.Price,
	)
	if err != nil {
		r.GetLogger().Error("Failed to create post",
			zap.Error(err),
			zap.String("post_id", post.ID),
			zap.String("user_name", post.UserName),
		)
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// GetByID retrieves a post, returning (nil, nil) when it does not exist.
func (r *postRepository) GetByID(ctx context.Context, id string) (*models.CommunityPost, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var post models.CommunityPost
	if err := scanPost(r.QueryRowContext(ctx, query, id), &post); err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// List returns the full feed, newest first.
func (r *postRepository) List(ctx context.Context) ([]models.CommunityPost, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_ms DESC`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.CommunityPost
	for rows.Next() {
		var post models.CommunityPost
		if err := scanPost(rows, &post); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// IncrementLikes bumps the like counter. Every call counts; there is
// no per-user dedup. Returns sql.ErrNoRows for an unknown post.
func (r *postRepository) IncrementLikes(ctx context.Context, id string) error {
	query := `UPDATE posts SET likes = likes + 1 WHERE id = $1`

	result, err := r.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment likes: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check like update: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanPost(row rowScanner, post *models.CommunityPost) error {
	return row.Scan(
		&post.ID, &post.UserName, &post.UserAvatar, &post.ItemName,
		&post.Description, &post.ImageURL, &post.Likes, &post.Comments,
		&post.Timestamp, &post.PointsEarned, &post.MaterialTag,
		&post.IsForSale, &post.Price,
	)
}
