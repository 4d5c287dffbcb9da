package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"didaur/internal/database"
	"didaur/internal/models"

	"go.uber.org/zap"
)

// commentRepository implements CommentRepository on postgres.
type commentRepository struct {
	*BaseRepository
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *database.Manager, logger *zap.Logger) CommentRepository {
	return &commentRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// Create inserts a comment and bumps the parent post's comment counter
// in the same transaction. The counted update runs first so a missing
// post surfaces as sql.ErrNoRows rather than an FK violation on the
// insert. Returns sql.ErrNoRows when the post is gone.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		bump := `UPDATE posts SET comments = comments + 1 WHERE id = $1`
		result, err := tx.ExecContext(ctx, bump, comment.PostID)
		if err != nil {
			return fmt.Errorf("failed to update comment count: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check comment count update: %w", err)
		}
		if affected == 0 {
			return sql.ErrNoRows
		}

		insert := `
			INSERT INTO comments (id, post_id, author, avatar_url, body, created_ms)
			VALUES ($1, $2, $3, $4, $5, $6)`

		if _, err := tx.ExecContext(
			ctx, insert,
			comment.ID, comment.PostID, comment.Author,
			comment.AvatarURL, comment.Text, comment.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		return nil
	})
}

// ListByPost returns a post's comments, oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	query := `
		SELECT id, post_id, author, avatar_url, body, created_ms
		FROM comments
		WHERE post_id = $1
		ORDER BY created_ms ASC`

	rows, err := r.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(
			&comment.ID, &comment.PostID, &comment.Author,
			&comment.AvatarURL, &comment.Text, &comment.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	r.GetLogger().Debug("Listed comments",
		zap.String("post_id", postID),
		zap.Int("count", len(comments)),
	)
	return comments, nil
}
