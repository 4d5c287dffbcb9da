package repositories

import (
	"context"
	"fmt"

	"didaur/internal/database"
	"didaur/internal/models"

	"go.uber.org/zap"
)

// sessionRepository implements SessionRepository on postgres.
type sessionRepository struct {
	*BaseRepository
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *database.Manager, logger *zap.Logger) SessionRepository {
	return &sessionRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// Create stores a session row.
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (token, email, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.QueryRowContext(
		ctx, query,
		session.Token, session.Email, session.ExpiresAt,
	).Scan(&session.CreatedAt)

	if err != nil {
		r.GetLogger().Error("Failed to create session",
			zap.Error(err),
			zap.String("email", session.Email),
			zap.String("token_prefix", truncateToken(session.Token)),
		)
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByToken retrieves a live session. Expired or unknown tokens
// return (nil, nil).
func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT token, email, expires_at, created_at
		FROM sessions
		WHERE token = $1 AND expires_at > CURRENT_TIMESTAMP`

	var session models.Session
	err := r.QueryRowContext(ctx, query, token).Scan(
		&session.Token, &session.Email,
		&session.ExpiresAt, &session.CreatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			r.GetLogger().Debug("Session not found or expired",
				zap.String("token_prefix", truncateToken(token)),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// Delete removes a session row; deleting an absent token is a no-op.
func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = $1`

	if _, err := r.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired sweeps expired sessions and reports how many rows
// were removed.
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP`

	result, err := r.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}

	if affected > 0 {
		r.GetLogger().Info("Expired sessions removed", zap.Int64("count", affected))
	}
	return affected, nil
}

// truncateToken keeps log lines free of full session tokens.
func truncateToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
