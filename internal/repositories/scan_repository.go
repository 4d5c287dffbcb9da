package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"didaur/internal/database"
	"didaur/internal/models"

	"go.uber.org/zap"
)

// scanRepository implements ScanRepository on postgres.
type scanRepository struct {
	*BaseRepository
}

// NewScanRepository creates a new scan history repository.
func NewScanRepository(db *database.Manager, logger *zap.Logger) ScanRepository {
	return &scanRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const scanColumns = `id, email, created_ms, item_name, material_type, difficulty,
	estimated_points, co2_impact, ideas`

// Create inserts a scan record and trims the user's log to the
// retention cap in the same transaction, dropping the oldest rows.
func (r *scanRepository) Create(ctx context.Context, record *models.ScanRecord) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		insert := `
			INSERT INTO scan_history (
				id, email, created_ms, item_name, material_type, difficulty,
				estimated_points, co2_impact, ideas
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

		if _, err := tx.ExecContext(
			ctx, insert,
			record.ID, record.Email, record.Timestamp,
			record.ItemName, record.MaterialType, record.Difficulty,
			record.EstimatedPoints, record.Co2Impact, []byte(record.Ideas),
		); err != nil {
			return fmt.Errorf("failed to create scan record: %w", err)
		}

		trim := `
			DELETE FROM scan_history
			WHERE email = $1 AND id NOT IN (
				SELECT id FROM scan_history
				WHERE email = $1
				ORDER BY created_ms DESC, id DESC
				LIMIT $2
			)`

		result, err := tx.ExecContext(ctx, trim, record.Email, models.ScanHistoryLimit)
		if err != nil {
			return fmt.Errorf("failed to trim scan history: %w", err)
		}

		if dropped, _ := result.RowsAffected(); dropped > 0 {
			r.GetLogger().Debug("Scan history trimmed",
				zap.String("email", record.Email),
				zap.Int64("dropped", dropped),
			)
		}

		return nil
	})
}

// ListByEmail returns a user's scan log, most recent first.
func (r *scanRepository) ListByEmail(ctx context.Context, email string) ([]models.ScanRecord, error) {
	query := `
		SELECT ` + scanColumns + `
		FROM scan_history
		WHERE email = $1
		ORDER BY created_ms DESC, id DESC`

	rows, err := r.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan history: %w", err)
	}
	defer rows.Close()

	var records []models.ScanRecord
	for rows.Next() {
		var record models.ScanRecord
		var ideas []byte
		if err := rows.Scan(
			&record.ID, &record.Email, &record.Timestamp,
			&record.ItemName, &record.MaterialType, &record.Difficulty,
			&record.EstimatedPoints, &record.Co2Impact, &ideas,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.Ideas = ideas
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan history: %w", err)
	}

	return records, nil
}

// DeleteByEmail clears a user's full scan log.
func (r *scanRepository) DeleteByEmail(ctx context.Context, email string) error {
	query := `DELETE FROM scan_history WHERE email = $1`

	result, err := r.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("failed to clear scan history: %w", err)
	}

	if cleared, _ := result.RowsAffected(); cleared > 0 {
		r.GetLogger().Info("Scan history cleared",
			zap.String("email", email),
			zap.Int64("count", cleared),
		)
	}
	return nil
}
