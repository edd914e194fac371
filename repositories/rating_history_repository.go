package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

type postgresRatingHistoryRepository struct {
	db *sql.DB
}

func NewPostgresRatingHistoryRepository(db *sql.DB) RatingHistoryRepository {
	return &postgresRatingHistoryRepository{db: db}
}

const ratingChangeColumns = `id, member_id, match_id, rating_before, rating_after, delta, created_at`

func (r *postgresRatingHistoryRepository) Create(ctx context.Context, c *models.RatingChange) error {
	query := `
		INSERT INTO rating_history (member_id, match_id, rating_before, rating_after, delta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		c.MemberID, c.MatchID, c.RatingBefore, c.RatingAfter, c.Delta,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record rating change: %w", mapPQError(err))
	}
	return nil
}

func (r *postgresRatingHistoryRepository) ListByMember(ctx context.Context, memberID int, limit int) ([]models.RatingChange, error) {
	query := `SELECT ` + ratingChangeColumns + `
		FROM rating_history
		WHERE member_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []interface{}{memberID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

func (r *postgresRatingHistoryRepository) ListByMatch(ctx context.Context, matchID int) ([]models.RatingChange, error) {
	query := `SELECT ` + ratingChangeColumns + ` FROM rating_history WHERE match_id = $1 ORDER BY id`
	return r.query(ctx, query, matchID)
}

func (r *postgresRatingHistoryRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.RatingChange, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating history: %w", mapPQError(err))
	}
	defer rows.Close()

	changes := make([]models.RatingChange, 0)
	for rows.Next() {
		var c models.RatingChange
		if err := rows.Scan(&c.ID, &c.MemberID, &c.MatchID, &c.RatingBefore, &c.RatingAfter, &c.Delta, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating change row: %w", err)
		}
		changes = append(changes, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating history rows: %w", err)
	}
	return changes, nil
}
