package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

const memberColumns = `id, full_name, rank_elo, row_version, created_at, updated_at`

func scanMember(row rowScanner) (*models.Member, error) {
	m := &models.Member{}
	if err := row.Scan(&m.ID, &m.FullName, &m.RankELO, &m.RowVersion, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMemberRepository) Create(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (full_name, rank_elo)
		VALUES ($1, $2)
		RETURNING id, row_version, created_at, updated_at`

	err := executor(ctx, r.db).QueryRowContext(ctx, query, m.FullName, m.RankELO).
		Scan(&m.ID, &m.RowVersion, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", mapPQError(err))
	}
	return nil
}

func (r *postgresMemberRepository) GetByID(ctx context.Context, id int) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	m, err := scanMember(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member %d: %w", id, mapPQError(err))
	}
	return m, nil
}

func (r *postgresMemberRepository) ListByIDs(ctx context.Context, ids []int) ([]models.Member, error) {
	if len(ids) == 0 {
		return []models.Member{}, nil
	}
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = ANY($1) ORDER BY id`
	return r.queryMembers(ctx, query, pq.Array(ids))
}

func (r *postgresMemberRepository) UpdateRating(ctx context.Context, id int, rating float64, expectedVersion int) error {
	query := `
		UPDATE members
		SET rank_elo = $1, row_version = row_version + 1, updated_at = NOW()
		WHERE id = $2 AND row_version = $3`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, rating, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update member rating: %w", mapPQError(err))
	}
	if err := checkAffectedRows(result, ErrConcurrencyConflict); err != nil {
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	return nil
}

func (r *postgresMemberRepository) ListTopRated(ctx context.Context, limit int) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY rank_elo DESC, id ASC LIMIT $1`
	return r.queryMembers(ctx, query, limit)
}

func (r *postgresMemberRepository) queryMembers(ctx context.Context, query string, args ...interface{}) ([]models.Member, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", mapPQError(err))
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}
