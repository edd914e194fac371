package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, name, description, start_date, end_date, type, format, status,
	entry_fee, prize_pool, max_participants, champion_participant_id, is_active,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.StartDate, &t.EndDate, &t.Type, &t.Format, &t.Status,
		&t.EntryFee, &t.PrizePool, &t.MaxParticipants, &t.ChampionParticipantID, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, description, start_date, end_date, type, format, status,
			entry_fee, prize_pool, max_participants, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		t.Name, t.Description, t.StartDate, t.EndDate, t.Type, t.Format, t.Status,
		t.EntryFee, t.PrizePool, t.MaxParticipants, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	return r.get(ctx, id, false)
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Tournament, error) {
	return r.get(ctx, id, true)
}

func (r *postgresTournamentRepository) get(ctx context.Context, id int, lock bool) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	if lock {
		query = forUpdate(ctx, query)
	}
	t, err := scanTournament(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, r.handleTournamentError(err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if !filter.IncludeInactive {
		query += " AND is_active = TRUE"
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Format != nil {
		query += fmt.Sprintf(" AND format = $%d", argID)
		args = append(args, *filter.Format)
		argID++
	}

	query += " ORDER BY start_date DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	return r.queryTournaments(ctx, query, args...)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, from, to models.TournamentStatus) error {
	query := `
		UPDATE tournaments SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return r.handleTournamentError(err)
	}
	if err := checkAffectedRows(result, ErrConcurrencyConflict); err != nil {
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) SetChampion(ctx context.Context, id int, participantID *int) error {
	query := `UPDATE tournaments SET champion_participant_id = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor(ctx, r.db).ExecContext(ctx, query, participantID, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Deactivate(ctx context.Context, id int) error {
	query := `UPDATE tournaments SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	result, err := executor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListOpenStartingBefore(ctx context.Context, t time.Time) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE status = $1 AND is_active = TRUE AND start_date <= $2
		ORDER BY start_date ASC, id ASC`
	return r.queryTournaments(ctx, query, models.StatusOpen, t)
}

func (r *postgresTournamentRepository) queryTournaments(ctx context.Context, query string, args ...interface{}) ([]models.Tournament, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.handleTournamentError(err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotFound
	}
	return mapPQError(err)
}
