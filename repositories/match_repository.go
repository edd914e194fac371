package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, played_at, format,
	team1_player1_id, team1_player2_id, team2_player1_id, team2_player2_id,
	team1_score, team2_score, result, elo_delta, created_at, resolved_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.PlayedAt, &m.Format,
		&m.Team1Player1ID, &m.Team1Player2ID, &m.Team2Player1ID, &m.Team2Player2ID,
		&m.Team1Score, &m.Team2Score, &m.Result, &m.EloDelta, &m.CreatedAt, &m.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (
			tournament_id, played_at, format,
			team1_player1_id, team1_player2_id, team2_player1_id, team2_player2_id,
			team1_score, team2_score, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		m.TournamentID, m.PlayedAt, m.Format,
		m.Team1Player1ID, m.Team1Player2ID, m.Team2Player1ID, m.Team2Player2ID,
		m.Team1Score, m.Team2Score, m.Result,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", mapPQError(err))
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	return r.get(ctx, id, false)
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Match, error) {
	return r.get(ctx, id, true)
}

func (r *postgresMatchRepository) get(ctx context.Context, id int, lock bool) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`
	if lock {
		query = forUpdate(ctx, query)
	}
	m, err := scanMatch(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, mapPQError(err))
	}
	return m, nil
}

func (r *postgresMatchRepository) Resolve(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches
		SET team1_score = $1, team2_score = $2, result = $3, elo_delta = $4, resolved_at = $5
		WHERE id = $6 AND result = $7`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		m.Team1Score, m.Team2Score, m.Result, m.EloDelta, m.ResolvedAt, m.ID, models.MatchNone,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve match %d: %w", m.ID, mapPQError(err))
	}
	if err := checkAffectedRows(result, ErrMatchAlreadyResolved); err != nil {
		if _, getErr := r.GetByID(ctx, m.ID); errors.Is(getErr, ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	return nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY id`
	return r.queryMatches(ctx, query, tournamentID)
}

func (r *postgresMatchRepository) ListByMember(ctx context.Context, memberID int) ([]models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE $1 IN (team1_player1_id, team1_player2_id, team2_player1_id, team2_player2_id)
		ORDER BY played_at DESC, id DESC`
	return r.queryMatches(ctx, query, memberID)
}

func (r *postgresMatchRepository) DeleteByIDs(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM matches WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to delete %d matches: %w", len(ids), mapPQError(err))
	}
	return nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", mapPQError(err))
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}
