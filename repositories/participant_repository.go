package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

const participantColumns = `
	id, tournament_id, member_id, team_name, status, seed, initial_ranking, joined_at, updated_at`

func scanParticipant(row rowScanner) (*models.Participant, error) {
	p := &models.Participant{}
	err := row.Scan(
		&p.ID, &p.TournamentID, &p.MemberID, &p.TeamName, &p.Status,
		&p.Seed, &p.InitialRanking, &p.JoinedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, member_id, team_name, status, seed, initial_ranking)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, joined_at, updated_at`

	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		p.TournamentID, p.MemberID, p.TeamName, p.Status, p.Seed, p.InitialRanking,
	).Scan(&p.ID, &p.JoinedAt, &p.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "participants_tournament_id_member_id_key") {
			return ErrParticipantConflict
		}
		return fmt.Errorf("failed to create participant: %w", mapPQError(err))
	}
	return nil
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p, err := scanParticipant(executor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", mapPQError(err))
	}
	return p, nil
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresParticipantRepository) GetByTournamentAndMember(ctx context.Context, tournamentID, memberID int) (*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE tournament_id = $1 AND member_id = $2`
	return r.findOne(ctx, query, tournamentID, memberID)
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int, statuses ...models.ParticipantStatus) ([]models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if len(statuses) > 0 {
		query += " AND status = ANY($2)"
		args = append(args, statusArgs(statuses))
	}
	query += " ORDER BY joined_at ASC, id ASC"

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by tournament: %w", mapPQError(err))
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) CountActive(ctx context.Context, tournamentID int) (int, error) {
	query := `SELECT COUNT(*) FROM participants WHERE tournament_id = $1 AND status = ANY($2)`
	var count int
	err := executor(ctx, r.db).QueryRowContext(ctx, query, tournamentID, statusArgs(models.ActiveParticipantStatuses)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", mapPQError(err))
	}
	return count, nil
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error {
	query := `UPDATE participants SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor(ctx, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", mapPQError(err))
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateSeed(ctx context.Context, id int, seed *int) error {
	query := `UPDATE participants SET seed = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor(ctx, r.db).ExecContext(ctx, query, seed, id)
	if err != nil {
		return fmt.Errorf("failed to update participant seed: %w", mapPQError(err))
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
