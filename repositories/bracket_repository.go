package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

const bracketNodeColumns = `
	id, tournament_id, round, order_in_round, bracket_type, match_id,
	next_node_id, next_slot, source_node1_id, source_node2_id,
	participant1_id, participant2_id, winner_participant_id, is_bye,
	resolved_at, created_at, updated_at`

func scanBracketNode(row rowScanner) (*models.BracketNode, error) {
	n := &models.BracketNode{}
	err := row.Scan(
		&n.ID, &n.TournamentID, &n.Round, &n.OrderInRound, &n.BracketType, &n.MatchID,
		&n.NextNodeID, &n.NextSlot, &n.SourceNode1ID, &n.SourceNode2ID,
		&n.Participant1ID, &n.Participant2ID, &n.WinnerParticipantID, &n.IsBye,
		&n.ResolvedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// CreateNodes inserts the nodes in order. Links between nodes are written afterwards with
// UpdateNode once every node has an id.
func (r *postgresBracketRepository) CreateNodes(ctx context.Context, nodes []*models.BracketNode) error {
	query := `
		INSERT INTO bracket_nodes (
			tournament_id, round, order_in_round, bracket_type, match_id,
			next_node_id, next_slot, source_node1_id, source_node2_id,
			participant1_id, participant2_id, winner_participant_id, is_bye, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	exec := executor(ctx, r.db)
	for _, n := range nodes {
		err := exec.QueryRowContext(ctx, query,
			n.TournamentID, n.Round, n.OrderInRound, n.BracketType, n.MatchID,
			n.NextNodeID, n.NextSlot, n.SourceNode1ID, n.SourceNode2ID,
			n.Participant1ID, n.Participant2ID, n.WinnerParticipantID, n.IsBye, n.ResolvedAt,
		).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create bracket node R%d/%d: %w", n.Round, n.OrderInRound, mapPQError(err))
		}
	}
	return nil
}

func (r *postgresBracketRepository) UpdateNode(ctx context.Context, n *models.BracketNode) error {
	query := `
		UPDATE bracket_nodes SET
			match_id = $1, next_node_id = $2, next_slot = $3,
			source_node1_id = $4, source_node2_id = $5,
			participant1_id = $6, participant2_id = $7, winner_participant_id = $8,
			is_bye = $9, resolved_at = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING updated_at`

	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		n.MatchID, n.NextNodeID, n.NextSlot,
		n.SourceNode1ID, n.SourceNode2ID,
		n.Participant1ID, n.Participant2ID, n.WinnerParticipantID,
		n.IsBye, n.ResolvedAt, n.ID,
	).Scan(&n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBracketNodeNotFound
		}
		return fmt.Errorf("failed to update bracket node %d: %w", n.ID, mapPQError(err))
	}
	return nil
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, id int) (*models.BracketNode, error) {
	return r.findOne(ctx, `SELECT`+bracketNodeColumns+` FROM bracket_nodes WHERE id = $1`, id)
}

func (r *postgresBracketRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.BracketNode, error) {
	return r.findOne(ctx, forUpdate(ctx, `SELECT`+bracketNodeColumns+` FROM bracket_nodes WHERE id = $1`), id)
}

func (r *postgresBracketRepository) GetByMatchID(ctx context.Context, matchID int) (*models.BracketNode, error) {
	return r.findOne(ctx, `SELECT`+bracketNodeColumns+` FROM bracket_nodes WHERE match_id = $1`, matchID)
}

func (r *postgresBracketRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.BracketNode, error) {
	n, err := scanBracketNode(executor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNodeNotFound
		}
		return nil, fmt.Errorf("failed to get bracket node: %w", mapPQError(err))
	}
	return n, nil
}

func (r *postgresBracketRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.BracketNode, error) {
	query := `SELECT` + bracketNodeColumns + `
		FROM bracket_nodes
		WHERE tournament_id = $1
		ORDER BY bracket_type, round, order_in_round`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bracket nodes: %w", mapPQError(err))
	}
	defer rows.Close()

	nodes := make([]models.BracketNode, 0)
	for rows.Next() {
		n, err := scanBracketNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bracket node row: %w", err)
		}
		nodes = append(nodes, *n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bracket node rows: %w", err)
	}
	return nodes, nil
}

func (r *postgresBracketRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bracket_nodes WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bracket nodes: %w", mapPQError(err))
	}
	return count, nil
}

func (r *postgresBracketRepository) DeleteByTournament(ctx context.Context, tournamentID int) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM bracket_nodes WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete bracket of tournament %d: %w", tournamentID, mapPQError(err))
	}
	return nil
}
