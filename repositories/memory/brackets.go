package memory

import (
	"context"
	"sort"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type bracketRepository struct {
	db *DB
}

func (r *bracketRepository) CreateNodes(ctx context.Context, nodes []*models.BracketNode) error {
	return r.db.write(ctx, func(s *state) error {
		now := r.db.timestamp()
		for _, n := range nodes {
			if _, ok := s.tournaments[n.TournamentID]; !ok {
				return repositories.ErrInvalidReference
			}
			s.nodeSeq++
			n.ID = s.nodeSeq
			n.CreatedAt = now
			n.UpdatedAt = now
			s.nodes[n.ID] = *n
		}
		return nil
	})
}

func (r *bracketRepository) UpdateNode(ctx context.Context, n *models.BracketNode) error {
	return r.db.write(ctx, func(s *state) error {
		stored, ok := s.nodes[n.ID]
		if !ok {
			return repositories.ErrBracketNodeNotFound
		}
		for _, ref := range []*int{n.NextNodeID, n.SourceNode1ID, n.SourceNode2ID} {
			if ref == nil {
				continue
			}
			if _, ok := s.nodes[*ref]; !ok {
				return repositories.ErrInvalidReference
			}
		}
		n.TournamentID = stored.TournamentID
		n.CreatedAt = stored.CreatedAt
		n.UpdatedAt = r.db.timestamp()
		s.nodes[n.ID] = *n
		return nil
	})
}

func (r *bracketRepository) GetByID(ctx context.Context, id int) (*models.BracketNode, error) {
	n, ok := r.db.read(ctx).nodes[id]
	if !ok {
		return nil, repositories.ErrBracketNodeNotFound
	}
	return &n, nil
}

func (r *bracketRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.BracketNode, error) {
	return r.GetByID(ctx, id)
}

func (r *bracketRepository) GetByMatchID(ctx context.Context, matchID int) (*models.BracketNode, error) {
	for _, n := range r.db.read(ctx).nodes {
		if n.MatchID != nil && *n.MatchID == matchID {
			return &n, nil
		}
	}
	return nil, repositories.ErrBracketNodeNotFound
}

func (r *bracketRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.BracketNode, error) {
	out := make([]models.BracketNode, 0)
	for _, n := range r.db.read(ctx).nodes {
		if n.TournamentID == tournamentID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.BracketType != b.BracketType {
			return a.BracketType < b.BracketType
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.OrderInRound < b.OrderInRound
	})
	return out, nil
}

func (r *bracketRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	count := 0
	for _, n := range r.db.read(ctx).nodes {
		if n.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (r *bracketRepository) DeleteByTournament(ctx context.Context, tournamentID int) error {
	return r.db.write(ctx, func(s *state) error {
		for id, n := range s.nodes {
			if n.TournamentID == tournamentID {
				delete(s.nodes, id)
			}
		}
		return nil
	})
}
