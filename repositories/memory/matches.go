package memory

import (
	"context"
	"sort"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type matchRepository struct {
	db *DB
}

func (r *matchRepository) Create(ctx context.Context, m *models.Match) error {
	return r.db.write(ctx, func(s *state) error {
		if m.TournamentID != nil {
			if _, ok := s.tournaments[*m.TournamentID]; !ok {
				return repositories.ErrInvalidReference
			}
		}
		for _, id := range m.Players() {
			if _, ok := s.members[id]; !ok {
				return repositories.ErrInvalidReference
			}
		}
		s.matchSeq++
		m.ID = s.matchSeq
		m.CreatedAt = r.db.timestamp()
		s.matches[m.ID] = *m
		return nil
	})
}

func (r *matchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := r.db.read(ctx).matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r *matchRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Match, error) {
	return r.GetByID(ctx, id)
}

func (r *matchRepository) Resolve(ctx context.Context, m *models.Match) error {
	return r.db.write(ctx, func(s *state) error {
		stored, ok := s.matches[m.ID]
		if !ok {
			return repositories.ErrMatchNotFound
		}
		if stored.IsResolved() {
			return repositories.ErrMatchAlreadyResolved
		}
		stored.Team1Score = m.Team1Score
		stored.Team2Score = m.Team2Score
		stored.Result = m.Result
		stored.EloDelta = m.EloDelta
		stored.ResolvedAt = m.ResolvedAt
		s.matches[m.ID] = stored
		return nil
	})
}

func (r *matchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error) {
	out := make([]models.Match, 0)
	for _, m := range r.db.read(ctx).matches {
		if m.TournamentID != nil && *m.TournamentID == tournamentID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *matchRepository) ListByMember(ctx context.Context, memberID int) ([]models.Match, error) {
	out := make([]models.Match, 0)
	for _, m := range r.db.read(ctx).matches {
		if m.SideOf(memberID) != 0 {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlayedAt.Equal(out[j].PlayedAt) {
			return out[i].PlayedAt.After(out[j].PlayedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *matchRepository) DeleteByIDs(ctx context.Context, ids []int) error {
	return r.db.write(ctx, func(s *state) error {
		for _, id := range ids {
			delete(s.matches, id)
		}
		return nil
	})
}
