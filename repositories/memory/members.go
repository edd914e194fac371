package memory

import (
	"context"
	"sort"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type memberRepository struct {
	db *DB
}

func (r *memberRepository) Create(ctx context.Context, m *models.Member) error {
	return r.db.write(ctx, func(s *state) error {
		s.memberSeq++
		now := r.db.timestamp()
		m.ID = s.memberSeq
		m.RowVersion = 1
		m.CreatedAt = now
		m.UpdatedAt = now
		s.members[m.ID] = *m
		return nil
	})
}

func (r *memberRepository) GetByID(ctx context.Context, id int) (*models.Member, error) {
	m, ok := r.db.read(ctx).members[id]
	if !ok {
		return nil, repositories.ErrMemberNotFound
	}
	return &m, nil
}

func (r *memberRepository) ListByIDs(ctx context.Context, ids []int) ([]models.Member, error) {
	s := r.db.read(ctx)
	out := make([]models.Member, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if m, ok := s.members[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memberRepository) UpdateRating(ctx context.Context, id int, rating float64, expectedVersion int) error {
	return r.db.write(ctx, func(s *state) error {
		m, ok := s.members[id]
		if !ok {
			return repositories.ErrMemberNotFound
		}
		if m.RowVersion != expectedVersion {
			return repositories.ErrConcurrencyConflict
		}
		m.RankELO = rating
		m.RowVersion++
		m.UpdatedAt = r.db.timestamp()
		s.members[id] = m
		return nil
	})
}

func (r *memberRepository) ListTopRated(ctx context.Context, limit int) ([]models.Member, error) {
	out := make([]models.Member, 0)
	for _, m := range r.db.read(ctx).members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RankELO != out[j].RankELO {
			return out[i].RankELO > out[j].RankELO
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, 0), nil
}
