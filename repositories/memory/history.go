package memory

import (
	"context"
	"sort"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type ratingHistoryRepository struct {
	db *DB
}

func (r *ratingHistoryRepository) Create(ctx context.Context, c *models.RatingChange) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.members[c.MemberID]; !ok {
			return repositories.ErrInvalidReference
		}
		if _, ok := s.matches[c.MatchID]; !ok {
			return repositories.ErrInvalidReference
		}
		s.historySeq++
		c.ID = s.historySeq
		c.CreatedAt = r.db.timestamp()
		s.history[c.ID] = *c
		return nil
	})
}

func (r *ratingHistoryRepository) ListByMember(ctx context.Context, memberID int, limit int) ([]models.RatingChange, error) {
	out := make([]models.RatingChange, 0)
	for _, c := range r.db.read(ctx).history {
		if c.MemberID == memberID {
			out = append(out, c)
		}
	}
	// ids grow with time, so newest first is id descending
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, 0), nil
}

func (r *ratingHistoryRepository) ListByMatch(ctx context.Context, matchID int) ([]models.RatingChange, error) {
	out := make([]models.RatingChange, 0)
	for _, c := range r.db.read(ctx).history {
		if c.MatchID == matchID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
