package memory

import (
	"context"
	"sort"
	"time"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type tournamentRepository struct {
	db *DB
}

func (r *tournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	return r.db.write(ctx, func(s *state) error {
		s.tournamentSeq++
		now := r.db.timestamp()
		t.ID = s.tournamentSeq
		t.CreatedAt = now
		t.UpdatedAt = now
		s.tournaments[t.ID] = *t
		return nil
	})
}

func (r *tournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := r.db.read(ctx).tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

// GetByIDForUpdate needs no row lock: writers are already serialized.
func (r *tournamentRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *tournamentRepository) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0)
	for _, t := range r.db.read(ctx).tournaments {
		if !filter.IncludeInactive && !t.IsActive {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Format != nil && t.Format != *filter.Format {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *tournamentRepository) UpdateStatus(ctx context.Context, id int, from, to models.TournamentStatus) error {
	return r.db.write(ctx, func(s *state) error {
		t, ok := s.tournaments[id]
		if !ok {
			return repositories.ErrTournamentNotFound
		}
		if t.Status != from {
			return repositories.ErrConcurrencyConflict
		}
		t.Status = to
		t.UpdatedAt = r.db.timestamp()
		s.tournaments[id] = t
		return nil
	})
}

func (r *tournamentRepository) SetChampion(ctx context.Context, id int, participantID *int) error {
	return r.db.write(ctx, func(s *state) error {
		t, ok := s.tournaments[id]
		if !ok {
			return repositories.ErrTournamentNotFound
		}
		if participantID != nil {
			if _, ok := s.participants[*participantID]; !ok {
				return repositories.ErrInvalidReference
			}
		}
		t.ChampionParticipantID = participantID
		t.UpdatedAt = r.db.timestamp()
		s.tournaments[id] = t
		return nil
	})
}

func (r *tournamentRepository) Deactivate(ctx context.Context, id int) error {
	return r.db.write(ctx, func(s *state) error {
		t, ok := s.tournaments[id]
		if !ok {
			return repositories.ErrTournamentNotFound
		}
		t.IsActive = false
		t.UpdatedAt = r.db.timestamp()
		s.tournaments[id] = t
		return nil
	})
}

func (r *tournamentRepository) ListOpenStartingBefore(ctx context.Context, at time.Time) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0)
	for _, t := range r.db.read(ctx).tournaments {
		if t.Status == models.StatusOpen && t.IsActive && !t.StartDate.After(at) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
