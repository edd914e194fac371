package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type participantRepository struct {
	db *DB
}

func (r *participantRepository) Create(ctx context.Context, p *models.Participant) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.tournaments[p.TournamentID]; !ok {
			return repositories.ErrInvalidReference
		}
		if _, ok := s.members[p.MemberID]; !ok {
			return repositories.ErrInvalidReference
		}
		for _, existing := range s.participants {
			if existing.TournamentID == p.TournamentID && existing.MemberID == p.MemberID {
				return repositories.ErrParticipantConflict
			}
		}
		s.participantSeq++
		now := r.db.timestamp()
		p.ID = s.participantSeq
		p.JoinedAt = now
		p.UpdatedAt = now
		s.participants[p.ID] = *p
		return nil
	})
}

func (r *participantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	p, ok := r.db.read(ctx).participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	return &p, nil
}

func (r *participantRepository) GetByTournamentAndMember(ctx context.Context, tournamentID, memberID int) (*models.Participant, error) {
	for _, p := range r.db.read(ctx).participants {
		if p.TournamentID == tournamentID && p.MemberID == memberID {
			return &p, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *participantRepository) ListByTournament(ctx context.Context, tournamentID int, statuses ...models.ParticipantStatus) ([]models.Participant, error) {
	out := make([]models.Participant, 0)
	for _, p := range r.db.read(ctx).participants {
		if p.TournamentID != tournamentID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, p.Status) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedBefore(&out[j]) })
	return out, nil
}

func (r *participantRepository) CountActive(ctx context.Context, tournamentID int) (int, error) {
	count := 0
	for _, p := range r.db.read(ctx).participants {
		if p.TournamentID == tournamentID && p.Status.IsActive() {
			count++
		}
	}
	return count, nil
}

func (r *participantRepository) UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error {
	return r.update(ctx, id, func(p *models.Participant) { p.Status = status })
}

func (r *participantRepository) UpdateSeed(ctx context.Context, id int, seed *int) error {
	return r.update(ctx, id, func(p *models.Participant) { p.Seed = seed })
}

func (r *participantRepository) update(ctx context.Context, id int, apply func(p *models.Participant)) error {
	return r.db.write(ctx, func(s *state) error {
		p, ok := s.participants[id]
		if !ok {
			return repositories.ErrParticipantNotFound
		}
		apply(&p)
		p.UpdatedAt = r.db.timestamp()
		s.participants[id] = p
		return nil
	})
}
