package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quangduy772005-oss/BKT2-FullStack/events"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/rating"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories/memory"
)

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type publishedEvent struct {
	kind         events.Kind
	tournamentID *int
	payload      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, kind events.Kind, tournamentID *int, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{kind: kind, tournamentID: tournamentID, payload: payload})
}

func (p *recordingPublisher) ofKind(kind events.Kind) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type recordingRefunds struct {
	mu       sync.Mutex
	refunded []int
}

func (r *recordingRefunds) RequestRefund(_ context.Context, _ models.Tournament, p models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunded = append(r.refunded, p.ID)
	return nil
}

type fixture struct {
	ctx   context.Context
	store *repositories.Store
	pub   *recordingPublisher

	tournaments TournamentService
	matches     MatchService
	brackets    BracketService
	members     MemberService
	leaderboard LeaderboardService
}

func newFixture(t *testing.T, refunds RefundRequester) *fixture {
	t.Helper()
	clock := func() time.Time { return baseTime }
	store := memory.New(memory.WithClock(clock))
	pub := &recordingPublisher{}
	opts := []Option{WithClock(clock), WithPublisher(pub)}

	return &fixture{
		ctx:         context.Background(),
		store:       store,
		pub:         pub,
		tournaments: NewTournamentService(store, refunds, opts...),
		matches:     NewMatchService(store, rating.NewEngine(rating.DefaultKFactor), opts...),
		brackets:    NewBracketService(store, opts...),
		members:     NewMemberService(store, opts...),
		leaderboard: NewLeaderboardService(store, opts...),
	}
}

func (f *fixture) createTournament(t *testing.T, format models.TournamentFormat, maxParticipants int) *models.Tournament {
	t.Helper()
	tournament, err := f.tournaments.CreateTournament(f.ctx, CreateTournamentInput{
		Name:            "Spring Cup",
		StartDate:       baseTime.Add(24 * time.Hour),
		EndDate:         baseTime.Add(72 * time.Hour),
		Type:            models.TypeProfessional,
		Format:          format,
		EntryFee:        50_000,
		MaxParticipants: maxParticipants,
	})
	require.NoError(t, err)
	return tournament
}

func (f *fixture) createMembers(t *testing.T, ratings ...float64) []*models.Member {
	t.Helper()
	out := make([]*models.Member, len(ratings))
	for i, r := range ratings {
		r := r
		m, err := f.members.CreateMember(f.ctx, CreateMemberInput{FullName: "Player", InitialRating: &r})
		require.NoError(t, err)
		out[i] = m
	}
	return out
}

func (f *fixture) joinAll(t *testing.T, tournamentID int, members []*models.Member) []*models.Participant {
	t.Helper()
	out := make([]*models.Participant, len(members))
	for i, m := range members {
		p, err := f.tournaments.JoinTournament(f.ctx, tournamentID, m.ID, nil)
		require.NoError(t, err)
		out[i] = p
	}
	return out
}

func (f *fixture) nodes(t *testing.T, tournamentID int) []models.BracketNode {
	t.Helper()
	nodes, err := f.store.Brackets.ListByTournament(f.ctx, tournamentID)
	require.NoError(t, err)
	return nodes
}

func (f *fixture) rating(t *testing.T, memberID int) float64 {
	t.Helper()
	m, err := f.members.GetMember(f.ctx, memberID)
	require.NoError(t, err)
	return m.RankELO
}

// playableNodes returns the nodes that have a match waiting for a result.
func playableNodes(nodes []models.BracketNode) []models.BracketNode {
	var out []models.BracketNode
	for _, n := range nodes {
		if !n.IsBye && n.MatchID != nil && !n.IsResolved() {
			out = append(out, n)
		}
	}
	return out
}

func seedsByParticipant(participants []models.Participant) map[int]int {
	out := make(map[int]int, len(participants))
	for _, p := range participants {
		if p.Seed != nil {
			out[p.ID] = *p.Seed
		}
	}
	return out
}
