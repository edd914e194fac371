package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

var errBoom = errors.New("boom")

func seed(t *testing.T, store *repositories.Store) (*models.Tournament, []*models.Member) {
	t.Helper()
	ctx := context.Background()
	tournament := &models.Tournament{
		Name: "Spring Open", Type: models.TypeDuel, Format: models.FormatKnockout,
		Status: models.StatusOpen, MaxParticipants: 8, IsActive: true,
		StartDate: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Tournaments.Create(ctx, tournament))

	members := make([]*models.Member, 0, 3)
	for _, name := range []string{"An", "Binh", "Chi"} {
		m := &models.Member{FullName: name, RankELO: 1200}
		require.NoError(t, store.Members.Create(ctx, m))
		members = append(members, m)
	}
	return tournament, members
}

func TestTransaction_RollbackDiscardsWrites(t *testing.T) {
	store := New()
	tournament, members := seed(t, store)
	ctx := context.Background()

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		p := &models.Participant{TournamentID: tournament.ID, MemberID: members[0].ID, Status: models.ParticipantRegistered}
		require.NoError(t, store.Participants.Create(ctx, p))

		count, err := store.Participants.CountActive(ctx, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "transaction sees its own write")

		outside, err := store.Participants.CountActive(context.Background(), tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, outside, "uncommitted write is invisible outside")
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	count, err := store.Participants.CountActive(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransaction_NestedJoinsOuter(t *testing.T) {
	store := New()
	tournament, _ := seed(t, store)
	ctx := context.Background()

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, store.WithinTransaction(ctx, func(ctx context.Context) error {
			return store.Tournaments.UpdateStatus(ctx, tournament.ID, models.StatusOpen, models.StatusOngoing)
		}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := store.Tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, got.Status, "inner write rolled back with the outer transaction")
}

func TestParticipants_UniquePerTournament(t *testing.T) {
	store := New()
	tournament, members := seed(t, store)
	ctx := context.Background()

	first := &models.Participant{TournamentID: tournament.ID, MemberID: members[0].ID, Status: models.ParticipantRegistered}
	require.NoError(t, store.Participants.Create(ctx, first))

	dup := &models.Participant{TournamentID: tournament.ID, MemberID: members[0].ID, Status: models.ParticipantRegistered}
	assert.ErrorIs(t, store.Participants.Create(ctx, dup), repositories.ErrParticipantConflict)

	ghost := &models.Participant{TournamentID: tournament.ID, MemberID: 999, Status: models.ParticipantRegistered}
	assert.ErrorIs(t, store.Participants.Create(ctx, ghost), repositories.ErrInvalidReference)
}

func TestParticipants_ListInRegistrationOrder(t *testing.T) {
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := New(WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	tournament, members := seed(t, store)
	ctx := context.Background()

	for i := len(members) - 1; i >= 0; i-- {
		p := &models.Participant{TournamentID: tournament.ID, MemberID: members[i].ID, Status: models.ParticipantRegistered}
		require.NoError(t, store.Participants.Create(ctx, p))
	}
	last, err := store.Participants.GetByTournamentAndMember(ctx, tournament.ID, members[0].ID)
	require.NoError(t, err)
	require.NoError(t, store.Participants.UpdateStatus(ctx, last.ID, models.ParticipantWithdrawn))

	all, err := store.Participants.ListByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, members[2].ID, all[0].MemberID)
	assert.Equal(t, members[0].ID, all[2].MemberID)

	active, err := store.Participants.ListByTournament(ctx, tournament.ID, models.ActiveParticipantStatuses...)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestMembers_UpdateRatingCompareAndSwap(t *testing.T) {
	store := New()
	_, members := seed(t, store)
	ctx := context.Background()
	m := members[0]

	require.NoError(t, store.Members.UpdateRating(ctx, m.ID, 1216, m.RowVersion))
	assert.ErrorIs(t, store.Members.UpdateRating(ctx, m.ID, 1232, m.RowVersion), repositories.ErrConcurrencyConflict)
	assert.ErrorIs(t, store.Members.UpdateRating(ctx, 404, 1000, 1), repositories.ErrMemberNotFound)

	got, err := store.Members.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1216.0, got.RankELO)
	assert.Equal(t, m.RowVersion+1, got.RowVersion)
}

func TestMatches_ResolveOnce(t *testing.T) {
	store := New()
	_, members := seed(t, store)
	ctx := context.Background()

	match := &models.Match{
		Format: models.MatchSingles, Result: models.MatchNone,
		Team1Player1ID: members[0].ID, Team2Player1ID: members[1].ID,
	}
	require.NoError(t, store.Matches.Create(ctx, match))

	now := time.Now()
	match.Result = models.MatchTeam1Win
	match.ResolvedAt = &now
	require.NoError(t, store.Matches.Resolve(ctx, match))
	assert.ErrorIs(t, store.Matches.Resolve(ctx, match), repositories.ErrMatchAlreadyResolved)

	byMember, err := store.Matches.ListByMember(ctx, members[1].ID)
	require.NoError(t, err)
	require.Len(t, byMember, 1)
	assert.Equal(t, models.MatchTeam1Win, byMember[0].Result)
}

func TestBrackets_OrderedAndLinked(t *testing.T) {
	store := New()
	tournament, _ := seed(t, store)
	ctx := context.Background()

	nodes := []*models.BracketNode{
		{TournamentID: tournament.ID, Round: 2, OrderInRound: 1, BracketType: models.BracketWinner},
		{TournamentID: tournament.ID, Round: 1, OrderInRound: 2, BracketType: models.BracketWinner},
		{TournamentID: tournament.ID, Round: 1, OrderInRound: 1, BracketType: models.BracketWinner},
	}
	require.NoError(t, store.Brackets.CreateNodes(ctx, nodes))

	slot := 1
	nodes[2].NextNodeID = &nodes[0].ID
	nodes[2].NextSlot = &slot
	require.NoError(t, store.Brackets.UpdateNode(ctx, nodes[2]))

	dangling := 9999
	nodes[1].NextNodeID = &dangling
	assert.ErrorIs(t, store.Brackets.UpdateNode(ctx, nodes[1]), repositories.ErrInvalidReference)

	list, err := store.Brackets.ListByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{1, 1, 2}, []int{list[0].Round, list[1].Round, list[2].Round})
	assert.Equal(t, 1, list[0].OrderInRound)
	require.NotNil(t, list[0].NextNodeID)
	assert.Equal(t, nodes[0].ID, *list[0].NextNodeID)

	require.NoError(t, store.Brackets.DeleteByTournament(ctx, tournament.ID))
	count, err := store.Brackets.CountByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConcurrentWritersAreSerialized(t *testing.T) {
	store := New()
	_, members := seed(t, store)
	ctx := context.Background()
	id := members[0].ID

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTransaction(ctx, func(ctx context.Context) error {
				m, err := store.Members.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return store.Members.UpdateRating(ctx, id, m.RankELO+1, m.RowVersion)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Members.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1200.0+writers, got.RankELO)
}
