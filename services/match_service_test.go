package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangduy772005-oss/BKT2-FullStack/events"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/rating"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

func TestRecordResultUpdatesRatings(t *testing.T) {
	f := newFixture(t, nil)
	players := f.createMembers(t, 1200, 1200)

	match, err := f.matches.CreateMatch(f.ctx, CreateMatchInput{
		Team1Player1ID: players[0].ID,
		Team2Player1ID: players[1].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchSingles, match.Format)
	assert.Equal(t, models.MatchNone, match.Result)

	recorded, err := f.matches.RecordResult(f.ctx, match.ID, models.MatchTeam1Win, &models.MatchScores{Team1: 21, Team2: 15})
	require.NoError(t, err)
	require.Len(t, recorded.RatingDeltas, 2)
	assert.InDelta(t, 16.0, recorded.RatingDeltas[0].Delta, 1e-9)
	assert.InDelta(t, -16.0, recorded.RatingDeltas[1].Delta, 1e-9)
	require.NotNil(t, recorded.Match.EloDelta)
	assert.InDelta(t, 16.0, *recorded.Match.EloDelta, 1e-9)
	assert.Nil(t, recorded.Node, "ad-hoc matches have no bracket node")

	assert.InDelta(t, 1216.0, f.rating(t, players[0].ID), 1e-9)
	assert.InDelta(t, 1184.0, f.rating(t, players[1].ID), 1e-9)

	stored, err := f.matches.GetMatch(f.ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchTeam1Win, stored.Result)
	require.NotNil(t, stored.Team1Score)
	assert.Equal(t, 21, *stored.Team1Score)
	assert.NotNil(t, stored.ResolvedAt)

	history, err := f.store.RatingHistory.ListByMatch(f.ctx, match.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	published := f.pub.ofKind(events.MatchResolved)
	require.Len(t, published, 1)
	payload := published[0].payload.(events.MatchResolvedPayload)
	assert.Equal(t, match.ID, payload.MatchID)
	assert.Len(t, payload.RatingDeltas, 2)
}

func TestRecordResultIsZeroSum(t *testing.T) {
	f := newFixture(t, nil)
	players := f.createMembers(t, 1612.5, 1187.25)
	match, err := f.matches.CreateMatch(f.ctx, CreateMatchInput{Team1Player1ID: players[0].ID, Team2Player1ID: players[1].ID})
	require.NoError(t, err)

	_, err = f.matches.RecordResult(f.ctx, match.ID, models.MatchTeam2Win, nil)
	require.NoError(t, err)

	total := f.rating(t, players[0].ID) + f.rating(t, players[1].ID)
	assert.InDelta(t, 1612.5+1187.25, total, 1e-9)
	assert.Greater(t, f.rating(t, players[1].ID), 1187.25, "upset gains rating")
}

func TestRecordResultAlreadyResolvedLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	players := f.createMembers(t, 1300, 1250)
	match, err := f.matches.CreateMatch(f.ctx, CreateMatchInput{Team1Player1ID: players[0].ID, Team2Player1ID: players[1].ID})
	require.NoError(t, err)

	_, err = f.matches.RecordResult(f.ctx, match.ID, models.MatchTeam1Win, nil)
	require.NoError(t, err)
	before0, before1 := f.rating(t, players[0].ID), f.rating(t, players[1].ID)

	_, err = f.matches.RecordResult(f.ctx, match.ID, models.MatchTeam2Win, nil)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	assert.Equal(t, before0, f.rating(t, players[0].ID))
	assert.Equal(t, before1, f.rating(t, players[1].ID))
	stored, err := f.matches.GetMatch(f.ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchTeam1Win, stored.Result)
	history, err := f.store.RatingHistory.ListByMatch(f.ctx, match.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Len(t, f.pub.ofKind(events.MatchResolved), 1)
}

func TestRecordResultRejectsInvalidResults(t *testing.T) {
	f := newFixture(t, nil)
	players := f.createMembers(t, 1200, 1200)
	match, err := f.matches.CreateMatch(f.ctx, CreateMatchInput{Team1Player1ID: players[0].ID, Team2Player1ID: players[1].ID})
	require.NoError(t, err)

	cases := []struct {
		name   string
		result models.MatchResult
		scores *models.MatchScores
	}{
		{"no result", models.MatchNone, nil},
		{"unknown result", models.MatchResult("Forfeit"), nil},
		{"winner with lower score", models.MatchTeam1Win, &models.MatchScores{Team1: 1, Team2: 3}},
		{"draw with uneven score", models.MatchDraw, &models.MatchScores{Team1: 2, Team2: 1}},
		{"negative score", models.MatchTeam2Win, &models.MatchScores{Team1: -1, Team2: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.matches.RecordResult(f.ctx, match.ID, tc.result, tc.scores)
			assert.ErrorIs(t, err, ErrInvalidResult)
		})
	}

	stored, err := f.matches.GetMatch(f.ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchNone, stored.Result)
	assert.Equal(t, 1200.0, f.rating(t, players[0].ID))

	_, err = f.matches.RecordResult(f.ctx, 4242, models.MatchDraw, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordResultDoublesSplitsTeamDelta(t *testing.T) {
	f := newFixture(t, nil)
	p := f.createMembers(t, 1300, 1100, 1200, 1200)

	match, err := f.matches.CreateMatch(f.ctx, CreateMatchInput{
		Format:         models.MatchDoubles,
		Team1Player1ID: p[0].ID,
		Team1Player2ID: &p[1].ID,
		Team2Player1ID: p[2].ID,
		Team2Player2ID: &p[3].ID,
	})
	require.NoError(t, err)

	recorded, err := f.matches.RecordResult(f.ctx, match.ID, models.MatchTeam1Win, nil)
	require.NoError(t, err)
	require.Len(t, recorded.RatingDeltas, 4)
	assert.InDelta(t, 16.0, *recorded.Match.EloDelta, 1e-9, "team averages are equal")

	assert.InDelta(t, 1308.0, f.rating(t, p[0].ID), 1e-9)
	assert.InDelta(t, 1108.0, f.rating(t, p[1].ID), 1e-9)
	assert.InDelta(t, 1192.0, f.rating(t, p[2].ID), 1e-9)
	assert.InDelta(t, 1192.0, f.rating(t, p[3].ID), 1e-9)
}

func TestRecordResultCancelledKeepsRatings(t *testing.T) {
	f := newFixture(t, nil)
	players := f.createMembers(t, 1400, 1200)
	match, err := f.matches.CreateMatch(f.ctx, CreateMatchInput{Team1Player1ID: players[0].ID, Team2Player1ID: players[1].ID})
	require.NoError(t, err)

	recorded, err := f.matches.RecordResult(f.ctx, match.ID, models.MatchCancelled, &models.MatchScores{Team1: 5, Team2: 0})
	require.NoError(t, err)
	assert.Empty(t, recorded.RatingDeltas)
	assert.Equal(t, models.MatchCancelled, recorded.Match.Result)
	assert.Nil(t, recorded.Match.Team1Score)

	assert.Equal(t, 1400.0, f.rating(t, players[0].ID))
	assert.Equal(t, 1200.0, f.rating(t, players[1].ID))
	history, err := f.store.RatingHistory.ListByMatch(f.ctx, match.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecordResultKnockoutNeedsWinner(t *testing.T) {
	f := newFixture(t, nil)
	tournament := f.createTournament(t, models.FormatKnockout, 2)
	f.joinAll(t, tournament.ID, f.createMembers(t, 1200, 1210))
	_, err := f.tournaments.StartTournament(f.ctx, tournament.ID, true)
	require.NoError(t, err)

	nodes := f.nodes(t, tournament.ID)
	require.Len(t, nodes, 1)
	require.NotNil(t, nodes[0].MatchID)

	for _, result := range []models.MatchResult{models.MatchDraw, models.MatchCancelled} {
		_, err = f.matches.RecordResult(f.ctx, *nodes[0].MatchID, result, nil)
		assert.ErrorIs(t, err, ErrInvalidResult, string(result))
	}

	recorded, err := f.matches.RecordResult(f.ctx, *nodes[0].MatchID, models.MatchTeam2Win, nil)
	require.NoError(t, err)
	require.NotNil(t, recorded.Champion)
	assert.Equal(t, *nodes[0].Participant2ID, *recorded.Champion)
	assert.Nil(t, recorded.NextNode)
	assert.Len(t, f.pub.ofKind(events.BracketUpdated), 1)
}

func TestCreateMatchValidation(t *testing.T) {
	f := newFixture(t, nil)
	p := f.createMembers(t, 1200, 1200, 1200)

	_, err := f.matches.CreateMatch(f.ctx, CreateMatchInput{Team1Player1ID: p[0].ID, Team2Player1ID: p[0].ID})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.matches.CreateMatch(f.ctx, CreateMatchInput{
		Format:         models.MatchDoubles,
		Team1Player1ID: p[0].ID,
		Team1Player2ID: &p[1].ID,
		Team2Player1ID: p[2].ID,
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.matches.CreateMatch(f.ctx, CreateMatchInput{Team1Player1ID: p[0].ID, Team2Player1ID: 777})
	assert.ErrorIs(t, err, ErrNotFound)

	open := f.createTournament(t, models.FormatRoundRobin, 4)
	_, err = f.matches.CreateMatch(f.ctx, CreateMatchInput{TournamentID: &open.ID, Team1Player1ID: p[0].ID, Team2Player1ID: p[1].ID})
	assert.ErrorIs(t, err, ErrInvalidState)
}

// racingMembers lets another writer bump a member's rating just before the first
// rating update of the transaction.
type racingMembers struct {
	repositories.MemberRepository
	raced bool
}

func (r *racingMembers) UpdateRating(ctx context.Context, id int, value float64, expectedVersion int) error {
	if !r.raced {
		r.raced = true
		m, err := r.MemberRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.MemberRepository.UpdateRating(ctx, id, m.RankELO+1, m.RowVersion); err != nil {
			return err
		}
	}
	return r.MemberRepository.UpdateRating(ctx, id, value, expectedVersion)
}

func TestRecordResultConcurrencyConflictRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	players := f.createMembers(t, 1400, 1350)
	match, err := f.matches.CreateMatch(f.ctx, CreateMatchInput{Team1Player1ID: players[0].ID, Team2Player1ID: players[1].ID})
	require.NoError(t, err)

	racing := *f.store
	racing.Members = &racingMembers{MemberRepository: f.store.Members}
	svc := NewMatchService(&racing, rating.NewEngine(rating.DefaultKFactor), WithClock(func() time.Time { return baseTime }))

	_, err = svc.RecordResult(f.ctx, match.ID, models.MatchTeam1Win, nil)
	require.ErrorIs(t, err, ErrConcurrencyConflict)

	stored, err := f.matches.GetMatch(f.ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchNone, stored.Result)
	assert.Nil(t, stored.ResolvedAt)
	assert.Equal(t, 1400.0, f.rating(t, players[0].ID))
	assert.Equal(t, 1350.0, f.rating(t, players[1].ID))
	history, err := f.store.RatingHistory.ListByMatch(f.ctx, match.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = f.matches.RecordResult(f.ctx, match.ID, models.MatchTeam1Win, nil)
	require.NoError(t, err)
}
