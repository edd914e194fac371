package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

func TestGetLeaderboard(t *testing.T) {
	f := newFixture(t, nil)
	tournament := f.createTournament(t, models.FormatKnockout, 8)
	members := f.createMembers(t, 1300, 1450, 1300, 1500, 1100)
	f.joinAll(t, tournament.ID, members)

	_, err := f.tournaments.WithdrawParticipant(f.ctx, tournament.ID, members[3].ID)
	require.NoError(t, err)

	entries, err := f.leaderboard.GetLeaderboard(f.ctx, tournament.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4, "withdrawn participants are not ranked")

	var order []int
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		order = append(order, e.MemberID)
	}
	// equal ratings keep registration order
	assert.Equal(t, []int{members[1].ID, members[0].ID, members[2].ID, members[4].ID}, order)

	top, err := f.leaderboard.GetLeaderboard(f.ctx, tournament.ID, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	raw, err := json.Marshal(entries[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"rank":1,"memberId":2,"memberName":"Player","elo":1450}`, string(raw))

	_, err = f.leaderboard.GetLeaderboard(f.ctx, 999, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLeaderboardFollowsCurrentRating(t *testing.T) {
	f := newFixture(t, nil)
	tournament := f.createTournament(t, models.FormatKnockout, 2)
	members := f.createMembers(t, 1300, 1290)
	f.joinAll(t, tournament.ID, members)
	_, err := f.tournaments.StartTournament(f.ctx, tournament.ID, true)
	require.NoError(t, err)

	nodes := f.nodes(t, tournament.ID)
	require.Len(t, nodes, 1)
	result := models.MatchTeam1Win
	if f.matchPlayer(t, *nodes[0].MatchID, 1) == members[0].ID {
		result = models.MatchTeam2Win
	}
	_, err = f.matches.RecordResult(f.ctx, *nodes[0].MatchID, result, nil)
	require.NoError(t, err)

	entries, err := f.leaderboard.GetLeaderboard(f.ctx, tournament.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "eliminated participants stay on the board")
	assert.Equal(t, members[1].ID, entries[0].MemberID)
}

func (f *fixture) matchPlayer(t *testing.T, matchID, side int) int {
	t.Helper()
	m, err := f.matches.GetMatch(f.ctx, matchID)
	require.NoError(t, err)
	if side == 1 {
		return m.Team1Player1ID
	}
	return m.Team2Player1ID
}

func TestGetGlobalLeaderboard(t *testing.T) {
	f := newFixture(t, nil)
	members := f.createMembers(t, 1200, 1600, 1400)

	entries, err := f.leaderboard.GetGlobalLeaderboard(f.ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, members[1].ID, entries[0].MemberID)
	assert.Equal(t, members[2].ID, entries[1].MemberID)
}

func TestGetBracketAndTournamentMatches(t *testing.T) {
	f := newFixture(t, nil)
	tournament := f.createTournament(t, models.FormatKnockout, 4)
	f.joinAll(t, tournament.ID, f.createMembers(t, 1200, 1300, 1400, 1500))
	_, err := f.tournaments.StartTournament(f.ctx, tournament.ID, true)
	require.NoError(t, err)

	view, err := f.leaderboard.GetBracket(f.ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, view.Tournament.ID)
	assert.Len(t, view.Participants, 4)
	require.Len(t, view.Matches, 3)

	scheduled := 0
	for _, tm := range view.Matches {
		if tm.Match != nil {
			scheduled++
			assert.Equal(t, *tm.Node.MatchID, tm.Match.ID)
		}
	}
	assert.Equal(t, 2, scheduled)

	matches, err := f.leaderboard.GetTournamentMatches(f.ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for i := 1; i < len(matches); i++ {
		prev, cur := matches[i-1].Node, matches[i].Node
		assert.True(t, prev.Round < cur.Round || (prev.Round == cur.Round && prev.OrderInRound < cur.OrderInRound))
	}

	_, err = f.leaderboard.GetBracket(f.ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMemberStatsAndHistory(t *testing.T) {
	f := newFixture(t, nil)
	p := f.createMembers(t, 1200, 1200, 1200)

	play := func(a, b int, result models.MatchResult) {
		m, err := f.matches.CreateMatch(f.ctx, CreateMatchInput{Team1Player1ID: a, Team2Player1ID: b})
		require.NoError(t, err)
		_, err = f.matches.RecordResult(f.ctx, m.ID, result, nil)
		require.NoError(t, err)
	}
	play(p[0].ID, p[1].ID, models.MatchTeam1Win)
	play(p[2].ID, p[0].ID, models.MatchTeam1Win)
	play(p[0].ID, p[2].ID, models.MatchDraw)
	play(p[1].ID, p[0].ID, models.MatchCancelled)

	stats, err := f.leaderboard.GetMemberStats(f.ctx, p[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Played)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, f.rating(t, p[0].ID), stats.Rating)

	history, err := f.leaderboard.GetRatingHistory(f.ctx, p[0].ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	_, err = f.leaderboard.GetMemberStats(f.ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateMemberDefaults(t *testing.T) {
	f := newFixture(t, nil)

	m, err := f.members.CreateMember(f.ctx, CreateMemberInput{FullName: " Lan Anh "})
	require.NoError(t, err)
	assert.Equal(t, "Lan Anh", m.FullName)
	assert.Equal(t, 1200.0, m.RankELO)

	_, err = f.members.CreateMember(f.ctx, CreateMemberInput{FullName: ""})
	assert.ErrorIs(t, err, ErrValidationFailed)

	negative := -5.0
	_, err = f.members.CreateMember(f.ctx, CreateMemberInput{FullName: "X", InitialRating: &negative})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
