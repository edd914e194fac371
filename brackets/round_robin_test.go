package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobin_EveryPairOnce(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 6, 7, 8} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ratings := make([]float64, n)
			participants := makeParticipants(ratings...)

			plan, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
				Tournament:   &models.Tournament{ID: 7, Format: models.FormatRoundRobin},
				Participants: participants,
			})
			require.NoError(t, err)
			require.Len(t, plan, n*(n-1)/2)

			wantRounds := n - 1
			if n%2 == 1 {
				wantRounds = n
			}

			pairs := map[[2]int]int{}
			perRound := map[int]map[int]bool{}
			for _, bm := range plan {
				require.NotNil(t, bm.Participant1ID)
				require.NotNil(t, bm.Participant2ID)
				require.Nil(t, bm.NextMatchUID)

				a, b := *bm.Participant1ID, *bm.Participant2ID
				require.NotEqual(t, a, b)
				if a > b {
					a, b = b, a
				}
				pairs[[2]int{a, b}]++

				if perRound[bm.Round] == nil {
					perRound[bm.Round] = map[int]bool{}
				}
				assert.False(t, perRound[bm.Round][a], "participant %d plays twice in round %d", a, bm.Round)
				assert.False(t, perRound[bm.Round][b], "participant %d plays twice in round %d", b, bm.Round)
				perRound[bm.Round][a] = true
				perRound[bm.Round][b] = true

				assert.LessOrEqual(t, bm.Round, wantRounds)
			}

			for _, count := range pairs {
				assert.Equal(t, 1, count)
			}
			assert.Len(t, pairs, n*(n-1)/2)
			assert.Len(t, perRound, wantRounds)
		})
	}
}

func TestRoundRobin_TooFew(t *testing.T) {
	_, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		Participants: makeParticipants(1200),
	})
	assert.ErrorIs(t, err, ErrInsufficientParticipants)
}

func TestComputeStandings(t *testing.T) {
	participants := AssignSeeds(makeParticipants(1500, 1400, 1300), true)
	score := func(v int) *int { return &v }
	now := fixedTime()

	matches := map[int]models.Match{
		10: {ID: 10, Result: models.MatchTeam1Win, Team1Score: score(3), Team2Score: score(1)},
		11: {ID: 11, Result: models.MatchDraw, Team1Score: score(2), Team2Score: score(2)},
		12: {ID: 12, Result: models.MatchTeam2Win, Team1Score: score(0), Team2Score: score(5)},
	}
	node := func(id, p1, p2, matchID int) models.BracketNode {
		return models.BracketNode{
			ID: id, Participant1ID: intPtr(p1), Participant2ID: intPtr(p2),
			MatchID: intPtr(matchID), ResolvedAt: &now,
		}
	}
	nodes := []models.BracketNode{
		node(1, 1, 2, 10), // 1 beats 2 3-1
		node(2, 1, 3, 11), // 1 draws 3 2-2
		node(3, 2, 3, 12), // 3 beats 2 5-0
	}

	table := ComputeStandings(participants, nodes, matches)
	require.Len(t, table, 3)

	// 1: 1.5 pts (+2), 3: 1.5 pts (+5), 2: 0 pts
	assert.Equal(t, 3, table[0].ParticipantID)
	assert.Equal(t, 1.5, table[0].Points)
	assert.Equal(t, 1, table[1].ParticipantID)
	assert.Equal(t, 1.5, table[1].Points)
	assert.Equal(t, 2, table[2].ParticipantID)
	assert.Equal(t, 2, table[2].Losses)
	for i, row := range table {
		assert.Equal(t, i+1, row.Rank)
		assert.Equal(t, 2, row.Played)
	}
}

func TestComputeStandings_SeedBreaksTies(t *testing.T) {
	participants := AssignSeeds(makeParticipants(1200, 1600), true)
	table := ComputeStandings(participants, nil, nil)
	require.Len(t, table, 2)
	assert.Equal(t, 2, table[0].ParticipantID, "higher seed first when nothing is played")
}
