package brackets

import (
	"context"
	"testing"
	"time"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// participants with ids 1..n, joined in id order, rated from ratings
func makeParticipants(ratings ...float64) []models.Participant {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	ps := make([]models.Participant, len(ratings))
	for i, r := range ratings {
		ps[i] = models.Participant{
			ID:             i + 1,
			TournamentID:   7,
			MemberID:       100 + i + 1,
			Status:         models.ParticipantRegistered,
			InitialRanking: r,
			JoinedAt:       base.Add(time.Duration(i) * time.Minute),
		}
	}
	return ps
}

func generateKnockout(t *testing.T, participants []models.Participant) []*BracketMatch {
	t.Helper()
	plan, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		Tournament:   &models.Tournament{ID: 7, Format: models.FormatKnockout},
		Participants: participants,
	})
	require.NoError(t, err)
	require.NoError(t, Validate(plan))
	return plan
}

func countByRound(plan []*BracketMatch) map[int]int {
	counts := map[int]int{}
	for _, bm := range plan {
		counts[bm.Round]++
	}
	return counts
}

func TestSeedPositions(t *testing.T) {
	assert.Equal(t, []int{1, 2}, SeedPositions(2))
	assert.Equal(t, []int{1, 4, 2, 3}, SeedPositions(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, SeedPositions(8))

	for _, size := range []int{2, 4, 8, 16, 32} {
		positions := SeedPositions(size)
		require.Len(t, positions, size)
		for i := 0; i < size; i += 2 {
			assert.Equal(t, size+1, positions[i]+positions[i+1], "round one pairs sum to size+1")
		}
	}
}

func TestBracketSize(t *testing.T) {
	cases := map[int]int{2: 2, 3: 4, 4: 4, 5: 8, 8: 8, 9: 16, 33: 64}
	for n, want := range cases {
		assert.Equal(t, want, BracketSize(n), "n=%d", n)
	}
	assert.Equal(t, 3, RoundCount(8))
	assert.Equal(t, 3, RoundCount(5))
	assert.Equal(t, 1, RoundCount(2))
}

func TestSingleElimination_EightSeeded(t *testing.T) {
	ordered := AssignSeeds(makeParticipants(1000, 1600, 900, 1300, 1500, 1200, 1400, 1100), true)
	require.Equal(t, 1600.0, ordered[0].InitialRanking)
	require.Equal(t, 900.0, ordered[7].InitialRanking)

	plan := generateKnockout(t, ordered)

	assert.Equal(t, map[int]int{1: 4, 2: 2, 3: 1}, countByRound(plan))

	seedOf := map[int]int{}
	for _, p := range ordered {
		seedOf[p.ID] = *p.Seed
	}

	first := plan[0]
	assert.Equal(t, 1, seedOf[*first.Participant1ID])
	assert.Equal(t, 8, seedOf[*first.Participant2ID])

	// seeds 1 and 2 land in different halves: round one matches 1-2 feed semifinal 1, 3-4 feed semifinal 2
	half := func(seed int) int {
		for i, bm := range plan[:4] {
			if seedOf[*bm.Participant1ID] == seed || seedOf[*bm.Participant2ID] == seed {
				return i / 2
			}
		}
		return -1
	}
	assert.NotEqual(t, half(1), half(2))
	assert.NotEqual(t, half(3), half(4))

	for _, bm := range plan {
		assert.False(t, bm.IsBye)
	}
	final := plan[len(plan)-1]
	assert.Equal(t, 3, final.Round)
	assert.Nil(t, final.NextMatchUID)
	require.NotNil(t, final.SourceMatch1UID)
	assert.Equal(t, "R2M1", *final.SourceMatch1UID)
	assert.Equal(t, "R2M2", *final.SourceMatch2UID)
}

func TestSingleElimination_FiveWithByes(t *testing.T) {
	ordered := AssignSeeds(makeParticipants(1500, 1400, 1300, 1200, 1100), true)
	plan := generateKnockout(t, ordered)

	assert.Equal(t, map[int]int{1: 4, 2: 2, 3: 1}, countByRound(plan))

	byes := map[int]bool{}
	for _, bm := range plan {
		if !bm.IsBye {
			continue
		}
		require.Equal(t, 1, bm.Round)
		require.NotNil(t, bm.ByeParticipantID)
		byes[*bm.ByeParticipantID] = true

		// the bye participant already sits in the round-two node
		require.NotNil(t, bm.NextMatchUID)
		next := findUID(plan, *bm.NextMatchUID)
		require.NotNil(t, next)
		assert.Equal(t, *bm.ByeParticipantID, *next.Slot(bm.NextSlot))
	}
	// seeds 1..3 are participants 1..3 since ratings descend with id
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, byes)

	played := 0
	for _, bm := range plan {
		if !bm.IsBye {
			played++
		}
	}
	assert.Equal(t, 4, played, "n-1 played matches")
}

func TestSingleElimination_MatchCount(t *testing.T) {
	for n := 2; n <= 33; n++ {
		ratings := make([]float64, n)
		for i := range ratings {
			ratings[i] = float64(2000 - i)
		}
		plan := generateKnockout(t, AssignSeeds(makeParticipants(ratings...), true))

		size := BracketSize(n)
		played, byes, finals := 0, 0, 0
		for _, bm := range plan {
			if bm.IsBye {
				byes++
			} else {
				played++
			}
			if bm.NextMatchUID == nil {
				finals++
			}
		}
		assert.Equal(t, size-1, len(plan), "n=%d", n)
		assert.Equal(t, size-n, byes, "n=%d", n)
		assert.Equal(t, n-1, played, "n=%d", n)
		assert.Equal(t, 1, finals, "n=%d", n)
	}
}

func TestSingleElimination_TooFew(t *testing.T) {
	_, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		Participants: makeParticipants(1200),
	})
	assert.ErrorIs(t, err, ErrInsufficientParticipants)
}

func TestOrderForSeeding_RegistrationOrder(t *testing.T) {
	ps := makeParticipants(1000, 1600, 1200)
	ps[0].JoinedAt, ps[2].JoinedAt = ps[2].JoinedAt, ps[0].JoinedAt

	ordered := OrderForSeeding(ps, false)
	assert.Equal(t, []int{3, 2, 1}, ids(ordered))

	// ties on rating fall back to join order
	tied := makeParticipants(1300, 1300, 1400)
	assert.Equal(t, []int{3, 1, 2}, ids(OrderForSeeding(tied, true)))
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator(models.FormatKnockout)
	require.NoError(t, err)
	assert.Equal(t, "SingleElimination", g.GetName())

	g, err = NewGenerator(models.FormatRoundRobin)
	require.NoError(t, err)
	assert.Equal(t, "RoundRobin", g.GetName())

	_, err = NewGenerator(models.FormatDoubleElimination)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supports(models.FormatTeamBattle))
}

func findUID(plan []*BracketMatch, uid string) *BracketMatch {
	for _, bm := range plan {
		if bm.UID == uid {
			return bm
		}
	}
	return nil
}

func ids(ps []models.Participant) []int {
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
