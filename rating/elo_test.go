package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRatingDelta_EqualRatings(t *testing.T) {
	winner, loser := ComputeRatingDelta(1200, 1200, OutcomeWin, 32)
	assert.InDelta(t, 16.0, winner, 1e-9)
	assert.InDelta(t, -16.0, loser, 1e-9)

	a, b := ComputeRatingDelta(1200, 1200, OutcomeDraw, 32)
	assert.Zero(t, a)
	assert.Zero(t, b)
}

func TestComputeRatingDelta_Properties(t *testing.T) {
	ratings := []float64{100, 800, 1000, 1199.5, 1200, 1450, 1600, 2400, 3000}
	outcomes := []Outcome{OutcomeWin, OutcomeDraw, OutcomeLoss}
	kFactors := []float64{10, 16, 32, 40}

	for _, ra := range ratings {
		for _, rb := range ratings {
			for _, o := range outcomes {
				for _, k := range kFactors {
					da, db := ComputeRatingDelta(ra, rb, o, k)
					require.Equal(t, da, -db, "zero-sum for %v vs %v", ra, rb)
					require.LessOrEqual(t, math.Abs(da), k)

					again, _ := ComputeRatingDelta(ra, rb, o, k)
					require.Equal(t, da, again)

					// Swapping sides mirrors the result.
					mirrored, _ := ComputeRatingDelta(rb, ra, o.Invert(), k)
					require.InDelta(t, db, mirrored, 1e-9)
				}
			}
		}
	}
}

func TestComputeRatingDelta_UpsetPaysMore(t *testing.T) {
	favourite, _ := ComputeRatingDelta(1600, 1200, OutcomeWin, 32)
	underdog, _ := ComputeRatingDelta(1200, 1600, OutcomeWin, 32)

	assert.Greater(t, underdog, favourite)
	assert.InDelta(t, 32.0, favourite+underdog, 1e-9)
}

func TestComputeRatingDelta_DefaultK(t *testing.T) {
	d, _ := ComputeRatingDelta(1200, 1200, OutcomeWin, 0)
	assert.InDelta(t, DefaultKFactor/2, d, 1e-9)
}

func TestComputeTeamDeltas(t *testing.T) {
	teamA := []float64{1300, 1100}
	teamB := []float64{1200, 1200}

	a, b, teamDelta := ComputeTeamDeltas(teamA, teamB, OutcomeWin, 32)
	require.Len(t, a, 2)
	require.Len(t, b, 2)

	assert.InDelta(t, 16.0, teamDelta, 1e-9)
	assert.InDelta(t, 8.0, a[0], 1e-9)
	assert.InDelta(t, 8.0, a[1], 1e-9)
	assert.InDelta(t, -8.0, b[0], 1e-9)
	assert.InDelta(t, -8.0, b[1], 1e-9)

	total := a[0] + a[1] + b[0] + b[1]
	assert.InDelta(t, 0.0, total, 1e-9)
}

func TestEngine(t *testing.T) {
	e := NewEngine(-5)
	assert.Equal(t, DefaultKFactor, e.KFactor())

	e = NewEngine(20)
	a, b := e.Delta(1200, 1200, OutcomeLoss)
	assert.InDelta(t, -10.0, a, 1e-9)
	assert.InDelta(t, 10.0, b, 1e-9)
}
