// Package rating implements the ELO rating engine used to settle ranked matches.
package rating

import "math"

// DefaultKFactor is the maximum rating swing for a single match.
const DefaultKFactor = 32.0

// DefaultRating is assigned to members that have never played a ranked match.
const DefaultRating = 1200.0

// Outcome is a match result seen from side A.
type Outcome int

const (
	OutcomeLoss Outcome = iota
	OutcomeDraw
	OutcomeWin
)

// ActualScore returns the score side A earned for the outcome.
func (o Outcome) ActualScore() float64 {
	switch o {
	case OutcomeWin:
		return 1.0
	case OutcomeDraw:
		return 0.5
	default:
		return 0.0
	}
}

// Invert returns the same outcome seen from side B.
func (o Outcome) Invert() Outcome {
	switch o {
	case OutcomeWin:
		return OutcomeLoss
	case OutcomeLoss:
		return OutcomeWin
	default:
		return OutcomeDraw
	}
}

// ExpectedScore is the probability-weighted score A is expected to take from B.
func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// ComputeRatingDelta returns the rating changes for both sides of a two-party match.
// deltaB is always exactly -deltaA.
func ComputeRatingDelta(ratingA, ratingB float64, outcome Outcome, kFactor float64) (deltaA, deltaB float64) {
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}
	deltaA = kFactor * (outcome.ActualScore() - ExpectedScore(ratingA, ratingB))
	if deltaA == 0 {
		// avoid handing out -0
		return 0, 0
	}
	return deltaA, -deltaA
}

// TeamRating is the effective rating of a team: the mean of its members.
func TeamRating(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}

// ComputeTeamDeltas settles a match between two teams. The team delta is computed from the
// average ratings and split evenly between teammates. Singles are teams of one.
func ComputeTeamDeltas(teamA, teamB []float64, outcome Outcome, kFactor float64) (perPlayerA, perPlayerB []float64, teamDeltaA float64) {
	teamDeltaA, teamDeltaB := ComputeRatingDelta(TeamRating(teamA), TeamRating(teamB), outcome, kFactor)

	perPlayerA = make([]float64, len(teamA))
	for i := range perPlayerA {
		perPlayerA[i] = teamDeltaA / float64(len(teamA))
	}
	perPlayerB = make([]float64, len(teamB))
	for i := range perPlayerB {
		perPlayerB[i] = teamDeltaB / float64(len(teamB))
	}
	return perPlayerA, perPlayerB, teamDeltaA
}

// Engine carries the configured K factor.
type Engine struct {
	kFactor float64
}

// NewEngine falls back to DefaultKFactor when kFactor is not positive.
func NewEngine(kFactor float64) *Engine {
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}
	return &Engine{kFactor: kFactor}
}

// KFactor is the maximum rating swing per match.
func (e *Engine) KFactor() float64 {
	return e.kFactor
}

// Delta is ComputeRatingDelta with the engine's K factor.
func (e *Engine) Delta(ratingA, ratingB float64, outcome Outcome) (float64, float64) {
	return ComputeRatingDelta(ratingA, ratingB, outcome, e.kFactor)
}

// TeamDeltas is ComputeTeamDeltas with the engine's K factor.
func (e *Engine) TeamDeltas(teamA, teamB []float64, outcome Outcome) ([]float64, []float64, float64) {
	return ComputeTeamDeltas(teamA, teamB, outcome, e.kFactor)
}
