package brackets

import (
	"context"
	"fmt"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket lays out a knockout tree. Round one always holds size/2 nodes; byes fall to the
// top seeds, are marked resolved, and their participant is pre-placed in the round-two node.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	participants := params.Participants
	n := len(participants)
	if n < 2 {
		return nil, fmt.Errorf("%w: single elimination got %d", ErrInsufficientParticipants, n)
	}

	size := BracketSize(n)
	positions := SeedPositions(size)
	seedToParticipant := func(seed int) *int {
		if seed > n {
			return nil
		}
		return intPtr(participants[seed-1].ID)
	}

	all := make([]*BracketMatch, 0, size-1)

	previous := make([]*BracketMatch, 0, size/2)
	for i := 0; i < size/2; i++ {
		bm := &BracketMatch{
			UID:            fmt.Sprintf("R1M%d", i+1),
			Round:          1,
			OrderInRound:   i + 1,
			Participant1ID: seedToParticipant(positions[2*i]),
			Participant2ID: seedToParticipant(positions[2*i+1]),
		}

		switch {
		case bm.Participant1ID == nil && bm.Participant2ID == nil:
			return nil, fmt.Errorf("internal error: round 1 match %d has two byes (participants=%d, size=%d)", i+1, n, size)
		case bm.Participant2ID == nil:
			bm.IsBye = true
			bm.ByeParticipantID = bm.Participant1ID
		case bm.Participant1ID == nil:
			bm.IsBye = true
			bm.ByeParticipantID = bm.Participant2ID
		}

		previous = append(previous, bm)
		all = append(all, bm)
	}

	for round := 2; len(previous) > 1; round++ {
		current := make([]*BracketMatch, 0, len(previous)/2)
		for i := 0; i < len(previous); i += 2 {
			upper, lower := previous[i], previous[i+1]

			bm := &BracketMatch{
				UID:             fmt.Sprintf("R%dM%d", round, i/2+1),
				Round:           round,
				OrderInRound:    i/2 + 1,
				SourceMatch1UID: strPtr(upper.UID),
				SourceMatch2UID: strPtr(lower.UID),
			}
			upper.NextMatchUID, upper.NextSlot = strPtr(bm.UID), 1
			lower.NextMatchUID, lower.NextSlot = strPtr(bm.UID), 2

			if upper.IsBye {
				bm.Participant1ID = intPtr(*upper.ByeParticipantID)
			}
			if lower.IsBye {
				bm.Participant2ID = intPtr(*lower.ByeParticipantID)
			}

			current = append(current, bm)
			all = append(all, bm)
		}
		previous = current
	}

	return all, nil
}

// RoundCount is the number of knockout rounds needed for n participants.
func RoundCount(n int) int {
	rounds := 0
	for size := BracketSize(n); size > 1; size >>= 1 {
		rounds++
	}
	return rounds
}

// Validate checks UIDs are unique and every next link points one round ahead.
func Validate(plan []*BracketMatch) error {
	byUID := make(map[string]*BracketMatch, len(plan))
	for _, bm := range plan {
		if _, dup := byUID[bm.UID]; dup {
			return fmt.Errorf("duplicate bracket match uid %s", bm.UID)
		}
		byUID[bm.UID] = bm
	}
	for _, bm := range plan {
		if bm.NextMatchUID == nil {
			continue
		}
		next, ok := byUID[*bm.NextMatchUID]
		if !ok {
			return fmt.Errorf("bracket match %s points to unknown match %s", bm.UID, *bm.NextMatchUID)
		}
		if next.Round != bm.Round+1 {
			return fmt.Errorf("bracket match %s (round %d) feeds %s in round %d", bm.UID, bm.Round, next.UID, next.Round)
		}
	}
	return nil
}
