package brackets

import (
	"context"
	"fmt"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket schedules every pair exactly once using the circle method.
// Even fields play n-1 rounds; odd fields get a phantom entrant, so n rounds with one
// participant resting per round. Nodes have no next link.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	participants := params.Participants
	if len(participants) < 2 {
		return nil, fmt.Errorf("%w: round robin got %d", ErrInsufficientParticipants, len(participants))
	}

	circle := make([]*int, 0, len(participants)+1)
	for _, p := range participants {
		circle = append(circle, intPtr(p.ID))
	}
	if len(circle)%2 == 1 {
		circle = append(circle, nil)
	}

	size := len(circle)
	matches := make([]*BracketMatch, 0, len(participants)*(len(participants)-1)/2)

	for round := 1; round < size; round++ {
		order := 0
		for i := 0; i < size/2; i++ {
			home, away := circle[i], circle[size-1-i]
			if home == nil || away == nil {
				continue
			}
			// the fixed entrant alternates sides between rounds
			if i == 0 && round%2 == 0 {
				home, away = away, home
			}
			order++
			matches = append(matches, &BracketMatch{
				UID:            fmt.Sprintf("RR%dM%d", round, order),
				Round:          round,
				OrderInRound:   order,
				Participant1ID: intPtr(*home),
				Participant2ID: intPtr(*away),
			})
		}

		last := circle[size-1]
		copy(circle[2:], circle[1:size-1])
		circle[1] = last
	}

	return matches, nil
}
