package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

var (
	ErrInsufficientParticipants = errors.New("not enough participants to generate a bracket (minimum 2)")
	ErrUnsupportedFormat        = errors.New("tournament format has no bracket generator")
)

// GenerateBracketParams carries the participants in seed order: seed 1 first.
type GenerateBracketParams struct {
	Tournament   *models.Tournament
	Participants []models.Participant
}

// BracketMatch is a node of the generated plan, identified by UID until it is persisted.
type BracketMatch struct {
	UID          string
	Round        int
	OrderInRound int

	Participant1ID *int
	Participant2ID *int

	SourceMatch1UID *string
	SourceMatch2UID *string

	NextMatchUID *string
	NextSlot     int

	IsBye            bool
	ByeParticipantID *int
}

// Slot returns the participant pre-placed in slot 1 or 2.
func (bm *BracketMatch) Slot(slot int) *int {
	if slot == 1 {
		return bm.Participant1ID
	}
	return bm.Participant2ID
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// NewGenerator picks the pairing algorithm for a tournament format.
func NewGenerator(format models.TournamentFormat) (BracketGenerator, error) {
	switch format {
	case models.FormatKnockout:
		return NewSingleEliminationGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Supports reports whether NewGenerator can serve the format.
func Supports(format models.TournamentFormat) bool {
	_, err := NewGenerator(format)
	return err == nil
}

func intPtr(v int) *int {
	return &v
}

func strPtr(s string) *string {
	return &s
}
