// Package events carries notifications out of committed transactions. Publishing never
// blocks the caller and delivery failures never reach it.
package events

import (
	"context"
	"time"
)

type Kind string

const (
	MatchResolved       Kind = "match.resolved"
	BracketBuilt        Kind = "bracket.built"
	BracketUpdated      Kind = "bracket.updated"
	TournamentStarted   Kind = "tournament.started"
	TournamentFinished  Kind = "tournament.finished"
	TournamentCancelled Kind = "tournament.cancelled"
	RefundRequested     Kind = "refund.requested"
)

type Event struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	TournamentID *int      `json:"tournamentId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, kind Kind, tournamentID *int, payload any)
}

// Sink receives delivered events. An error makes the bus retry the delivery later.
type Sink interface {
	Name() string
	Handle(ctx context.Context, event Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Kind, *int, any) {}

// Nop discards every event.
var Nop Publisher = nopPublisher{}

type MatchResolvedPayload struct {
	MatchID      int         `json:"matchId"`
	TournamentID *int        `json:"tournamentId,omitempty"`
	Result       string      `json:"result"`
	RatingDeltas []DeltaInfo `json:"ratingDeltas"`
}

type DeltaInfo struct {
	MemberID     int     `json:"memberId"`
	RatingBefore float64 `json:"ratingBefore"`
	RatingAfter  float64 `json:"ratingAfter"`
	Delta        float64 `json:"delta"`
}

type BracketPayload struct {
	TournamentID int    `json:"tournamentId"`
	Format       string `json:"format"`
	Nodes        int    `json:"nodes"`
	NodeID       *int   `json:"nodeId,omitempty"`
	NextNodeID   *int   `json:"nextNodeId,omitempty"`
	WinnerID     *int   `json:"winnerParticipantId,omitempty"`
}

type TournamentPayload struct {
	TournamentID int     `json:"tournamentId"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	ChampionID   *int    `json:"championParticipantId,omitempty"`
	Reason       *string `json:"reason,omitempty"`
}

type RefundPayload struct {
	TournamentID  int   `json:"tournamentId"`
	ParticipantID int   `json:"participantId"`
	MemberID      int   `json:"memberId"`
	Amount        int64 `json:"amount"`
}
