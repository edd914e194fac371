package models

import "time"

type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "Registered"
	ParticipantPaid       ParticipantStatus = "Paid"
	ParticipantEliminated ParticipantStatus = "Eliminated"
	ParticipantWithdrawn  ParticipantStatus = "Withdrawn"
)

// ActiveParticipantStatuses are the statuses that occupy a tournament slot and enter the bracket.
var ActiveParticipantStatuses = []ParticipantStatus{ParticipantRegistered, ParticipantPaid}

func (s ParticipantStatus) IsActive() bool {
	return s == ParticipantRegistered || s == ParticipantPaid
}

type Participant struct {
	ID             int               `json:"id" db:"id"`
	TournamentID   int               `json:"tournament_id" db:"tournament_id"`
	MemberID       int               `json:"member_id" db:"member_id"`
	TeamName       *string           `json:"team_name,omitempty" db:"team_name"`
	Status         ParticipantStatus `json:"status" db:"status"`
	Seed           *int              `json:"seed,omitempty" db:"seed"`
	InitialRanking float64           `json:"initial_ranking" db:"initial_ranking"`
	JoinedAt       time.Time         `json:"joined_at" db:"joined_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// JoinedBefore orders participants by registration: join time, then id.
func (p *Participant) JoinedBefore(other *Participant) bool {
	if !p.JoinedAt.Equal(other.JoinedAt) {
		return p.JoinedAt.Before(other.JoinedAt)
	}
	return p.ID < other.ID
}
