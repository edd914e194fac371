package models

import (
	"fmt"
	"time"
)

// TournamentStatus mirrors the tournament_status column.
type TournamentStatus string

const (
	StatusOpen      TournamentStatus = "Open"
	StatusOngoing   TournamentStatus = "Ongoing"
	StatusFinished  TournamentStatus = "Finished"
	StatusCancelled TournamentStatus = "Cancelled"
)

func (s TournamentStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusOngoing, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

type TournamentType string

const (
	TypeDuel         TournamentType = "Duel"
	TypeMiniGame     TournamentType = "MiniGame"
	TypeProfessional TournamentType = "Professional"
)

func (t TournamentType) Valid() bool {
	switch t {
	case TypeDuel, TypeMiniGame, TypeProfessional:
		return true
	}
	return false
}

// TournamentFormat selects the pairing algorithm used when a tournament starts.
type TournamentFormat string

const (
	FormatRoundRobin        TournamentFormat = "RoundRobin"
	FormatKnockout          TournamentFormat = "Knockout"
	FormatTeamBattle        TournamentFormat = "TeamBattle"
	FormatDoubleElimination TournamentFormat = "DoubleElimination"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatRoundRobin, FormatKnockout, FormatTeamBattle, FormatDoubleElimination:
		return true
	}
	return false
}

// Tournament money fields are stored in minor currency units.
type Tournament struct {
	ID                    int              `json:"id" db:"id"`
	Name                  string           `json:"name" db:"name"`
	Description           *string          `json:"description,omitempty" db:"description"`
	StartDate             time.Time        `json:"start_date" db:"start_date"`
	EndDate               time.Time        `json:"end_date" db:"end_date"`
	Type                  TournamentType   `json:"type" db:"type"`
	Format                TournamentFormat `json:"format" db:"format"`
	Status                TournamentStatus `json:"status" db:"status"`
	EntryFee              int64            `json:"entry_fee" db:"entry_fee"`
	PrizePool             int64            `json:"prize_pool" db:"prize_pool"`
	MaxParticipants       int              `json:"max_participants" db:"max_participants"`
	ChampionParticipantID *int             `json:"champion_participant_id,omitempty" db:"champion_participant_id"`
	IsActive              bool             `json:"is_active" db:"is_active"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
}

// Room is the websocket room that receives live updates for the tournament.
func (t *Tournament) Room() string {
	return TournamentRoom(t.ID)
}

func TournamentRoom(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}
