package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type MatchFormat string

const (
	MatchSingles MatchFormat = "Singles"
	MatchDoubles MatchFormat = "Doubles"
)

func (f MatchFormat) Valid() bool {
	return f == MatchSingles || f == MatchDoubles
}

// TeamSize is the number of players per side.
func (f MatchFormat) TeamSize() int {
	if f == MatchDoubles {
		return 2
	}
	return 1
}

// MatchResult is the canonical result of a match. MatchNone is the only unresolved value.
type MatchResult string

const (
	MatchNone      MatchResult = "None"
	MatchTeam1Win  MatchResult = "Team1Win"
	MatchTeam2Win  MatchResult = "Team2Win"
	MatchDraw      MatchResult = "Draw"
	MatchCancelled MatchResult = "Cancelled"
)

var ErrUnknownMatchResult = errors.New("unknown match result")

// legacy names accepted from older clients
var matchResultAliases = map[string]MatchResult{
	"none":       MatchNone,
	"pending":    MatchNone,
	"team1win":   MatchTeam1Win,
	"player1win": MatchTeam1Win,
	"teamawin":   MatchTeam1Win,
	"team2win":   MatchTeam2Win,
	"player2win": MatchTeam2Win,
	"teambwin":   MatchTeam2Win,
	"draw":       MatchDraw,
	"cancelled":  MatchCancelled,
	"canceled":   MatchCancelled,
}

// ParseMatchResult accepts canonical and legacy result names, case-insensitively.
func ParseMatchResult(s string) (MatchResult, error) {
	r, ok := matchResultAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMatchResult, s)
	}
	return r, nil
}

func (r MatchResult) IsResolved() bool {
	return r != MatchNone && r != ""
}

// Decisive reports whether the result has a winning side.
func (r MatchResult) Decisive() bool {
	return r == MatchTeam1Win || r == MatchTeam2Win
}

type Match struct {
	ID             int         `json:"id" db:"id"`
	TournamentID   *int        `json:"tournament_id,omitempty" db:"tournament_id"`
	PlayedAt       time.Time   `json:"played_at" db:"played_at"`
	Format         MatchFormat `json:"format" db:"format"`
	Team1Player1ID int         `json:"team1_player1_id" db:"team1_player1_id"`
	Team1Player2ID *int        `json:"team1_player2_id,omitempty" db:"team1_player2_id"`
	Team2Player1ID int         `json:"team2_player1_id" db:"team2_player1_id"`
	Team2Player2ID *int        `json:"team2_player2_id,omitempty" db:"team2_player2_id"`
	Team1Score     *int        `json:"team1_score,omitempty" db:"team1_score"`
	Team2Score     *int        `json:"team2_score,omitempty" db:"team2_score"`
	Result         MatchResult `json:"result" db:"result"`
	EloDelta       *float64    `json:"elo_delta,omitempty" db:"elo_delta"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty" db:"resolved_at"`
}

func (m *Match) IsResolved() bool {
	return m.Result.IsResolved()
}

func (m *Match) Team1() []int {
	ids := []int{m.Team1Player1ID}
	if m.Team1Player2ID != nil {
		ids = append(ids, *m.Team1Player2ID)
	}
	return ids
}

func (m *Match) Team2() []int {
	ids := []int{m.Team2Player1ID}
	if m.Team2Player2ID != nil {
		ids = append(ids, *m.Team2Player2ID)
	}
	return ids
}

// Players returns every member on the court, team 1 first.
func (m *Match) Players() []int {
	return append(m.Team1(), m.Team2()...)
}

// SideOf returns 1 or 2 for a member playing in the match, 0 otherwise.
func (m *Match) SideOf(memberID int) int {
	for _, id := range m.Team1() {
		if id == memberID {
			return 1
		}
	}
	for _, id := range m.Team2() {
		if id == memberID {
			return 2
		}
	}
	return 0
}

// MatchScores is a reported scoreline.
type MatchScores struct {
	Team1 int `json:"team1_score"`
	Team2 int `json:"team2_score"`
}

// RatingDelta is one member's share of a settled match.
type RatingDelta struct {
	MemberID     int     `json:"memberId"`
	RatingBefore float64 `json:"ratingBefore"`
	RatingAfter  float64 `json:"ratingAfter"`
	Delta        float64 `json:"delta"`
}
