package models

import "time"

type Member struct {
	ID         int       `json:"id" db:"id"`
	FullName   string    `json:"full_name" db:"full_name"`
	RankELO    float64   `json:"rank_elo" db:"rank_elo"`
	RowVersion int       `json:"-" db:"row_version"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// RatingChange is one member's rating movement caused by one resolved match.
type RatingChange struct {
	ID           int       `json:"id" db:"id"`
	MemberID     int       `json:"member_id" db:"member_id"`
	MatchID      int       `json:"match_id" db:"match_id"`
	RatingBefore float64   `json:"rating_before" db:"rating_before"`
	RatingAfter  float64   `json:"rating_after" db:"rating_after"`
	Delta        float64   `json:"delta" db:"delta"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type MemberStats struct {
	MemberID int     `json:"member_id"`
	FullName string  `json:"full_name"`
	Rating   float64 `json:"rating"`
	Played   int     `json:"played"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Draws    int     `json:"draws"`
}
