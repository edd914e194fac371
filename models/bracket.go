package models

import "time"

type BracketType string

const (
	BracketWinner BracketType = "Winner"
	BracketLoser  BracketType = "Loser"
)

// BracketNode is one scheduled match slot of a tournament. Round-robin nodes have no next node.
type BracketNode struct {
	ID                  int         `json:"id" db:"id"`
	TournamentID        int         `json:"tournament_id" db:"tournament_id"`
	Round               int         `json:"round" db:"round"`
	OrderInRound        int         `json:"order_in_round" db:"order_in_round"`
	BracketType         BracketType `json:"bracket_type" db:"bracket_type"`
	MatchID             *int        `json:"match_id,omitempty" db:"match_id"`
	NextNodeID          *int        `json:"next_node_id,omitempty" db:"next_node_id"`
	NextSlot            *int        `json:"next_slot,omitempty" db:"next_slot"`
	SourceNode1ID       *int        `json:"source_node1_id,omitempty" db:"source_node1_id"`
	SourceNode2ID       *int        `json:"source_node2_id,omitempty" db:"source_node2_id"`
	Participant1ID      *int        `json:"participant1_id,omitempty" db:"participant1_id"`
	Participant2ID      *int        `json:"participant2_id,omitempty" db:"participant2_id"`
	WinnerParticipantID *int        `json:"winner_participant_id,omitempty" db:"winner_participant_id"`
	IsBye               bool        `json:"is_bye" db:"is_bye"`
	ResolvedAt          *time.Time  `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}

func (n *BracketNode) IsResolved() bool {
	return n.ResolvedAt != nil
}

func (n *BracketNode) IsFinal() bool {
	return n.NextNodeID == nil
}

// Ready reports whether both slots are filled and the node can be played.
func (n *BracketNode) Ready() bool {
	return n.Participant1ID != nil && n.Participant2ID != nil
}

// Slot returns the participant in slot 1 or 2.
func (n *BracketNode) Slot(slot int) *int {
	if slot == 1 {
		return n.Participant1ID
	}
	return n.Participant2ID
}

// TournamentMatch pairs a bracket node with its match once scheduled.
type TournamentMatch struct {
	Node  BracketNode `json:"node"`
	Match *Match      `json:"match,omitempty"`
}

// BracketView is the full bracket of a tournament as rendered to clients.
type BracketView struct {
	Tournament   Tournament        `json:"tournament"`
	Participants []Participant     `json:"participants"`
	Matches      []TournamentMatch `json:"matches"`
}

// LeaderboardEntry keeps the field names the front-end already consumes.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	MemberID   int     `json:"memberId"`
	MemberName string  `json:"memberName"`
	Elo        float64 `json:"elo"`
}
