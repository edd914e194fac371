package models

// Standing is one participant's round-robin table row.
type Standing struct {
	Rank          int     `json:"rank"`
	ParticipantID int     `json:"participant_id"`
	MemberID      int     `json:"member_id"`
	Seed          *int    `json:"seed,omitempty"`
	Played        int     `json:"played"`
	Wins          int     `json:"wins"`
	Draws         int     `json:"draws"`
	Losses        int     `json:"losses"`
	Points        float64 `json:"points"`
	ScoreFor      int     `json:"score_for"`
	ScoreAgainst  int     `json:"score_against"`
}

func (s *Standing) ScoreDifference() int {
	return s.ScoreFor - s.ScoreAgainst
}
