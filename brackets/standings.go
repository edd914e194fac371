package brackets

import (
	"math"
	"sort"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

const (
	pointsWin  = 1.0
	pointsDraw = 0.5
)

// ComputeStandings builds the round-robin table from resolved nodes.
// Order: points, then score difference, then seed, then participant id.
// Cancelled matches count for nobody.
func ComputeStandings(participants []models.Participant, nodes []models.BracketNode, matches map[int]models.Match) []models.Standing {
	rows := make(map[int]*models.Standing, len(participants))
	table := make([]*models.Standing, 0, len(participants))
	for _, p := range participants {
		if p.Status == models.ParticipantWithdrawn {
			continue
		}
		row := &models.Standing{ParticipantID: p.ID, MemberID: p.MemberID, Seed: p.Seed}
		rows[p.ID] = row
		table = append(table, row)
	}

	for _, node := range nodes {
		if node.IsBye || !node.IsResolved() || node.MatchID == nil || !node.Ready() {
			continue
		}
		match, ok := matches[*node.MatchID]
		if !ok || match.Result == models.MatchCancelled || !match.IsResolved() {
			continue
		}
		home, away := rows[*node.Participant1ID], rows[*node.Participant2ID]
		if home == nil || away == nil {
			continue
		}

		home.Played++
		away.Played++
		if match.Team1Score != nil && match.Team2Score != nil {
			home.ScoreFor += *match.Team1Score
			home.ScoreAgainst += *match.Team2Score
			away.ScoreFor += *match.Team2Score
			away.ScoreAgainst += *match.Team1Score
		}

		switch match.Result {
		case models.MatchTeam1Win:
			home.Wins++
			home.Points += pointsWin
			away.Losses++
		case models.MatchTeam2Win:
			away.Wins++
			away.Points += pointsWin
			home.Losses++
		case models.MatchDraw:
			home.Draws++
			away.Draws++
			home.Points += pointsDraw
			away.Points += pointsDraw
		}
	}

	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.ScoreDifference() != b.ScoreDifference() {
			return a.ScoreDifference() > b.ScoreDifference()
		}
		if seedA, seedB := seedOrMax(a.Seed), seedOrMax(b.Seed); seedA != seedB {
			return seedA < seedB
		}
		return a.ParticipantID < b.ParticipantID
	})

	standings := make([]models.Standing, len(table))
	for i, row := range table {
		row.Rank = i + 1
		standings[i] = *row
	}
	return standings
}

func seedOrMax(seed *int) int {
	if seed == nil {
		return math.MaxInt
	}
	return *seed
}
