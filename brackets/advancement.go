package brackets

import (
	"errors"
	"fmt"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

var ErrNodeNotReady = errors.New("bracket node does not have two participants")

// DecideNode maps a decisive match result onto the node's participants.
// Slot 1 always plays as team 1.
func DecideNode(node *models.BracketNode, result models.MatchResult) (winnerID, loserID int, err error) {
	if !node.Ready() {
		return 0, 0, fmt.Errorf("%w: node %d", ErrNodeNotReady, node.ID)
	}
	switch result {
	case models.MatchTeam1Win:
		return *node.Participant1ID, *node.Participant2ID, nil
	case models.MatchTeam2Win:
		return *node.Participant2ID, *node.Participant1ID, nil
	default:
		return 0, 0, fmt.Errorf("result %s does not decide node %d", result, node.ID)
	}
}

// AdvanceWinner places the winner of node into its next node.
// A dangling or inconsistent link, or an occupied slot, is a broken bracket and panics.
func AdvanceWinner(node, next *models.BracketNode, winnerID int) {
	if node.NextNodeID == nil || node.NextSlot == nil {
		panic(fmt.Sprintf("brackets: node %d has no next node to advance into", node.ID))
	}
	if next == nil || next.ID != *node.NextNodeID {
		panic(fmt.Sprintf("brackets: node %d points to missing next node %d", node.ID, *node.NextNodeID))
	}
	if next.TournamentID != node.TournamentID || next.Round != node.Round+1 {
		panic(fmt.Sprintf("brackets: node %d (round %d) links to node %d (round %d) of tournament %d",
			node.ID, node.Round, next.ID, next.Round, next.TournamentID))
	}

	switch *node.NextSlot {
	case 1:
		if next.Participant1ID != nil {
			panic(fmt.Sprintf("brackets: slot 1 of node %d already holds participant %d", next.ID, *next.Participant1ID))
		}
		next.Participant1ID = intPtr(winnerID)
	case 2:
		if next.Participant2ID != nil {
			panic(fmt.Sprintf("brackets: slot 2 of node %d already holds participant %d", next.ID, *next.Participant2ID))
		}
		next.Participant2ID = intPtr(winnerID)
	default:
		panic(fmt.Sprintf("brackets: node %d has invalid next slot %d", node.ID, *node.NextSlot))
	}
}

// FinalNode returns the single node without a next link. It fails when the nodes do not form
// one knockout tree.
func FinalNode(nodes []models.BracketNode) (*models.BracketNode, bool) {
	var final *models.BracketNode
	for i := range nodes {
		if nodes[i].NextNodeID != nil {
			continue
		}
		if final != nil {
			return nil, false
		}
		final = &nodes[i]
	}
	return final, final != nil
}

// Completed reports whether a tournament's schedule has been played out.
// Knockout needs the final resolved, round robin needs every node resolved.
func Completed(format models.TournamentFormat, nodes []models.BracketNode) bool {
	if len(nodes) == 0 {
		return false
	}
	if format == models.FormatKnockout {
		final, ok := FinalNode(nodes)
		return ok && final.IsResolved()
	}
	for i := range nodes {
		if !nodes[i].IsResolved() {
			return false
		}
	}
	return true
}
