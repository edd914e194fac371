package brackets

import (
	"sort"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

// BracketSize returns the smallest power of two that holds n participants.
func BracketSize(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// SeedPositions returns the seed placed on each line of a bracket of the given size.
// Lines 2k and 2k+1 meet in round one. Positions are built by expanding [1,2] with
// s -> (s, size+1-s), so seed s always opens against seed size+1-s and the top two
// seeds sit in opposite halves.
func SeedPositions(size int) []int {
	if size < 2 {
		return []int{1}
	}
	positions := []int{1, 2}
	for len(positions) < size {
		next := make([]int, 0, len(positions)*2)
		total := len(positions)*2 + 1
		for _, s := range positions {
			next = append(next, s, total-s)
		}
		positions = next
	}
	return positions
}

// OrderForSeeding returns a copy of participants in seed order.
// With useSeeding the order is initial ranking descending, otherwise registration order.
// Registration order (join time, then id) breaks every tie.
func OrderForSeeding(participants []models.Participant, useSeeding bool) []models.Participant {
	ordered := make([]models.Participant, len(participants))
	copy(ordered, participants)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := &ordered[i], &ordered[j]
		if useSeeding && a.InitialRanking != b.InitialRanking {
			return a.InitialRanking > b.InitialRanking
		}
		return a.JoinedBefore(b)
	})
	return ordered
}

// AssignSeeds orders participants and numbers them from 1.
func AssignSeeds(participants []models.Participant, useSeeding bool) []models.Participant {
	ordered := OrderForSeeding(participants, useSeeding)
	for i := range ordered {
		ordered[i].Seed = intPtr(i + 1)
	}
	return ordered
}
