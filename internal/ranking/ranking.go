// Package ranking orders candidate cards for display.
package ranking

import (
	"sort"

	"deckhand/internal/card"
)

// Sort returns the cards ordered by ranking score, highest first. Cards with
// equal scores keep their relative input order. The input is not modified.
func Sort(cards []card.Card) []card.Card {
	sorted := make([]card.Card, len(cards))
	copy(sorted, cards)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RankingScore() > sorted[j].RankingScore()
	})
	return sorted
}

// IsSorted reports whether cards are in non-increasing score order.
func IsSorted(cards []card.Card) bool {
	for i := 1; i < len(cards); i++ {
		if cards[i].RankingScore() > cards[i-1].RankingScore() {
			return false
		}
	}
	return true
}
