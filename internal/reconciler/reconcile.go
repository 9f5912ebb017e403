package reconciler

import (
	"deckhand/internal/card"
	"deckhand/internal/ranking"
	"deckhand/pkg/logging"
)

// Update is a partial update: the new complete batch for every type it names.
type Update map[card.Type][]card.Card

// CarryOver returns the cards of current that survive update.
func CarryOver(current []card.Card, update Update) []card.Card {
	keep := make([]card.Card, 0, len(current))

	if len(update) == 0 {
		for _, c := range current {
			if c.Type().IsConditional() {
				keep = append(keep, c)
			}
		}
		return keep
	}

	for _, c := range current {
		if _, replaced := update[c.Type()]; !replaced {
			keep = append(keep, c)
		}
	}
	return keep
}

// Merge returns carry-over followed by the update batches, unsorted.
func Merge(current []card.Card, update Update) []card.Card {
	merged := CarryOver(current, update)
	carried := len(merged)
	merged = append(merged, card.Flatten(update)...)

	logging.Debug("Reconciler", "Merged %d carried-over and %d updated cards across %d types",
		carried, len(merged)-carried, len(update))
	return merged
}

// Reconcile applies update to current and returns the new ranked set.
func Reconcile(current []card.Card, update Update) []card.Card {
	return ranking.Sort(Merge(current, update))
}

// Types returns the distinct card types of cards in first-seen order.
func Types(cards []card.Card) []card.Type {
	seen := make(map[card.Type]bool)
	var types []card.Type
	for _, c := range cards {
		if !seen[c.Type()] {
			seen[c.Type()] = true
			types = append(types, c.Type())
		}
	}
	return types
}
