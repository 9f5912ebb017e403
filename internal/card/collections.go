package card

// GroupByType buckets cards by type, preserving their relative order.
func GroupByType(cards []Card) map[Type][]Card {
	grouped := make(map[Type][]Card)
	for _, c := range cards {
		grouped[c.cardType] = append(grouped[c.cardType], c)
	}
	return grouped
}

// Names returns card names in order.
func Names(cards []Card) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.name
	}
	return names
}

// DuplicateNames returns every name that occurs more than once, in order of
// its second occurrence.
func DuplicateNames(cards []Card) []string {
	seen := make(map[string]int, len(cards))
	var dups []string
	for _, c := range cards {
		seen[c.name]++
		if seen[c.name] == 2 {
			dups = append(dups, c.name)
		}
	}
	return dups
}

// Flatten concatenates the batches of an update in ascending type order.
func Flatten(update map[Type][]Card) []Card {
	var out []Card
	for _, t := range SortedTypes(update) {
		out = append(out, update[t]...)
	}
	return out
}
