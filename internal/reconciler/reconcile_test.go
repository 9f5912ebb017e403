package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckhand/internal/card"
	"deckhand/internal/ranking"
)

const (
	typeOne = card.TypeLegacySuggestion
	typeTwo = card.TypeSlice
)

func TestMerge_CarryOverOnTargetedUpdate(t *testing.T) {
	a := card.New(typeOne, "a", 1)
	b := card.New(typeTwo, "b", 1)
	c := card.New(typeTwo, "c", 1)

	merged := Merge([]card.Card{a, b}, Update{typeTwo: {c}})

	assert.ElementsMatch(t, []string{"a", "c"}, card.Names(merged))
	assert.Equal(t, []string{"a", "c"}, card.Names(merged), "carry-over comes first")
}

func TestCarryOver_EmptyUpdateKeepsOnlyConditional(t *testing.T) {
	current := []card.Card{
		card.New(card.TypeConditional, "cond", 1),
		card.New(card.TypeSlice, "slice", 1),
	}

	got := Reconcile(current, Update{})

	require.Len(t, got, 1)
	assert.Equal(t, card.TypeConditional, got[0].Type())
}

func TestCarryOver_EmptyUpdateKeepsHeaderAndFooter(t *testing.T) {
	tests := []struct {
		name string
		kind card.Type
	}{
		{"header", card.TypeConditionalHeader},
		{"footer", card.TypeConditionalFooter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := []card.Card{card.New(tt.kind, tt.name, 0)}

			got := Reconcile(current, Update{})

			require.Len(t, got, 1)
			assert.Equal(t, tt.kind, got[0].Type())
		})
	}
}

func TestCarryOver_NilUpdateBehavesAsEmpty(t *testing.T) {
	current := []card.Card{
		card.New(card.TypeLegacySuggestion, "legacy", 1),
		card.New(card.TypeConditionalFooter, "footer", 1),
	}
	assert.Equal(t, []string{"footer"}, card.Names(CarryOver(current, nil)))
}

func TestReconcile_UpdateWithEmptyBatchClearsThatTypeOnly(t *testing.T) {
	current := []card.Card{
		card.New(card.TypeSlice, "slice", 1),
		card.New(card.TypeLegacySuggestion, "legacy", 1),
	}

	got := Reconcile(current, Update{card.TypeSlice: nil})

	assert.Equal(t, []string{"legacy"}, card.Names(got))
}

func TestReconcile_RanksResult(t *testing.T) {
	current := []card.Card{card.New(card.TypeConditional, "low", 0)}
	update := Update{
		card.TypeSlice: {card.New(card.TypeSlice, "mid", 5), card.New(card.TypeSlice, "high", 9)},
	}

	got := Reconcile(current, update)

	assert.Equal(t, []string{"high", "mid", "low"}, card.Names(got))
	assert.True(t, ranking.IsSorted(got))
}

func TestReconcile_FlattensBatchesDeterministically(t *testing.T) {
	update := Update{
		card.TypeSlice:            {card.New(card.TypeSlice, "s", 1)},
		card.TypeConditional:      {card.New(card.TypeConditional, "c", 1)},
		card.TypeLegacySuggestion: {card.New(card.TypeLegacySuggestion, "l", 1)},
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, []string{"c", "l", "s"}, card.Names(Reconcile(nil, update)))
	}
}

func TestReconcile_IdempotentForRepeatedUpdate(t *testing.T) {
	update := Update{
		card.TypeSlice:       {card.New(card.TypeSlice, "s1", 3), card.New(card.TypeSlice, "s2", 1)},
		card.TypeConditional: {card.New(card.TypeConditional, "c1", 2)},
	}

	first := Reconcile(nil, update)
	second := Reconcile(first, update)

	assert.Equal(t, first, second)
	assert.Empty(t, card.DuplicateNames(second))
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	current := []card.Card{card.New(card.TypeSlice, "old", 1), card.New(card.TypeConditional, "keep", 2)}
	snapshot := append([]card.Card(nil), current...)
	update := Update{card.TypeSlice: {card.New(card.TypeSlice, "new", 3)}}

	_ = Reconcile(current, update)

	assert.Equal(t, snapshot, current)
	assert.Len(t, update[card.TypeSlice], 1)
}

func TestReconcile_DoesNotDeduplicate(t *testing.T) {
	current := []card.Card{card.New(card.TypeLegacySuggestion, "dup", 1)}
	update := Update{card.TypeSlice: {card.New(card.TypeSlice, "dup", 1)}}

	got := Reconcile(current, update)

	assert.Equal(t, []string{"dup"}, card.DuplicateNames(got),
		"duplicate names across producers are a contract violation the reconciler leaves visible")
}

func TestTypes_FirstSeenOrder(t *testing.T) {
	cards := []card.Card{
		card.New(card.TypeSlice, "a", 0),
		card.New(card.TypeConditional, "b", 0),
		card.New(card.TypeSlice, "c", 0),
	}
	assert.Equal(t, []card.Type{card.TypeSlice, card.TypeConditional}, Types(cards))
}
