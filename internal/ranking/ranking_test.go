package ranking

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"deckhand/internal/card"
)

func TestSort_StableForEqualScores(t *testing.T) {
	a := card.New(card.TypeSlice, "A", 5)
	b := card.New(card.TypeSlice, "B", 5)
	c := card.New(card.TypeSlice, "C", 9)

	sorted := Sort([]card.Card{a, b, c})

	assert.Equal(t, []string{"C", "A", "B"}, card.Names(sorted))
}

func TestSort_DoesNotReorderByNameOrType(t *testing.T) {
	in := []card.Card{
		card.New(card.TypeSlice, "zeta", 1),
		card.New(card.TypeConditional, "alpha", 1),
		card.New(card.TypeLegacySuggestion, "mid", 1),
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, card.Names(Sort(in)))
}

func TestSort_ConditionalWithLowerScoreIsLast(t *testing.T) {
	in := []card.Card{
		card.New(card.TypeConditional, "cond", 0),
		card.New(card.TypeSlice, "slice", 0.5),
	}
	sorted := Sort(in)
	assert.Equal(t, card.TypeConditional, sorted[len(sorted)-1].Type())
}

func TestSort_LeavesInputUntouched(t *testing.T) {
	in := []card.Card{card.New(card.TypeSlice, "low", 1), card.New(card.TypeSlice, "high", 2)}
	_ = Sort(in)
	assert.Equal(t, []string{"low", "high"}, card.Names(in))
}

func TestSort_Empty(t *testing.T) {
	assert.Empty(t, Sort(nil))
}

func TestSort_RandomInputsStayStable(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 50; iter++ {
		n := r.Intn(30)
		in := make([]card.Card, n)
		pos := make(map[string]int, n)
		for i := range in {
			name := string(rune('a'+i%26)) + string(rune('0'+i/26))
			in[i] = card.New(card.TypeSlice, name, float64(r.Intn(4)))
			pos[name] = i
		}

		out := Sort(in)

		assert.True(t, IsSorted(out))
		for i := 1; i < len(out); i++ {
			if out[i].RankingScore() == out[i-1].RankingScore() {
				assert.Less(t, pos[out[i-1].Name()], pos[out[i].Name()], "equal scores must keep input order")
			}
		}
	}
}
