package card

import (
	"fmt"
	"sort"
	"strings"
)

// Type identifies the category of a card and, through the producer registry,
// the producer that owns it.
type Type string

const (
	TypeConditional       Type = "CONDITIONAL"
	TypeConditionalHeader Type = "CONDITIONAL_HEADER"
	TypeConditionalFooter Type = "CONDITIONAL_FOOTER"
	TypeLegacySuggestion  Type = "LEGACY_SUGGESTION"
	TypeSlice             Type = "SLICE"

	// TypeDefault is the synthetic key under which the full ordered list is
	// delivered to the listener. No producer emits it.
	TypeDefault Type = "DEFAULT"
)

var knownTypes = map[Type]bool{
	TypeConditional:       true,
	TypeConditionalHeader: true,
	TypeConditionalFooter: true,
	TypeLegacySuggestion:  true,
	TypeSlice:             true,
	TypeDefault:           true,
}

// ConditionalFamily lists the types retained when an update carries no types.
var ConditionalFamily = []Type{TypeConditional, TypeConditionalHeader, TypeConditionalFooter}

// LocallyOwned lists the types whose producers are set up when the manager
// is created, before any card of that type exists.
var LocallyOwned = []Type{TypeConditional, TypeLegacySuggestion}

// ExternalTypes lists the producible types that aggregate loads may carry.
// Every other producible type belongs to a locally owned producer.
var ExternalTypes = []Type{TypeSlice}

// IsConditional reports whether t belongs to the conditional family.
func (t Type) IsConditional() bool {
	switch t {
	case TypeConditional, TypeConditionalHeader, TypeConditionalFooter:
		return true
	}
	return false
}

// IsLocallyOwned reports whether t is produced in-process: the conditional
// family or LEGACY_SUGGESTION. Loaded cards of these types are rejected.
func (t Type) IsLocallyOwned() bool {
	return t.IsConditional() || t == TypeLegacySuggestion
}

// IsKnown reports whether t is one of the declared types.
func (t Type) IsKnown() bool {
	return knownTypes[t]
}

func (t Type) String() string {
	return string(t)
}

// ParseType converts a case-insensitive name into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsKnown() {
		return "", fmt.Errorf("unknown card type %q", s)
	}
	return t, nil
}

// SortedTypes returns the keys of a batch map in ascending name order.
func SortedTypes[V any](m map[Type]V) []Type {
	types := make([]Type, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
