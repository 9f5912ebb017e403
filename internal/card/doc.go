// Package card defines the Card value that flows between producers, the
// reconciler and the manager.
//
// A Card is immutable once built. Producers construct a fresh set of cards
// for every update they emit; previously emitted cards are discarded rather
// than mutated.
//
// Card types are partitioned into families. The conditional family
// (CONDITIONAL, CONDITIONAL_HEADER, CONDITIONAL_FOOTER) is always produced
// locally and is the only family trusted to survive an empty update. The
// locally-owned set adds LEGACY_SUGGESTION; every other type is externally
// sourced.
package card
