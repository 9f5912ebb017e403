// Package reconciler merges partial card updates into the authoritative set.
//
// # Overview
//
// Producers report cards in batches keyed by card type. A batch replaces all
// cards of its type; types absent from the update keep their previous cards.
// An update with no types at all means no externally sourced card is
// available for this pass, so only the conditional family survives.
//
// # Algorithm
//
//  1. carry-over: cards of the current set that the update does not touch
//     (or, for an empty update, the conditional family only)
//  2. merge: carry-over followed by the update batches, flattened in
//     ascending type order with each batch's order preserved
//  3. rank: stable sort by score, highest first
//
// Reconcile is a pure function. It neither deduplicates names nor checks
// type ownership; both are producer contract obligations enforced at the
// producer boundary. The caller owns the authoritative set and replaces it
// wholesale with the result.
//
// Example usage:
//
//	next := reconciler.Reconcile(current, map[card.Type][]card.Card{
//	    card.TypeSlice: sliceCards,
//	})
package reconciler
