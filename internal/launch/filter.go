// Package launch keeps the first card set shown after a process restart
// consistent with what the user saw before it.
package launch

import (
	"deckhand/internal/card"
	"deckhand/internal/reconciler"
	"deckhand/pkg/logging"
)

// Options configures a Filter.
type Options struct {
	// KeepShownOnReload restricts later aggregate loads to the cards already
	// shown, so returning to the page does not reshuffle it. Incremental
	// producer updates are never restricted.
	KeepShownOnReload bool
}

// Filter restricts newly produced cards on the first reconciliation pass to
// a previously saved allow-list of names. It is owned by the manager's pass
// loop and is not safe for concurrent use.
type Filter struct {
	allow     map[string]bool
	firstPass bool
	opts      Options
}

// NewFilter creates a filter. A nil saved list means no allow-list is
// available; the first pass is then unrestricted.
func NewFilter(saved []string, opts Options) *Filter {
	f := &Filter{firstPass: true, opts: opts}
	if saved != nil {
		f.allow = make(map[string]bool, len(saved))
		for _, name := range saved {
			f.allow[name] = true
		}
	}
	return f
}

// FirstPass reports whether the next Apply is the first pass.
func (f *Filter) FirstPass() bool {
	return f.firstPass
}

// Apply returns the update to reconcile. shown is the currently published
// set and fromLoad marks passes that complete an aggregate load. Batch keys
// are always preserved so an emptied batch still replaces its type.
func (f *Filter) Apply(update reconciler.Update, shown []card.Card, fromLoad bool) reconciler.Update {
	if f.firstPass {
		f.firstPass = false
		if f.allow == nil {
			return update
		}
		filtered := restrict(update, f.allow)
		logging.Debug("LaunchFilter", "First pass restricted to %d saved cards", len(f.allow))
		return filtered
	}

	if f.opts.KeepShownOnReload && fromLoad {
		names := make(map[string]bool, len(shown))
		for _, c := range shown {
			names[c.Name()] = true
		}
		return restrict(update, names)
	}

	return update
}

func restrict(update reconciler.Update, allow map[string]bool) reconciler.Update {
	out := make(reconciler.Update, len(update))
	for t, batch := range update {
		kept := make([]card.Card, 0, len(batch))
		for _, c := range batch {
			if allow[c.Name()] {
				kept = append(kept, c)
			}
		}
		out[t] = kept
	}
	return out
}
