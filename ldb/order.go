package ldb

import (
	"fmt"
	"slices"

	"github.com/latchkey/latchkey"
)

// maxArrangeIterations bounds the reorder loop. A jump chain that can
// never resolve, such as a reference cycle, keeps recycling its records
// until the bound trips.
const maxArrangeIterations = 4096

// Arrange orders entries for display so a jump server comes immediately
// before the entries that bounce through it. Entries without a jump keep
// their input order; an entry with a jump is inserted right after the
// entry whose authority it bounces through, retried at the back of the
// queue until that target has been placed. This groups chains, it is not
// a topological sort.
func Arrange(entries []Entry) ([]Entry, error) {
	queue := slices.Clone(entries)
	out := make([]Entry, 0, len(entries))
	// Current output index of each placed authority signature. The first
	// entry carrying a signature claims it.
	placed := make(map[string]int, len(entries))

	for iterations := 0; len(queue) > 0; iterations++ {
		if iterations >= maxArrangeIterations {
			return nil, fmt.Errorf("%w: %d entries still unplaced", latchkey.ErrMaxIterations, len(queue))
		}
		rec := queue[0]
		queue = queue[1:]

		if rec.Jump == nil {
			out = place(out, placed, rec, len(out))
			continue
		}
		target, ok := placed[rec.Jump.Signature()]
		if !ok {
			queue = append(queue, rec)
			continue
		}
		out = place(out, placed, rec, target+1)
	}
	return out, nil
}

// place inserts rec into out at index at, shifting the recorded positions
// of everything behind it, and records rec's own signature if unseen.
func place(out []Entry, placed map[string]int, rec Entry, at int) []Entry {
	if at > len(out) {
		at = len(out)
	}
	for sig, idx := range placed {
		if idx >= at {
			placed[sig] = idx + 1
		}
	}
	if rec.Auth != nil {
		sig := rec.Auth.Signature()
		if _, ok := placed[sig]; !ok {
			placed[sig] = at
		}
	}
	return slices.Insert(out, at, rec)
}
