package common

import "github.com/agentrt/agentrt/chat"

// UsageTracker accumulates token usage across the deltas of a single
// provider streaming call. Providers report usage inconsistently: some only
// on the final chunk, some cumulatively on every chunk, some as per-chunk
// deltas — Add treats every report as a per-chunk delta, which is correct
// for the common case and harmless for a single final report.
type UsageTracker struct {
	total chat.Usage
}

// Add folds one chunk's usage into the running total.
func (u *UsageTracker) Add(chunk chat.Usage) {
	u.total.Add(chunk)
}

// Total returns the accumulated usage.
func (u *UsageTracker) Total() chat.Usage {
	return u.total
}
