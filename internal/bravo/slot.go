package bravo

import "sync/atomic"

// slot is one entry of the reader table. Each slot is padded out to a
// cache line so that two goroutines claiming adjacent slots don't fight
// over the same cache line — the same false-sharing concern the teacher
// pack's slot/ring-buffer implementations pad against (see e.g.
// other_examples' ZenQ ring buffer, which pads its counters the same
// way). Most modern CPUs use a 64-byte cache line.
type slot struct {
	occupied atomic.Bool
	_        [60]byte // padding: atomic.Bool is 4 bytes, bring the struct to 64
}
