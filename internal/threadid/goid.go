package threadid

import "runtime"

// goroutineID returns an identifier for the calling goroutine, parsed out
// of its own stack trace header.
//
// Go has no public API for this and, unlike the teacher package
// (internal/race/api/goid_fast.go), this module deliberately does not
// read an offset out of the unexported runtime.g struct: that trick is
// pinned to specific Go-version/arch combinations and has to be
// re-verified on every Go release, which is an acceptable cost for an
// internal dev-tool but not for a published concurrency primitive. See
// DESIGN.md.
//
// Grounded on internal/race/api/goid_generic.go and goid_fallback.go from
// the teacher repo: parse the "goroutine 123 [running]:" header that
// runtime.Stack always emits as its first line.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID extracts the numeric goroutine id from the header line
// produced by runtime.Stack. Returns 0 if the format is unrecognized.
func parseGID(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var gid int64
	for i := len(prefix); i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}
