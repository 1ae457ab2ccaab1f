package bravo

// Token is an opaque handle returned by a shared-lock acquisition and
// required by the matching release to know which path was used.
//
// Value 0 means "slow-path reader; release through the underlying lock."
// Values 1..SlotCount identify slot (value - 1). The integer encoding is
// an implementation detail, not part of the contract — callers should
// only ever pass a Token back to the mutex that produced it.
type Token uint32

// slowPathToken is the sentinel meaning "this reader holds the underlying
// lock directly, not a slot."
const slowPathToken Token = 0
