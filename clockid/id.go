package clockid

// ThreadID is an opaque OS thread identifier. The core never interprets
// its value; it only uses it as a map key (the per-thread capture stack)
// and, optionally, as part of a call-signature key.
type ThreadID uint64

// Rank identifies a process among the ranks participating in a trace.
// Rank 0 is the collector for every collective operation in package
// merge and the sole writer of trace-wide artifacts (recorder.mt,
// VERSION, ug.cfg, ug.mt).
type Rank int32
