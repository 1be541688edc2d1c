package defs

// Tid_t identifies a thread within a process. Matches the defs.Tid_t type
// biscuit's Pgfault/tinfo code threads through every fault-handling and
// per-thread bookkeeping call.
type Tid_t int
