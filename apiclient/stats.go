package apiclient

import "sync/atomic"

// Stats is a snapshot of session-level counters, used by the load-test report
// to distinguish load generated from load delivered.
type Stats struct {
	Requests    uint64 // logical calls started
	Attempts    uint64 // HTTP attempts actually sent
	Retries     uint64 // attempts beyond the first, excluding auth re-sends
	AuthRetries uint64 // immediate re-sends after a 401
	Failures    uint64 // calls that returned a terminal error
	LoginCount  uint64 // completed login exchanges
}

type statCounters struct {
	requests    atomic.Uint64
	attempts    atomic.Uint64
	retries     atomic.Uint64
	authRetries atomic.Uint64
	failures    atomic.Uint64
}
