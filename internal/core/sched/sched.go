// Package sched provides the single-threaded cooperative scheduler every
// engine component runs on. Tasks and periodic callbacks execute strictly one
// at a time, so engine state needs no locking as long as it is only touched
// from scheduled work.
package sched

import "time"

// Cancel stops a periodic callback. It is safe to call more than once.
type Cancel func()

// Scheduler runs posted tasks and periodic callbacks on one logical thread.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time
	// Post queues fn behind everything already queued.
	Post(fn func())
	// Every runs fn on the scheduler at the given cadence until canceled.
	// Late fires are coalesced rather than queued up.
	Every(interval time.Duration, fn func()) Cancel
}
