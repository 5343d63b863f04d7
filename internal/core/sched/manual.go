package sched

import (
	"sort"
	"time"
)

// Manual is a deterministic Scheduler driven by a virtual clock. Nothing runs
// until the caller advances time or flushes the queue, which makes it the
// scheduler of choice for tests and simulations.
type Manual struct {
	now      time.Time
	queue    []func()
	periodic []*manualEntry
	seq      int
}

type manualEntry struct {
	interval time.Duration
	next     time.Time
	fn       func()
	canceled bool
	seq      int
}

// NewManual creates a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (manual *Manual) Now() time.Time {
	return manual.now
}

// Post queues fn until the next Flush or Advance.
func (manual *Manual) Post(fn func()) {
	if fn == nil {
		return
	}
	manual.queue = append(manual.queue, fn)
}

// Every registers fn to fire each interval of virtual time.
func (manual *Manual) Every(interval time.Duration, fn func()) Cancel {
	if interval <= 0 {
		interval = time.Second
	}
	manual.seq++
	entry := &manualEntry{
		interval: interval,
		next:     manual.now.Add(interval),
		fn:       fn,
		seq:      manual.seq,
	}
	manual.periodic = append(manual.periodic, entry)
	return func() {
		entry.canceled = true
	}
}

// Call runs fn immediately, as a Loop would when idle, and reports true.
func (manual *Manual) Call(fn func()) bool {
	fn()
	return true
}

// Pending returns the number of queued tasks.
func (manual *Manual) Pending() int {
	return len(manual.queue)
}

// Active returns the number of live periodic callbacks.
func (manual *Manual) Active() int {
	manual.compact()
	return len(manual.periodic)
}

// Flush runs queued tasks, including tasks they post, until the queue is empty.
func (manual *Manual) Flush() {
	for len(manual.queue) > 0 {
		task := manual.queue[0]
		manual.queue[0] = nil
		manual.queue = manual.queue[1:]
		task()
	}
}

// Step runs only the tasks queued at the time of the call. Tasks they post
// stay queued, which models exactly one scheduling tick.
func (manual *Manual) Step() {
	batch := manual.queue
	manual.queue = nil
	for _, task := range batch {
		task()
	}
}

// Advance moves the clock forward by d, firing every periodic callback that
// comes due on the way and flushing the queue after each fire. A callback that
// is overdue because of Stall fires once at the current time.
func (manual *Manual) Advance(d time.Duration) {
	manual.Flush()
	target := manual.now.Add(d)
	for {
		entry := manual.nextDue(target)
		if entry == nil {
			break
		}
		if entry.next.After(manual.now) {
			manual.now = entry.next
		}
		entry.next = manual.now.Add(entry.interval)
		entry.fn()
		manual.Flush()
	}
	if target.After(manual.now) {
		manual.now = target
	}
}

// Stall moves the clock forward by d without firing anything, the way a
// throttled or suspended host delays timers.
func (manual *Manual) Stall(d time.Duration) {
	manual.now = manual.now.Add(d)
}

func (manual *Manual) nextDue(target time.Time) *manualEntry {
	manual.compact()
	candidates := make([]*manualEntry, 0, len(manual.periodic))
	for _, entry := range manual.periodic {
		if !entry.next.After(target) {
			candidates = append(candidates, entry)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].next.Equal(candidates[j].next) {
			return candidates[i].seq < candidates[j].seq
		}
		return candidates[i].next.Before(candidates[j].next)
	})
	return candidates[0]
}

func (manual *Manual) compact() {
	live := manual.periodic[:0]
	for _, entry := range manual.periodic {
		if !entry.canceled {
			live = append(live, entry)
		}
	}
	for i := len(live); i < len(manual.periodic); i++ {
		manual.periodic[i] = nil
	}
	manual.periodic = live
}
