package sched

// Suppressor marks programmatic commands so their echo, arriving later on the
// same scheduler, can be told apart from a genuine external event.
//
// Do raises the flag, runs the action and posts the clearing. The echo of the
// action is enqueued before the clearing, so it observes the flag raised.
// Raises are counted: the flag only drops once every Do has been cleared.
type Suppressor struct {
	scheduler  Scheduler
	depth      int
	generation int
}

// NewSuppressor creates a Suppressor clearing on scheduler.
func NewSuppressor(scheduler Scheduler) *Suppressor {
	return &Suppressor{scheduler: scheduler}
}

// Do runs action with the flag raised and schedules exactly one clearing.
func (suppressor *Suppressor) Do(action func()) {
	suppressor.depth++
	generation := suppressor.generation
	action()
	suppressor.scheduler.Post(func() {
		if suppressor.generation == generation && suppressor.depth > 0 {
			suppressor.depth--
		}
	})
}

// Active reports whether an echo should currently be ignored.
func (suppressor *Suppressor) Active() bool {
	return suppressor.depth > 0
}

// Reset drops the flag immediately. Pending clearings become no-ops.
func (suppressor *Suppressor) Reset() {
	suppressor.depth = 0
	suppressor.generation++
}
