package model

// SessionRecord is emitted once per natural completion of a focus countdown.
type SessionRecord struct {
	DurationMinutes int
	BreakMinutes    int
	Completed       bool
}
