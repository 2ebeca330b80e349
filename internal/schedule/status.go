package schedule

// Status is the closed set of booking lifecycle states. Every booking is in
// exactly one state at all times.
//
// Transitions:
//
//	SCHEDULED → COMPLETED (only once the booking window has ended)
//	SCHEDULED → CANCELLED
//
// COMPLETED and CANCELLED are terminal.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
