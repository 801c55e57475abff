package model

import "fmt"

// AppointmentStatus describes where an appointment is in its lifecycle.
type AppointmentStatus int

const (
	StatusDraft AppointmentStatus = iota
	StatusScheduled
	StatusInformed
	StatusCompleted
	StatusClosed
	StatusNotHome
	StatusNeedsReschedule
)

// String returns the stable wire/storage name of the status.
func (s AppointmentStatus) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusScheduled:
		return "scheduled"
	case StatusInformed:
		return "informed"
	case StatusCompleted:
		return "completed"
	case StatusClosed:
		return "closed"
	case StatusNotHome:
		return "not_home"
	case StatusNeedsReschedule:
		return "needs_reschedule"
	default:
		return "unknown"
	}
}

// ParseStatus converts a storage name back into a status.
func ParseStatus(raw string) (AppointmentStatus, error) {
	switch raw {
	case "draft":
		return StatusDraft, nil
	case "scheduled":
		return StatusScheduled, nil
	case "informed":
		return StatusInformed, nil
	case "completed":
		return StatusCompleted, nil
	case "closed":
		return StatusClosed, nil
	case "not_home":
		return StatusNotHome, nil
	case "needs_reschedule":
		return StatusNeedsReschedule, nil
	default:
		return StatusDraft, fmt.Errorf("unknown appointment status %q", raw)
	}
}

// transitions is the closed set of allowed status changes. Closed is terminal.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusDraft:           {StatusScheduled, StatusClosed},
	StatusScheduled:       {StatusInformed, StatusCompleted, StatusClosed, StatusNotHome, StatusNeedsReschedule},
	StatusInformed:        {StatusCompleted, StatusClosed, StatusNotHome, StatusNeedsReschedule},
	StatusNotHome:         {StatusNeedsReschedule, StatusClosed},
	StatusNeedsReschedule: {StatusScheduled, StatusClosed},
	StatusCompleted:       {StatusClosed},
	StatusClosed:          nil,
}

// CanTransition reports whether moving from s to next is allowed.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	if s == next {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s AppointmentStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// LiveStatuses are the statuses that mark an address as already having a
// live or finished booking. Addresses carrying one of these never re-enter
// the planning pool.
var LiveStatuses = []AppointmentStatus{
	StatusScheduled, StatusInformed, StatusCompleted, StatusClosed,
}

// Live reports whether the status marks an address as booked.
func (s AppointmentStatus) Live() bool {
	for _, l := range LiveStatuses {
		if s == l {
			return true
		}
	}
	return false
}

// RelevantStatuses is the set consulted when resolving the current status of
// an address from its appointment history.
var RelevantStatuses = []AppointmentStatus{
	StatusScheduled, StatusInformed, StatusCompleted, StatusClosed,
	StatusNotHome, StatusNeedsReschedule,
}
