package plan

import "errors"

var (
	// ErrNoCapacity means the chosen date has no bookable slots.
	ErrNoCapacity = errors.New("no slots available for date")
	// ErrEmptyPlan means the eligible/slot/stock intersection yields nothing.
	ErrEmptyPlan = errors.New("nothing plannable")
	// ErrOrderMismatch means a manual reordering does not cover exactly the
	// eligible address set.
	ErrOrderMismatch = errors.New("reorder does not match eligible addresses")
	// ErrSchedulingConflict means the candidate interval overlaps an existing
	// scheduled appointment for the technician.
	ErrSchedulingConflict = errors.New("technician already booked in interval")
	// ErrOutsideHours means the candidate interval leaves the fixed daily
	// operating window.
	ErrOutsideHours = errors.New("interval outside operating hours")
	// ErrOutsideAvailability means the candidate interval leaves the
	// technician's declared working window.
	ErrOutsideAvailability = errors.New("interval outside declared availability")
	// ErrMalformedInput means date or time text could not be parsed at the
	// boundary.
	ErrMalformedInput = errors.New("malformed date or time input")
)
