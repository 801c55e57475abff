package app

import "errors"

var (
	// ErrNoStock rejects operations that would reserve a meter when the
	// stock level is zero or negative.
	ErrNoStock = errors.New("no meters in stock")
	// ErrAddressNotFound means the referenced address does not exist.
	ErrAddressNotFound = errors.New("address not found")
	// ErrAlreadyPlanned means the address already has a live appointment.
	ErrAlreadyPlanned = errors.New("address already has a live appointment")
	// ErrNoAvailability means the technician declared no availability on
	// the requested day.
	ErrNoAvailability = errors.New("technician has no availability on date")
	// ErrAppointmentNotFound means the referenced appointment does not exist.
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrBadTransition rejects a status change the lifecycle does not allow.
	ErrBadTransition = errors.New("status transition not allowed")
	// ErrBadDuration rejects visit durations outside the configured bounds.
	ErrBadDuration = errors.New("visit duration out of bounds")
	// ErrNothingToReschedule means the address has no live appointment a
	// resident could push back.
	ErrNothingToReschedule = errors.New("no live appointment to reschedule")
)
