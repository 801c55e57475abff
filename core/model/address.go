package model

import (
	"fmt"
	"time"
)

// Address is a customer location whose water meter must be replaced.
type Address struct {
	ID      int64
	Street  string
	HouseNo string
	Zip     string
	City    string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	// BufferFlag marks addresses that need a meter buffer or well note
	// before they can be visited. Buffered addresses are skipped by the
	// automatic planner and reported to operators instead.
	BufferFlag bool
	BufferNote string

	// BlockedReason, when non-nil, removes the address from planning
	// entirely.
	BlockedReason *string

	OldMeterNo string
	NewMeterNo string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Blocked reports whether the address is excluded by an operator block.
func (a Address) Blocked() bool { return a.BlockedReason != nil }

// Label returns the display form used in notes and notifications.
func (a Address) Label() string {
	return fmt.Sprintf("%s %s, %s %s", a.Street, a.HouseNo, a.Zip, a.City)
}

// UnavailablePeriod blocks planning for an address during a time range.
// Overlap with a planning day uses inclusive semantics on both ends.
type UnavailablePeriod struct {
	ID        int64
	AddressID *int64
	StartsAt  time.Time
	EndsAt    time.Time
	Note      string
	CreatedAt time.Time
}

// Overlaps reports whether the period touches the day containing day.
// The day is expanded to [00:00, 23:59:59.999...] and compared inclusively,
// matching how operators reason about whole-day absences.
func (p UnavailablePeriod) Overlaps(day time.Time) bool {
	dayStart := Midnight(day)
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return !p.StartsAt.After(dayEnd) && !p.EndsAt.Before(dayStart)
}

// Midnight truncates t to the start of its day, keeping the location.
func Midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
