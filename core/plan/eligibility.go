package plan

import (
	"time"

	"github.com/kilianp07/meterplan/core/model"
)

// Snapshot carries the read-only state a planning operation works on. It is
// fetched once at the start of the operation and never re-read mid-way.
type Snapshot struct {
	Addresses    []model.Address
	Appointments []model.Appointment
	Availability []model.Availability
	Periods      []model.UnavailablePeriod
	Priorities   map[string]int
	Movements    []model.StockMovement
}

// Eligibility is the partitioned outcome of filtering a snapshot for one
// planning date.
type Eligibility struct {
	// Eligible is the ordered planning pool: needs-reschedule addresses
	// first (ranker order preserved among them), then the remaining ranked
	// addresses.
	Eligible []model.Address
	// RescheduleIDs marks the addresses surfaced with top priority.
	RescheduleIDs map[int64]bool
	// SkippedBlocked and SkippedBuffered are reported to operators but
	// excluded from the pool, both in ranker order.
	SkippedBlocked  []model.Address
	SkippedBuffered []model.Address
}

func unavailableIDs(periods []model.UnavailablePeriod, date time.Time) map[int64]bool {
	ids := make(map[int64]bool)
	for _, p := range periods {
		if p.AddressID == nil {
			continue
		}
		if p.Overlaps(date) {
			ids[*p.AddressID] = true
		}
	}
	return ids
}

// EligibleAddresses filters and orders the snapshot's addresses for the given
// date. An address leaves the pool entirely when it carries a live booking
// (scheduled, informed, completed or closed, any date), has a blocked reason,
// or has an unavailable period overlapping the date. Addresses whose latest
// relevant appointment is needs_reschedule stay eligible and go first.
func EligibleAddresses(date time.Time, snap Snapshot) Eligibility {
	live := make(map[model.AppointmentStatus]bool, len(model.LiveStatuses))
	for _, s := range model.LiveStatuses {
		live[s] = true
	}

	booked := make(map[int64]bool)
	for _, appt := range snap.Appointments {
		if live[appt.Status] {
			booked[appt.AddressID] = true
		}
	}

	unavailable := unavailableIDs(snap.Periods, date)
	statusByAddr := model.LatestStatusByAddress(snap.Appointments)

	rescheduleIDs := make(map[int64]bool)
	for id, status := range statusByAddr {
		if status == model.StatusNeedsReschedule {
			rescheduleIDs[id] = true
		}
	}

	ranked := RankAddresses(snap.Addresses, snap.Priorities)

	var reschedule, remaining, blocked, buffered []model.Address
	for _, addr := range ranked {
		if booked[addr.ID] || unavailable[addr.ID] {
			continue
		}
		switch {
		case addr.Blocked():
			blocked = append(blocked, addr)
		case addr.BufferFlag:
			buffered = append(buffered, addr)
		case rescheduleIDs[addr.ID]:
			reschedule = append(reschedule, addr)
		default:
			remaining = append(remaining, addr)
		}
	}

	eligible := make([]model.Address, 0, len(reschedule)+len(remaining))
	eligible = append(eligible, reschedule...)
	eligible = append(eligible, remaining...)

	return Eligibility{
		Eligible:        eligible,
		RescheduleIDs:   rescheduleIDs,
		SkippedBlocked:  blocked,
		SkippedBuffered: buffered,
	}
}
