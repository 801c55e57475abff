package model

import "time"

// Technician is a field worker replacing meters. Slot ordering ties are
// broken by Name, matching how operators read the plan.
type Technician struct {
	ID   int64
	Name string
}

// Appointment is a booked or historical visit for an address. Status is the
// single source of truth for the scheduling state of the address.
type Appointment struct {
	ID           int64
	AddressID    int64
	TechnicianID int64
	StartsAt     time.Time
	EndsAt       time.Time
	Status       AppointmentStatus

	Notes      string
	OldMeterNo string
	NewMeterNo string

	// Audit fields: who last changed the appointment and when. ChangedBy is
	// nil for resident-driven changes.
	ChangedAt *time.Time
	ChangedBy *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Availability is a technician's declared working window for one date.
// One entry per technician per date in normal flow.
type Availability struct {
	ID           int64
	TechnicianID int64
	Technician   string
	Date         time.Time // midnight of the working day
	Start        time.Time // within Date
	End          time.Time
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LatestStatusByAddress resolves the current status of each address from an
// appointment snapshot: the status of the appointment with the greatest
// StartsAt among RelevantStatuses wins. Pure function, no re-reads.
func LatestStatusByAddress(appointments []Appointment) map[int64]AppointmentStatus {
	relevant := make(map[AppointmentStatus]bool, len(RelevantStatuses))
	for _, s := range RelevantStatuses {
		relevant[s] = true
	}

	latest := make(map[int64]Appointment)
	for _, appt := range appointments {
		if !relevant[appt.Status] {
			continue
		}
		cur, ok := latest[appt.AddressID]
		if !ok || appt.StartsAt.After(cur.StartsAt) {
			latest[appt.AddressID] = appt
		}
	}

	out := make(map[int64]AppointmentStatus, len(latest))
	for id, appt := range latest {
		out[id] = appt.Status
	}
	return out
}
