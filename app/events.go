package app

import "time"

// Event is the union of planning lifecycle events published on the bus.
type Event any

// PlanPreviewed is published after a read-only plan computation.
type PlanPreviewed struct {
	Date      time.Time
	Planned   int
	Unplanned int
	SlotCount int
	Stock     int
}

// PlanCommitted is published after a plan commit persisted.
type PlanCommitted struct {
	Date     time.Time
	CommitID string
	Planned  int
	Actor    int64
}

// AppointmentUpdated is published when an appointment changes status.
type AppointmentUpdated struct {
	AppointmentID int64
	Status        string
	Actor         *int64
}
