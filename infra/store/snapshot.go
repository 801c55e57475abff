package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/kilianp07/meterplan/core/model"
	"github.com/kilianp07/meterplan/core/plan"
)

// Snapshot reads the full planning state as of call time. The availability
// entries are limited to the given date; everything else is global, matching
// how the planner filters.
func (s *Store) Snapshot(ctx context.Context, date time.Time) (plan.Snapshot, error) {
	var snap plan.Snapshot
	var err error
	if snap.Addresses, err = s.Addresses(ctx); err != nil {
		return plan.Snapshot{}, err
	}
	if snap.Appointments, err = s.Appointments(ctx); err != nil {
		return plan.Snapshot{}, err
	}
	if snap.Availability, err = s.AvailabilityOn(ctx, date); err != nil {
		return plan.Snapshot{}, err
	}
	if snap.Periods, err = s.UnavailablePeriods(ctx); err != nil {
		return plan.Snapshot{}, err
	}
	if snap.Priorities, err = s.PriorityMap(ctx); err != nil {
		return plan.Snapshot{}, err
	}
	if snap.Movements, err = s.Movements(ctx); err != nil {
		return plan.Snapshot{}, err
	}
	return snap, nil
}

// Addresses returns every address.
func (s *Store) Addresses(ctx context.Context) ([]model.Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, street, house_no, zip, city,
        customer_name, customer_email, customer_phone, buffer_flag, buffer_note,
        blocked_reason, old_meter_no, new_meter_no, created_at, updated_at
        FROM addresses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Address
	for rows.Next() {
		var a model.Address
		var buffer int
		var blocked sql.NullString
		var created, updated int64
		if err := rows.Scan(&a.ID, &a.Street, &a.HouseNo, &a.Zip, &a.City,
			&a.CustomerName, &a.CustomerEmail, &a.CustomerPhone, &buffer, &a.BufferNote,
			&blocked, &a.OldMeterNo, &a.NewMeterNo, &created, &updated); err != nil {
			return nil, err
		}
		a.BufferFlag = buffer != 0
		if blocked.Valid {
			reason := blocked.String
			a.BlockedReason = &reason
		}
		a.CreatedAt = fromUnix(created)
		a.UpdatedAt = fromUnix(updated)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Appointments returns every appointment.
func (s *Store) Appointments(ctx context.Context) ([]model.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, address_id, technician_id,
        starts_at, ends_at, status, notes, old_meter_no, new_meter_no,
        changed_at, changed_by, created_at, updated_at
        FROM appointments ORDER BY starts_at`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		var starts, ends, created, updated int64
		var status string
		var changedAt, changedBy sql.NullInt64
		if err := rows.Scan(&appt.ID, &appt.AddressID, &appt.TechnicianID,
			&starts, &ends, &status, &appt.Notes, &appt.OldMeterNo, &appt.NewMeterNo,
			&changedAt, &changedBy, &created, &updated); err != nil {
			return nil, err
		}
		if appt.Status, err = model.ParseStatus(status); err != nil {
			return nil, err
		}
		appt.StartsAt = fromUnix(starts)
		appt.EndsAt = fromUnix(ends)
		appt.ChangedAt = fromNullUnix(changedAt)
		appt.ChangedBy = nullID(changedBy)
		appt.CreatedAt = fromUnix(created)
		appt.UpdatedAt = fromUnix(updated)
		out = append(out, appt)
	}
	return out, rows.Err()
}

// AvailabilityOn returns the declared windows for one date, joined with the
// technician name used for slot ordering.
func (s *Store) AvailabilityOn(ctx context.Context, date time.Time) ([]model.Availability, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id, a.technician_id, t.name,
        a.day, a.start_at, a.end_at, a.note, a.created_at, a.updated_at
        FROM availability a JOIN technicians t ON t.id = a.technician_id
        WHERE a.day = ? ORDER BY t.name`, date.Format(dayFormat))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanAvailability(rows)
}

// AvailabilityForTechnician returns the declared window for one technician
// and date, or nil when none exists.
func (s *Store) AvailabilityForTechnician(ctx context.Context, technicianID int64, date time.Time) (*model.Availability, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id, a.technician_id, t.name,
        a.day, a.start_at, a.end_at, a.note, a.created_at, a.updated_at
        FROM availability a JOIN technicians t ON t.id = a.technician_id
        WHERE a.technician_id = ? AND a.day = ?`, technicianID, date.Format(dayFormat))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	entries, err := scanAvailability(rows)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func scanAvailability(rows *sql.Rows) ([]model.Availability, error) {
	var out []model.Availability
	for rows.Next() {
		var av model.Availability
		var day string
		var start, end, created, updated int64
		if err := rows.Scan(&av.ID, &av.TechnicianID, &av.Technician,
			&day, &start, &end, &av.Note, &created, &updated); err != nil {
			return nil, err
		}
		d, err := time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, err
		}
		av.Date = d
		av.Start = fromUnix(start)
		av.End = fromUnix(end)
		av.CreatedAt = fromUnix(created)
		av.UpdatedAt = fromUnix(updated)
		out = append(out, av)
	}
	return out, rows.Err()
}

// AvailabilityDates returns the distinct dates with at least one declared
// window, ascending.
func (s *Store) AvailabilityDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT day FROM availability ORDER BY day`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []time.Time
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		d, err := time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UnavailablePeriods returns all blackout periods.
func (s *Store) UnavailablePeriods(ctx context.Context) ([]model.UnavailablePeriod, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, address_id, starts_at, ends_at, note, created_at
        FROM unavailable_periods ORDER BY starts_at`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.UnavailablePeriod
	for rows.Next() {
		var p model.UnavailablePeriod
		var addr sql.NullInt64
		var starts, ends, created int64
		if err := rows.Scan(&p.ID, &addr, &starts, &ends, &p.Note, &created); err != nil {
			return nil, err
		}
		p.AddressID = nullID(addr)
		p.StartsAt = fromUnix(starts)
		p.EndsAt = fromUnix(ends)
		p.CreatedAt = fromUnix(created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// PriorityMap returns the street priority lookup keyed by lowercase street.
func (s *Store) PriorityMap(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT street, priority FROM street_priorities`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int)
	for rows.Next() {
		var street string
		var prio int
		if err := rows.Scan(&street, &prio); err != nil {
			return nil, err
		}
		out[strings.ToLower(street)] = prio
	}
	return out, rows.Err()
}

// Movements returns the full stock ledger, oldest first.
func (s *Store) Movements(ctx context.Context) ([]model.StockMovement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, movement_type, quantity, note,
        batch_id, created_by, created_at FROM stock_movements ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.StockMovement
	for rows.Next() {
		var m model.StockMovement
		var typ string
		var batch, actor sql.NullInt64
		var created int64
		if err := rows.Scan(&m.ID, &typ, &m.Quantity, &m.Note, &batch, &actor, &created); err != nil {
			return nil, err
		}
		if m.Type, err = model.ParseMovementType(typ); err != nil {
			return nil, err
		}
		m.BatchID = nullID(batch)
		m.CreatedBy = nullID(actor)
		m.CreatedAt = fromUnix(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Technicians returns all technicians ordered by name.
func (s *Store) Technicians(ctx context.Context) ([]model.Technician, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM technicians ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Technician
	for rows.Next() {
		var t model.Technician
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
