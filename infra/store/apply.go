package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/meterplan/core/inventory"
	"github.com/kilianp07/meterplan/core/model"
	"github.com/kilianp07/meterplan/core/plan"
)

// ApplyPlan writes the effects of one committed plan in a single
// transaction: all appointments plus the aggregate reserve movement persist
// together or not at all.
func (s *Store) ApplyPlan(ctx context.Context, effects plan.Effects) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, appt := range effects.Appointments {
		if _, err := insertAppointment(ctx, tx, appt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert appointment: %w", err)
		}
	}
	if _, err := insertMovement(ctx, tx, effects.StockMovement); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return tx.Commit()
}

// ApplyReschedule flips an appointment to needs_reschedule and records the
// release movement in one transaction.
func (s *Store) ApplyReschedule(ctx context.Context, appointmentID int64, changedAt time.Time, movement model.StockMovement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE appointments
        SET status = ?, changed_at = ?, changed_by = NULL, updated_at = ?
        WHERE id = ?`,
		model.StatusNeedsReschedule.String(), changedAt.Unix(), changedAt.Unix(), appointmentID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		_ = tx.Rollback()
		if err != nil {
			return err
		}
		return fmt.Errorf("appointment %d not found", appointmentID)
	}
	if _, err := insertMovement(ctx, tx, movement); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ApplyManualVisit writes one manually planned appointment and its single
// reserve movement atomically.
func (s *Store) ApplyManualVisit(ctx context.Context, appt model.Appointment, movement model.StockMovement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := insertAppointment(ctx, tx, appt); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := insertMovement(ctx, tx, movement); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ApplyPurchase stores a received batch with its paired purchase movement.
func (s *Store) ApplyPurchase(ctx context.Context, effects inventory.PurchaseEffects) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO meter_batches
        (quantity, reference, meter_type, note, purchased_at, created_by)
        VALUES (?, ?, ?, ?, ?, ?)`,
		effects.Batch.Quantity, effects.Batch.Reference, effects.Batch.MeterType,
		effects.Batch.Note, effects.Batch.PurchasedAt.Unix(), idOrNil(effects.Batch.CreatedBy))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	movement := effects.Movement
	movement.BatchID = &batchID
	if _, err := insertMovement(ctx, tx, movement); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// InsertMovement records one standalone ledger entry (adjustments).
func (s *Store) InsertMovement(ctx context.Context, m model.StockMovement) (int64, error) {
	return insertMovement(ctx, s.db, m)
}

// InsertAddress stores a new address and returns its id.
func (s *Store) InsertAddress(ctx context.Context, a model.Address) (int64, error) {
	now := time.Now().Unix()
	var blocked any
	if a.BlockedReason != nil {
		blocked = *a.BlockedReason
	}
	buffer := 0
	if a.BufferFlag {
		buffer = 1
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO addresses
        (street, house_no, zip, city, customer_name, customer_email, customer_phone,
         buffer_flag, buffer_note, blocked_reason, old_meter_no, new_meter_no, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Street, a.HouseNo, a.Zip, a.City, a.CustomerName, a.CustomerEmail, a.CustomerPhone,
		buffer, a.BufferNote, blocked, a.OldMeterNo, a.NewMeterNo, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertTechnician stores a technician and returns its id.
func (s *Store) InsertTechnician(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO technicians (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpsertAvailability stores or replaces a technician's window for a date.
func (s *Store) UpsertAvailability(ctx context.Context, av model.Availability) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO availability
        (technician_id, day, start_at, end_at, note, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (technician_id, day) DO UPDATE SET
            start_at = excluded.start_at,
            end_at = excluded.end_at,
            note = excluded.note,
            updated_at = excluded.updated_at`,
		av.TechnicianID, av.Date.Format(dayFormat), av.Start.Unix(), av.End.Unix(), av.Note, now, now)
	return err
}

// UpsertStreetPriority stores or replaces the priority for a street.
func (s *Store) UpsertStreetPriority(ctx context.Context, street string, priority int) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO street_priorities
        (street, priority, created_at, updated_at) VALUES (?, ?, ?, ?)
        ON CONFLICT (street) DO UPDATE SET
            priority = excluded.priority,
            updated_at = excluded.updated_at`,
		street, priority, now, now)
	return err
}

// InsertUnavailablePeriod stores a blackout period.
func (s *Store) InsertUnavailablePeriod(ctx context.Context, p model.UnavailablePeriod) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO unavailable_periods
        (address_id, starts_at, ends_at, note, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		idOrNil(p.AddressID), p.StartsAt.Unix(), p.EndsAt.Unix(), p.Note, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateAppointment overwrites the mutable fields of an appointment.
func (s *Store) UpdateAppointment(ctx context.Context, appt model.Appointment) error {
	res, err := s.db.ExecContext(ctx, `UPDATE appointments SET
        technician_id = ?, starts_at = ?, ends_at = ?, status = ?, notes = ?,
        old_meter_no = ?, new_meter_no = ?, changed_at = ?, changed_by = ?, updated_at = ?
        WHERE id = ?`,
		appt.TechnicianID, appt.StartsAt.Unix(), appt.EndsAt.Unix(), appt.Status.String(),
		appt.Notes, appt.OldMeterNo, appt.NewMeterNo,
		unixOrNil(appt.ChangedAt), idOrNil(appt.ChangedBy), time.Now().Unix(), appt.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("appointment %d not found", appt.ID)
	}
	return nil
}

func insertAppointment(ctx context.Context, ex execer, appt model.Appointment) (int64, error) {
	now := time.Now().Unix()
	res, err := ex.ExecContext(ctx, `INSERT INTO appointments
        (address_id, technician_id, starts_at, ends_at, status, notes,
         old_meter_no, new_meter_no, changed_at, changed_by, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.AddressID, appt.TechnicianID, appt.StartsAt.Unix(), appt.EndsAt.Unix(),
		appt.Status.String(), appt.Notes, appt.OldMeterNo, appt.NewMeterNo,
		unixOrNil(appt.ChangedAt), idOrNil(appt.ChangedBy), now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertMovement(ctx context.Context, ex execer, m model.StockMovement) (int64, error) {
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := ex.ExecContext(ctx, `INSERT INTO stock_movements
        (movement_type, quantity, note, batch_id, created_by, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		m.Type.String(), m.Quantity, m.Note, idOrNil(m.BatchID), idOrNil(m.CreatedBy), created.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
