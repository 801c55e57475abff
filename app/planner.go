// Package app wires the planning engine to its storage, metrics and
// notification adapters and exposes the operations the commands call.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/meterplan/config"
	"github.com/kilianp07/meterplan/core/inventory"
	"github.com/kilianp07/meterplan/core/logger"
	coremetrics "github.com/kilianp07/meterplan/core/metrics"
	"github.com/kilianp07/meterplan/core/model"
	"github.com/kilianp07/meterplan/core/plan"
	infralogger "github.com/kilianp07/meterplan/infra/logger"
	"github.com/kilianp07/meterplan/infra/mqtt"
	"github.com/kilianp07/meterplan/infra/store"
	"github.com/kilianp07/meterplan/internal/eventbus"
)

// Planner orchestrates plan computation and commit against the store.
// The core stays pure: Planner loads a snapshot, calls into core/plan and
// applies the returned effects.
type Planner struct {
	store    *store.Store
	cfg      config.PlanningConfig
	log      logger.Logger
	sink     coremetrics.PlanSink
	bus      *eventbus.Bus[Event]
	notifier mqtt.Notifier
	now      func() time.Time
}

// Option configures optional Planner collaborators.
type Option func(*Planner)

// WithLogger replaces the default component logger.
func WithLogger(l logger.Logger) Option { return func(p *Planner) { p.log = l } }

// WithSink attaches a metrics sink.
func WithSink(s coremetrics.PlanSink) Option { return func(p *Planner) { p.sink = s } }

// WithBus attaches the planning event bus.
func WithBus(b *eventbus.Bus[Event]) Option { return func(p *Planner) { p.bus = b } }

// WithNotifier attaches a technician notifier.
func WithNotifier(n mqtt.Notifier) Option { return func(p *Planner) { p.notifier = n } }

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option { return func(p *Planner) { p.now = now } }

func NewPlanner(st *store.Store, cfg config.PlanningConfig, opts ...Option) *Planner {
	p := &Planner{
		store: st,
		cfg:   cfg,
		log:   infralogger.NopLogger{},
		sink:  coremetrics.NopSink{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preview holds the result of a read-only plan computation.
type Preview struct {
	Date        time.Time
	Plan        plan.Plan
	Eligibility plan.Eligibility
	Slots       []plan.Slot
	Stock       int
}

// Preview computes the plan for the given day without persisting anything.
func (p *Planner) Preview(ctx context.Context, date time.Time) (*Preview, error) {
	date = model.Midnight(date)
	snap, err := p.store.Snapshot(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	slots := plan.BuildSlots(date, snap.Availability, nil)
	elig := plan.EligibleAddresses(date, snap)
	stock := inventory.Level(snap.Movements)
	pl := plan.ComputePlan(elig.Eligible, slots, stock)

	p.record(coremetrics.PlanEvent{
		Date:            date,
		Planned:         len(pl.Planned),
		Unplanned:       len(pl.Unplanned),
		SkippedBlocked:  len(elig.SkippedBlocked),
		SkippedBuffered: len(elig.SkippedBuffered),
		SlotCount:       len(slots),
		Stock:           stock,
		Committed:       false,
		Time:            p.now(),
	})
	p.publish(PlanPreviewed{
		Date:      date,
		Planned:   len(pl.Planned),
		Unplanned: len(pl.Unplanned),
		SlotCount: len(slots),
		Stock:     stock,
	})
	return &Preview{Date: date, Plan: pl, Eligibility: elig, Slots: slots, Stock: stock}, nil
}

// CommitResult reports what a commit persisted.
type CommitResult struct {
	CommitID  string
	Date      time.Time
	Plan      plan.Plan
	Stock     int // level after the reserve movement
	SlotCount int
}

// Commit recomputes the plan for the day, optionally applies operator
// reordering, and persists appointments plus the aggregate reserve movement
// in one transaction. orderedIDs, when non-empty, must cover exactly the
// eligible set.
func (p *Planner) Commit(ctx context.Context, date time.Time, orderedIDs []int64, actor int64) (*CommitResult, error) {
	started := p.now()
	date = model.Midnight(date)
	snap, err := p.store.Snapshot(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	slots := plan.BuildSlots(date, snap.Availability, nil)
	elig := plan.EligibleAddresses(date, snap)
	eligible := elig.Eligible
	if len(orderedIDs) > 0 {
		eligible, err = plan.Reorder(eligible, orderedIDs)
		if err != nil {
			return nil, err
		}
	}
	stock := inventory.Level(snap.Movements)
	pl := plan.ComputePlan(eligible, slots, stock)

	now := p.now()
	note := fmt.Sprintf("auto planning %s", date.Format("2006-01-02"))
	effects, err := plan.CommitPlan(pl, len(slots), actor, now, note)
	if err != nil {
		return nil, err
	}
	if err := p.store.ApplyPlan(ctx, effects); err != nil {
		return nil, fmt.Errorf("apply plan: %w", err)
	}

	level := stock + effects.StockMovement.Quantity
	p.log.Infof("committed plan %s for %s: %d planned, %d unplanned, stock %d",
		effects.CommitID, date.Format("2006-01-02"), len(pl.Planned), len(pl.Unplanned), level)

	p.record(coremetrics.PlanEvent{
		Date:            date,
		CommitID:        effects.CommitID.String(),
		Planned:         len(pl.Planned),
		Unplanned:       len(pl.Unplanned),
		SkippedBlocked:  len(elig.SkippedBlocked),
		SkippedBuffered: len(elig.SkippedBuffered),
		SlotCount:       len(slots),
		Stock:           level,
		Committed:       true,
		Duration:        p.now().Sub(started),
		Time:            now,
	})
	p.recordVisits(effects)
	p.recordStock(level)
	p.publish(PlanCommitted{
		Date:     date,
		CommitID: effects.CommitID.String(),
		Planned:  len(pl.Planned),
		Actor:    actor,
	})
	p.notifyTechnicians(effects, snap.Addresses)

	return &CommitResult{
		CommitID:  effects.CommitID.String(),
		Date:      date,
		Plan:      pl,
		Stock:     level,
		SlotCount: len(slots),
	}, nil
}

// ManualVisitRequest places one visit outside the automatic planner.
type ManualVisitRequest struct {
	Date         time.Time
	AddressID    int64
	TechnicianID int64
	Start        string // "HH:MM"
	Actor        int64
}

// CommitManual books a single slot-length visit after checking stock,
// address state, the technician's availability and scheduling conflicts.
func (p *Planner) CommitManual(ctx context.Context, req ManualVisitRequest) (*model.Appointment, error) {
	date := model.Midnight(req.Date)
	startMin, err := config.ParseClock(req.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plan.ErrMalformedInput, err)
	}
	snap, err := p.store.Snapshot(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if inventory.Level(snap.Movements) <= 0 {
		return nil, ErrNoStock
	}
	addr, ok := findAddress(snap.Addresses, req.AddressID)
	if !ok {
		return nil, ErrAddressNotFound
	}
	if st, booked := model.LatestStatusByAddress(snap.Appointments)[addr.ID]; booked && st.Live() {
		return nil, ErrAlreadyPlanned
	}
	av, err := p.store.AvailabilityForTechnician(ctx, req.TechnicianID, date)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if av == nil {
		return nil, ErrNoAvailability
	}

	starts := date.Add(time.Duration(startMin) * time.Minute)
	ends := starts.Add(plan.SlotDuration)
	candidate := plan.Interval{Start: starts, End: ends}
	window := plan.Interval{Start: av.Start, End: av.End}
	if err := plan.CheckConflict(candidate, window, scheduledIntervals(snap.Appointments, req.TechnicianID, 0)); err != nil {
		return nil, err
	}

	now := p.now()
	appt := model.Appointment{
		AddressID:    addr.ID,
		TechnicianID: req.TechnicianID,
		StartsAt:     starts,
		EndsAt:       ends,
		Status:       model.StatusScheduled,
		Notes:        "manual booking",
		ChangedAt:    &now,
		ChangedBy:    &req.Actor,
	}
	movement := model.StockMovement{
		Type:      model.MovementReserve,
		Quantity:  -1,
		Note:      fmt.Sprintf("manual booking %s", addr.Label()),
		CreatedBy: &req.Actor,
		CreatedAt: now,
	}
	if err := p.store.ApplyManualVisit(ctx, appt, movement); err != nil {
		return nil, fmt.Errorf("apply manual visit: %w", err)
	}
	p.log.Infof("manual visit booked: address %d, technician %d, %s", addr.ID, req.TechnicianID, starts.Format("2006-01-02 15:04"))
	p.recordStock(inventory.Level(snap.Movements) - 1)
	return &appt, nil
}

// DateOption describes one plannable day for operator selection.
type DateOption struct {
	Date      time.Time
	Label     string
	SlotCount int
	Planned   int
}

// PlanningDates lists days with declared availability, newest last, with
// slot capacity and how much of it is already booked.
func (p *Planner) PlanningDates(ctx context.Context) ([]DateOption, error) {
	dates, err := p.store.AvailabilityDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load availability dates: %w", err)
	}
	appointments, err := p.store.Appointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	var out []DateOption
	for _, date := range dates {
		entries, err := p.store.AvailabilityOn(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("load availability: %w", err)
		}
		slots := plan.BuildSlots(date, entries, nil)
		if len(slots) == 0 {
			continue
		}
		planned := 0
		for _, a := range appointments {
			if a.Status.Live() && model.Midnight(a.StartsAt).Equal(date) {
				planned++
			}
		}
		out = append(out, DateOption{
			Date:      date,
			Label:     fmt.Sprintf("%s (%d planned of %d slots)", date.Format("02.01.2006"), planned, len(slots)),
			SlotCount: len(slots),
			Planned:   planned,
		})
	}
	return out, nil
}

// UpdateRequest carries the mutable appointment fields. Nil pointers leave
// the field unchanged.
type UpdateRequest struct {
	AppointmentID int64
	Status        *string
	TechnicianID  *int64
	StartsAt      *time.Time
	EndsAt        *time.Time
	Notes         *string
	OldMeterNo    *string
	NewMeterNo    *string
	Actor         int64
}

// UpdateAppointment validates the status transition, the visit duration and,
// for live target statuses, the technician's window and conflicts, then
// persists the change.
func (p *Planner) UpdateAppointment(ctx context.Context, req UpdateRequest) (*model.Appointment, error) {
	appointments, err := p.store.Appointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	var appt *model.Appointment
	for i := range appointments {
		if appointments[i].ID == req.AppointmentID {
			appt = &appointments[i]
			break
		}
	}
	if appt == nil {
		return nil, ErrAppointmentNotFound
	}

	if req.Status != nil {
		next, err := model.ParseStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", plan.ErrMalformedInput, err)
		}
		if !appt.Status.CanTransition(next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, appt.Status, next)
		}
		appt.Status = next
	}
	if req.TechnicianID != nil {
		appt.TechnicianID = *req.TechnicianID
	}
	if req.StartsAt != nil {
		appt.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		appt.EndsAt = *req.EndsAt
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}
	if req.OldMeterNo != nil {
		appt.OldMeterNo = *req.OldMeterNo
	}
	if req.NewMeterNo != nil {
		appt.NewMeterNo = *req.NewMeterNo
	}

	dur := appt.EndsAt.Sub(appt.StartsAt)
	if dur < time.Duration(p.cfg.MinVisitMinutes)*time.Minute || dur > time.Duration(p.cfg.MaxVisitMinutes)*time.Minute {
		return nil, fmt.Errorf("%w: %s", ErrBadDuration, dur)
	}

	if appt.Status == model.StatusScheduled || appt.Status == model.StatusInformed {
		date := model.Midnight(appt.StartsAt)
		av, err := p.store.AvailabilityForTechnician(ctx, appt.TechnicianID, date)
		if err != nil {
			return nil, fmt.Errorf("load availability: %w", err)
		}
		if av == nil {
			return nil, ErrNoAvailability
		}
		candidate := plan.Interval{Start: appt.StartsAt, End: appt.EndsAt}
		window := plan.Interval{Start: av.Start, End: av.End}
		existing := scheduledIntervals(appointments, appt.TechnicianID, appt.ID)
		if err := plan.CheckConflict(candidate, window, existing); err != nil {
			return nil, err
		}
	}

	now := p.now()
	appt.ChangedAt = &now
	appt.ChangedBy = &req.Actor
	if err := p.store.UpdateAppointment(ctx, *appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	p.publish(AppointmentUpdated{AppointmentID: appt.ID, Status: appt.Status.String(), Actor: &req.Actor})
	return appt, nil
}

// ResidentReschedule marks the address' live appointment as needing a new
// slot and releases its reserved meter back to stock. Triggered by a
// resident, so the audit actor stays empty.
func (p *Planner) ResidentReschedule(ctx context.Context, addressID int64) error {
	appointments, err := p.store.Appointments(ctx)
	if err != nil {
		return fmt.Errorf("load appointments: %w", err)
	}
	var target *model.Appointment
	for i := range appointments {
		a := &appointments[i]
		if a.AddressID != addressID {
			continue
		}
		if a.Status != model.StatusScheduled && a.Status != model.StatusInformed {
			continue
		}
		if target == nil || a.StartsAt.After(target.StartsAt) {
			target = a
		}
	}
	if target == nil {
		return ErrNothingToReschedule
	}
	addresses, err := p.store.Addresses(ctx)
	if err != nil {
		return fmt.Errorf("load addresses: %w", err)
	}
	addr, ok := findAddress(addresses, addressID)
	if !ok {
		return ErrAddressNotFound
	}

	now := p.now()
	movement := inventory.ReleaseForReschedule(addr, now)
	if err := p.store.ApplyReschedule(ctx, target.ID, now, movement); err != nil {
		return fmt.Errorf("apply reschedule: %w", err)
	}
	p.log.Infof("resident rescheduled appointment %d for address %d", target.ID, addressID)
	p.publish(AppointmentUpdated{AppointmentID: target.ID, Status: model.StatusNeedsReschedule.String()})
	return nil
}

// PurchaseStock books a meter batch and its incoming movement, returning the
// new stock level.
func (p *Planner) PurchaseStock(ctx context.Context, quantity int, reference, meterType, note string, actor int64) (int, error) {
	effects, err := inventory.Purchase(quantity, reference, meterType, note, actor, p.now())
	if err != nil {
		return 0, err
	}
	if err := p.store.ApplyPurchase(ctx, effects); err != nil {
		return 0, fmt.Errorf("apply purchase: %w", err)
	}
	return p.stockAfterWrite(ctx)
}

// AdjustStock books a manual correction movement, returning the new level.
func (p *Planner) AdjustStock(ctx context.Context, quantity int, note string, actor int64) (int, error) {
	movement, err := inventory.Adjust(quantity, note, actor, p.now())
	if err != nil {
		return 0, err
	}
	if _, err := p.store.InsertMovement(ctx, movement); err != nil {
		return 0, fmt.Errorf("insert movement: %w", err)
	}
	return p.stockAfterWrite(ctx)
}

// StockLevel reports the current meter stock.
func (p *Planner) StockLevel(ctx context.Context) (int, error) {
	movements, err := p.store.Movements(ctx)
	if err != nil {
		return 0, fmt.Errorf("load movements: %w", err)
	}
	return inventory.Level(movements), nil
}

// DeclareAvailability records a technician's working window for a day.
// Windows outside the configured declare bounds are rejected. The returned
// warnings list live appointments that would fall outside the new window.
func (p *Planner) DeclareAvailability(ctx context.Context, technicianID int64, date time.Time, start, end, note string) ([]string, error) {
	startMin, err := config.ParseClock(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plan.ErrMalformedInput, err)
	}
	endMin, err := config.ParseClock(end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plan.ErrMalformedInput, err)
	}
	loMin, _ := config.ParseClock(p.cfg.DeclareStart)
	hiMin, _ := config.ParseClock(p.cfg.DeclareEnd)
	if startMin < loMin || endMin > hiMin || startMin >= endMin {
		return nil, fmt.Errorf("%w: window %s-%s outside %s-%s", plan.ErrMalformedInput, start, end, p.cfg.DeclareStart, p.cfg.DeclareEnd)
	}

	date = model.Midnight(date)
	av := model.Availability{
		TechnicianID: technicianID,
		Date:         date,
		Start:        date.Add(time.Duration(startMin) * time.Minute),
		End:          date.Add(time.Duration(endMin) * time.Minute),
		Note:         note,
	}
	if err := p.store.UpsertAvailability(ctx, av); err != nil {
		return nil, fmt.Errorf("upsert availability: %w", err)
	}

	appointments, err := p.store.Appointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	var warnings []string
	for _, a := range appointments {
		if a.TechnicianID != technicianID || !model.Midnight(a.StartsAt).Equal(date) {
			continue
		}
		if !a.Status.Live() {
			continue
		}
		if a.StartsAt.Before(av.Start) || a.EndsAt.After(av.End) {
			warnings = append(warnings, fmt.Sprintf("appointment %d (%s-%s) falls outside the new window",
				a.ID, a.StartsAt.Format("15:04"), a.EndsAt.Format("15:04")))
		}
	}
	for _, w := range warnings {
		p.log.Warnf("availability %d/%s: %s", technicianID, date.Format("2006-01-02"), w)
	}
	return warnings, nil
}

func (p *Planner) stockAfterWrite(ctx context.Context) (int, error) {
	level, err := p.StockLevel(ctx)
	if err != nil {
		return 0, err
	}
	p.recordStock(level)
	return level, nil
}

func (p *Planner) record(ev coremetrics.PlanEvent) {
	if err := p.sink.RecordPlan(ev); err != nil {
		p.log.Warnf("record plan event: %v", err)
	}
}

func (p *Planner) recordVisits(effects plan.Effects) {
	rec, ok := p.sink.(coremetrics.VisitRecorder)
	if !ok {
		return
	}
	for _, a := range effects.Appointments {
		ev := coremetrics.VisitEvent{
			CommitID:     effects.CommitID.String(),
			AddressID:    a.AddressID,
			TechnicianID: a.TechnicianID,
			StartsAt:     a.StartsAt,
			Time:         p.now(),
		}
		if err := rec.RecordVisit(ev); err != nil {
			p.log.Warnf("record visit event: %v", err)
		}
	}
}

func (p *Planner) recordStock(level int) {
	rec, ok := p.sink.(coremetrics.StockRecorder)
	if !ok {
		return
	}
	if err := rec.RecordStock(coremetrics.StockEvent{Level: level, Time: p.now()}); err != nil {
		p.log.Warnf("record stock event: %v", err)
	}
}

func (p *Planner) publish(ev Event) {
	if p.bus != nil {
		p.bus.Publish(ev)
	}
}

// notifyTechnicians pushes each technician's committed visits to the broker.
// Notification failures are logged, never fatal: the plan is already
// persisted.
func (p *Planner) notifyTechnicians(effects plan.Effects, addresses []model.Address) {
	if p.notifier == nil {
		return
	}
	labels := make(map[int64]string, len(addresses))
	for _, a := range addresses {
		labels[a.ID] = a.Label()
	}
	byTech := make(map[int64][]mqtt.VisitMessage)
	for _, a := range effects.Appointments {
		byTech[a.TechnicianID] = append(byTech[a.TechnicianID], mqtt.VisitMessage{
			CommitID:  effects.CommitID.String(),
			AddressID: a.AddressID,
			Address:   labels[a.AddressID],
			StartsAt:  a.StartsAt,
			EndsAt:    a.EndsAt,
		})
	}
	for techID, visits := range byTech {
		if err := p.notifier.NotifyVisits(techID, visits); err != nil {
			p.log.Warnf("notify technician %d: %v", techID, err)
		}
	}
}

func findAddress(addresses []model.Address, id int64) (model.Address, bool) {
	for _, a := range addresses {
		if a.ID == id {
			return a, true
		}
	}
	return model.Address{}, false
}

func scheduledIntervals(appointments []model.Appointment, technicianID, excludeID int64) []plan.Interval {
	var out []plan.Interval
	for _, a := range appointments {
		if a.TechnicianID != technicianID || a.ID == excludeID {
			continue
		}
		if a.Status != model.StatusScheduled && a.Status != model.StatusInformed {
			continue
		}
		out = append(out, plan.Interval{Start: a.StartsAt, End: a.EndsAt})
	}
	return out
}
