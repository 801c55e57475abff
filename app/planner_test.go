package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/meterplan/config"
	coremetrics "github.com/kilianp07/meterplan/core/metrics"
	"github.com/kilianp07/meterplan/core/model"
	"github.com/kilianp07/meterplan/core/plan"
	"github.com/kilianp07/meterplan/infra/mqtt"
	"github.com/kilianp07/meterplan/infra/store"
	"github.com/kilianp07/meterplan/internal/eventbus"
)

var planDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type captureSink struct {
	plans  []coremetrics.PlanEvent
	visits []coremetrics.VisitEvent
	stocks []coremetrics.StockEvent
}

func (c *captureSink) RecordPlan(ev coremetrics.PlanEvent) error {
	c.plans = append(c.plans, ev)
	return nil
}

func (c *captureSink) RecordVisit(ev coremetrics.VisitEvent) error {
	c.visits = append(c.visits, ev)
	return nil
}

func (c *captureSink) RecordStock(ev coremetrics.StockEvent) error {
	c.stocks = append(c.stocks, ev)
	return nil
}

type fixture struct {
	planner  *Planner
	store    *store.Store
	sink     *captureSink
	notifier *mqtt.MockNotifier
	bus      *eventbus.Bus[Event]
	techID   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.PlanningConfig{}
	cfg.SetDefaults()

	f := &fixture{
		store:    st,
		sink:     &captureSink{},
		notifier: mqtt.NewMockNotifier(),
		bus:      eventbus.New[Event](),
	}
	t.Cleanup(f.bus.Close)
	f.planner = NewPlanner(st, cfg,
		WithSink(f.sink),
		WithNotifier(f.notifier),
		WithBus(f.bus),
		WithClock(func() time.Time { return planDay.Add(7 * time.Hour) }),
	)
	return f
}

func (f *fixture) seedTechnician(t *testing.T, name string, startHour, endHour int) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := f.store.InsertTechnician(ctx, name)
	require.NoError(t, err)
	require.NoError(t, f.store.UpsertAvailability(ctx, model.Availability{
		TechnicianID: id,
		Date:         planDay,
		Start:        planDay.Add(time.Duration(startHour) * time.Hour),
		End:          planDay.Add(time.Duration(endHour) * time.Hour),
	}))
	return id
}

func (f *fixture) seedAddress(t *testing.T, street, houseNo string) int64 {
	t.Helper()
	id, err := f.store.InsertAddress(context.Background(), model.Address{
		Street: street, HouseNo: houseNo, Zip: "0150", City: "Oslo",
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) seedStock(t *testing.T, quantity int) {
	t.Helper()
	_, err := f.store.InsertMovement(context.Background(), model.StockMovement{
		Type: model.MovementPurchase, Quantity: quantity,
	})
	require.NoError(t, err)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.techID = f.seedTechnician(t, "Alice", 8, 16)
	f.seedAddress(t, "Main", "1")
	f.seedStock(t, 10)

	preview, err := f.planner.Preview(ctx, planDay)
	require.NoError(t, err)
	require.Len(t, preview.Plan.Planned, 1)
	require.Equal(t, 16, len(preview.Slots))
	require.Equal(t, 10, preview.Stock)

	appointments, err := f.store.Appointments(ctx)
	require.NoError(t, err)
	require.Empty(t, appointments)

	require.Len(t, f.sink.plans, 1)
	require.False(t, f.sink.plans[0].Committed)
}

func TestCommitPlansAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.techID = f.seedTechnician(t, "Alice", 8, 16)
	ids := []int64{
		f.seedAddress(t, "Main", "1"),
		f.seedAddress(t, "Main", "2"),
		f.seedAddress(t, "Main", "3"),
		f.seedAddress(t, "Main", "4"),
	}
	f.seedStock(t, 3)

	sub := f.bus.Subscribe()
	res, err := f.planner.Commit(ctx, planDay, nil, 7)
	require.NoError(t, err)
	require.NotEmpty(t, res.CommitID)
	require.Len(t, res.Plan.Planned, 3)
	require.Len(t, res.Plan.Unplanned, 1)
	require.Equal(t, ids[3], res.Plan.Unplanned[0].ID)
	require.Equal(t, 0, res.Stock)

	appointments, err := f.store.Appointments(ctx)
	require.NoError(t, err)
	require.Len(t, appointments, 3)
	for _, a := range appointments {
		require.Equal(t, model.StatusScheduled, a.Status)
		require.NotNil(t, a.ChangedBy)
		require.EqualValues(t, 7, *a.ChangedBy)
	}

	movements, err := f.store.Movements(ctx)
	require.NoError(t, err)
	require.Len(t, movements, 2) // purchase + one aggregate reserve
	require.Equal(t, -3, movements[1].Quantity)

	require.Len(t, f.notifier.Sent[f.techID], 3)
	require.Equal(t, res.CommitID, f.notifier.Sent[f.techID][0].CommitID)

	require.Len(t, f.sink.plans, 1)
	require.True(t, f.sink.plans[0].Committed)
	require.Len(t, f.sink.visits, 3)
	require.Len(t, f.sink.stocks, 1)
	require.Equal(t, 0, f.sink.stocks[0].Level)

	ev := <-sub
	committed, ok := ev.(PlanCommitted)
	require.True(t, ok)
	require.Equal(t, res.CommitID, committed.CommitID)
}

func TestCommitWithoutSlots(t *testing.T) {
	f := newFixture(t)
	f.seedAddress(t, "Main", "1")
	f.seedStock(t, 3)
	_, err := f.planner.Commit(context.Background(), planDay, nil, 7)
	require.ErrorIs(t, err, plan.ErrNoCapacity)
}

func TestCommitReorder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.techID = f.seedTechnician(t, "Alice", 8, 16)
	a := f.seedAddress(t, "Main", "1")
	b := f.seedAddress(t, "Main", "2")
	f.seedStock(t, 1)

	_, err := f.planner.Commit(ctx, planDay, []int64{a}, 7)
	require.ErrorIs(t, err, plan.ErrOrderMismatch)

	res, err := f.planner.Commit(ctx, planDay, []int64{b, a}, 7)
	require.NoError(t, err)
	require.Len(t, res.Plan.Planned, 1)
	require.Equal(t, b, res.Plan.Planned[0].Address.ID)
}

func TestCommitIsRepeatableOnSameSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.techID = f.seedTechnician(t, "Alice", 8, 16)
	f.seedAddress(t, "Main", "1")
	f.seedStock(t, 5)

	first, err := f.planner.Commit(ctx, planDay, nil, 7)
	require.NoError(t, err)
	require.Len(t, first.Plan.Planned, 1)

	// The committed address is now booked; a second run has nothing left.
	_, err = f.planner.Commit(ctx, planDay, nil, 7)
	require.ErrorIs(t, err, plan.ErrEmptyPlan)
}

func TestCommitManual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.techID = f.seedTechnician(t, "Alice", 8, 16)
	a := f.seedAddress(t, "Main", "1")
	b := f.seedAddress(t, "Main", "2")

	req := ManualVisitRequest{Date: planDay, AddressID: a, TechnicianID: f.techID, Start: "09:00", Actor: 7}
	_, err := f.planner.CommitManual(ctx, req)
	require.ErrorIs(t, err, ErrNoStock)

	f.seedStock(t, 2)
	appt, err := f.planner.CommitManual(ctx, req)
	require.NoError(t, err)
	require.True(t, appt.StartsAt.Equal(planDay.Add(9*time.Hour)))
	require.True(t, appt.EndsAt.Equal(planDay.Add(9*time.Hour+30*time.Minute)))

	_, err = f.planner.CommitManual(ctx, req)
	require.ErrorIs(t, err, ErrAlreadyPlanned)

	overlap := ManualVisitRequest{Date: planDay, AddressID: b, TechnicianID: f.techID, Start: "09:15", Actor: 7}
	_, err = f.planner.CommitManual(ctx, overlap)
	require.ErrorIs(t, err, plan.ErrSchedulingConflict)

	early := ManualVisitRequest{Date: planDay, AddressID: b, TechnicianID: f.techID, Start: "07:00", Actor: 7}
	_, err = f.planner.CommitManual(ctx, early)
	require.ErrorIs(t, err, plan.ErrOutsideHours)

	_, err = f.planner.CommitManual(ctx, ManualVisitRequest{Date: planDay, AddressID: 9999, TechnicianID: f.techID, Start: "10:00"})
	require.ErrorIs(t, err, ErrAddressNotFound)

	_, err = f.planner.CommitManual(ctx, ManualVisitRequest{Date: planDay, AddressID: b, TechnicianID: 9999, Start: "10:00"})
	require.ErrorIs(t, err, ErrNoAvailability)

	_, err = f.planner.CommitManual(ctx, ManualVisitRequest{Date: planDay, AddressID: b, TechnicianID: f.techID, Start: "half past nine"})
	require.ErrorIs(t, err, plan.ErrMalformedInput)
}

func TestResidentReschedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.techID = f.seedTechnician(t, "Alice", 8, 16)
	a := f.seedAddress(t, "Main", "1")
	f.seedStock(t, 1)

	require.ErrorIs(t, f.planner.ResidentReschedule(ctx, a), ErrNothingToReschedule)

	_, err := f.planner.Commit(ctx, planDay, nil, 7)
	require.NoError(t, err)
	require.NoError(t, f.planner.ResidentReschedule(ctx, a))

	appointments, err := f.store.Appointments(ctx)
	require.NoError(t, err)
	require.Equal(t, model.StatusNeedsReschedule, appointments[0].Status)

	// The reserved meter went back to stock and the address is plannable
	// again, ahead of everything else.
	level, err := f.planner.StockLevel(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, level)

	preview, err := f.planner.Preview(ctx, planDay)
	require.NoError(t, err)
	require.Len(t, preview.Plan.Planned, 1)
	require.Equal(t, a, preview.Plan.Planned[0].Address.ID)
	require.True(t, preview.Eligibility.RescheduleIDs[a])
}

func TestUpdateAppointment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.techID = f.seedTechnician(t, "Alice", 8, 16)
	f.seedAddress(t, "Main", "1")
	f.seedStock(t, 1)
	_, err := f.planner.Commit(ctx, planDay, nil, 7)
	require.NoError(t, err)
	appointments, err := f.store.Appointments(ctx)
	require.NoError(t, err)
	id := appointments[0].ID

	status := "informed"
	appt, err := f.planner.UpdateAppointment(ctx, UpdateRequest{AppointmentID: id, Status: &status, Actor: 7})
	require.NoError(t, err)
	require.Equal(t, model.StatusInformed, appt.Status)

	bad := "draft"
	_, err = f.planner.UpdateAppointment(ctx, UpdateRequest{AppointmentID: id, Status: &bad, Actor: 7})
	require.ErrorIs(t, err, ErrBadTransition)

	unknown := "banana"
	_, err = f.planner.UpdateAppointment(ctx, UpdateRequest{AppointmentID: id, Status: &unknown, Actor: 7})
	require.ErrorIs(t, err, plan.ErrMalformedInput)

	tooLong := appointments[0].StartsAt.Add(9 * time.Hour)
	_, err = f.planner.UpdateAppointment(ctx, UpdateRequest{AppointmentID: id, EndsAt: &tooLong, Actor: 7})
	require.ErrorIs(t, err, ErrBadDuration)

	done := "completed"
	_, err = f.planner.UpdateAppointment(ctx, UpdateRequest{AppointmentID: id, Status: &done, Actor: 7})
	require.NoError(t, err)
	closed := "closed"
	_, err = f.planner.UpdateAppointment(ctx, UpdateRequest{AppointmentID: id, Status: &closed, Actor: 7})
	require.NoError(t, err)
	reopen := "scheduled"
	_, err = f.planner.UpdateAppointment(ctx, UpdateRequest{AppointmentID: id, Status: &reopen, Actor: 7})
	require.ErrorIs(t, err, ErrBadTransition)

	_, err = f.planner.UpdateAppointment(ctx, UpdateRequest{AppointmentID: 9999, Actor: 7})
	require.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestPlanningDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.techID = f.seedTechnician(t, "Alice", 8, 12)
	f.seedAddress(t, "Main", "1")
	f.seedStock(t, 1)
	_, err := f.planner.Commit(ctx, planDay, nil, 7)
	require.NoError(t, err)

	dates, err := f.planner.PlanningDates(ctx)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	require.Equal(t, 8, dates[0].SlotCount)
	require.Equal(t, 1, dates[0].Planned)
	require.Equal(t, "02.03.2026 (1 planned of 8 slots)", dates[0].Label)
}

func TestDeclareAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	techID, err := f.store.InsertTechnician(ctx, "Alice")
	require.NoError(t, err)

	_, err = f.planner.DeclareAvailability(ctx, techID, planDay, "05:00", "12:00", "")
	require.ErrorIs(t, err, plan.ErrMalformedInput)
	_, err = f.planner.DeclareAvailability(ctx, techID, planDay, "12:00", "08:00", "")
	require.ErrorIs(t, err, plan.ErrMalformedInput)

	warnings, err := f.planner.DeclareAvailability(ctx, techID, planDay, "08:00", "16:00", "full day")
	require.NoError(t, err)
	require.Empty(t, warnings)

	// Book a visit, then shrink the window so it no longer fits.
	addrID := f.seedAddress(t, "Main", "1")
	f.seedStock(t, 1)
	_, err = f.planner.CommitManual(ctx, ManualVisitRequest{
		Date: planDay, AddressID: addrID, TechnicianID: techID, Start: "08:00", Actor: 7,
	})
	require.NoError(t, err)

	warnings, err = f.planner.DeclareAvailability(ctx, techID, planDay, "10:00", "16:00", "")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}

func TestStockOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	level, err := f.planner.PurchaseStock(ctx, 20, "PO-1", "W1", "", 7)
	require.NoError(t, err)
	require.Equal(t, 20, level)

	level, err = f.planner.AdjustStock(ctx, 3, "damaged", 7)
	require.NoError(t, err)
	require.Equal(t, 17, level)

	_, err = f.planner.AdjustStock(ctx, 3, "", 7)
	require.Error(t, err)

	require.Len(t, f.sink.stocks, 2)
	require.Equal(t, 17, f.sink.stocks[1].Level)
}

func TestNotifierFailureDoesNotFailCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.techID = f.seedTechnician(t, "Alice", 8, 16)
	f.seedAddress(t, "Main", "1")
	f.seedStock(t, 1)
	f.notifier.FailIDs = map[int64]bool{f.techID: true}

	res, err := f.planner.Commit(ctx, planDay, nil, 7)
	require.NoError(t, err)
	require.Len(t, res.Plan.Planned, 1)

	appointments, err := f.store.Appointments(ctx)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
}
