package plan

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/meterplan/core/model"
)

func someSlots(n int) []Slot {
	slots := make([]Slot, n)
	for i := range slots {
		start := day.Add(8*time.Hour + time.Duration(i)*SlotDuration)
		slots[i] = Slot{TechnicianID: 1, Technician: "Alice", Start: start, End: start.Add(SlotDuration)}
	}
	return slots
}

func TestComputePlanPositionalPairing(t *testing.T) {
	eligible := []model.Address{addr(1, "Main", "1"), addr(2, "Main", "2"), addr(3, "Main", "3"), addr(4, "Main", "4")}
	p := ComputePlan(eligible, someSlots(3), 3)
	if len(p.Planned) != 3 {
		t.Fatalf("got %d planned, want 3", len(p.Planned))
	}
	for i, v := range p.Planned {
		if v.Address.ID != eligible[i].ID {
			t.Fatalf("planned[%d] is address %d, want %d", i, v.Address.ID, eligible[i].ID)
		}
	}
	assertOrder(t, p.Unplanned, []int64{4})
}

func TestComputePlanCappedByStock(t *testing.T) {
	eligible := []model.Address{addr(1, "Main", "1"), addr(2, "Main", "2"), addr(3, "Main", "3")}
	p := ComputePlan(eligible, someSlots(3), 2)
	if len(p.Planned) != 2 {
		t.Fatalf("got %d planned, want 2", len(p.Planned))
	}
	assertOrder(t, p.Unplanned, []int64{3})
}

func TestComputePlanNegativeStock(t *testing.T) {
	eligible := []model.Address{addr(1, "Main", "1")}
	p := ComputePlan(eligible, someSlots(1), -2)
	if len(p.Planned) != 0 {
		t.Fatalf("got %d planned, want 0", len(p.Planned))
	}
	assertOrder(t, p.Unplanned, []int64{1})
}

func TestComputePlanIsPure(t *testing.T) {
	eligible := []model.Address{addr(1, "Main", "1"), addr(2, "Main", "2")}
	slots := someSlots(2)
	first := ComputePlan(eligible, slots, 5)
	second := ComputePlan(eligible, slots, 5)
	if len(first.Planned) != len(second.Planned) {
		t.Fatalf("runs disagree: %d vs %d", len(first.Planned), len(second.Planned))
	}
	for i := range first.Planned {
		if first.Planned[i].Address.ID != second.Planned[i].Address.ID ||
			!first.Planned[i].Slot.Start.Equal(second.Planned[i].Slot.Start) {
			t.Fatalf("runs disagree at %d", i)
		}
	}
}

func TestReorder(t *testing.T) {
	eligible := []model.Address{addr(1, "Main", "1"), addr(2, "Main", "2"), addr(3, "Main", "3")}

	got, err := Reorder(eligible, []int64{3, 1, 2})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	assertOrder(t, got, []int64{3, 1, 2})

	for name, ids := range map[string][]int64{
		"missing":   {1, 2},
		"extra":     {1, 2, 3, 4},
		"unknown":   {1, 2, 9},
		"duplicate": {1, 2, 2},
	} {
		if _, err := Reorder(eligible, ids); !errors.Is(err, ErrOrderMismatch) {
			t.Fatalf("%s: got %v, want ErrOrderMismatch", name, err)
		}
	}
}

func TestCommitPlanErrors(t *testing.T) {
	if _, err := CommitPlan(Plan{}, 0, 1, time.Now(), ""); !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("no slots: got %v, want ErrNoCapacity", err)
	}
	if _, err := CommitPlan(Plan{}, 4, 1, time.Now(), ""); !errors.Is(err, ErrEmptyPlan) {
		t.Fatalf("empty plan: got %v, want ErrEmptyPlan", err)
	}
}

func TestCommitPlanEffects(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	eligible := []model.Address{addr(1, "Main", "1"), addr(2, "Main", "2")}
	p := ComputePlan(eligible, someSlots(2), 5)

	effects, err := CommitPlan(p, 2, 42, now, "test commit")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(effects.Appointments) != 2 {
		t.Fatalf("got %d appointments, want 2", len(effects.Appointments))
	}
	for i, appt := range effects.Appointments {
		if appt.Status != model.StatusScheduled {
			t.Fatalf("appointment %d status %s", i, appt.Status)
		}
		if appt.ChangedBy == nil || *appt.ChangedBy != 42 {
			t.Fatalf("appointment %d missing audit actor", i)
		}
		if appt.ChangedAt == nil || !appt.ChangedAt.Equal(now) {
			t.Fatalf("appointment %d missing audit time", i)
		}
	}
	m := effects.StockMovement
	if m.Type != model.MovementReserve || m.Quantity != -2 {
		t.Fatalf("movement %s %d, want reserve -2", m.Type, m.Quantity)
	}
	if m.Note != "test commit" {
		t.Fatalf("movement note %q", m.Note)
	}
	if effects.CommitID == uuid.Nil {
		t.Fatalf("commit id not set")
	}
}
