package plan

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/meterplan/core/model"
)

// PlannedVisit pairs one address with one slot.
type PlannedVisit struct {
	Address model.Address
	Slot    Slot
}

// Plan is the outcome of one computation: the planned pairs and the
// addresses that did not fit this date.
type Plan struct {
	Planned   []PlannedVisit
	Unplanned []model.Address
}

// ComputePlan pairs eligible[i] with slots[i] for i up to
// min(len(slots), len(eligible), stock). The pairing is purely positional:
// both lists are already ordered and that ordering is the business rule.
// The function is pure; calling it twice yields identical plans.
func ComputePlan(eligible []model.Address, slots []Slot, stock int) Plan {
	n := len(slots)
	if len(eligible) < n {
		n = len(eligible)
	}
	if stock < n {
		n = stock
	}
	if n < 0 {
		n = 0
	}

	planned := make([]PlannedVisit, 0, n)
	for i := 0; i < n; i++ {
		planned = append(planned, PlannedVisit{Address: eligible[i], Slot: slots[i]})
	}
	return Plan{Planned: planned, Unplanned: eligible[n:]}
}

// Reorder applies a manual drag-drop ordering to the eligible pool. The id
// list must contain exactly the eligible address ids, each once; anything
// missing, extra or duplicated fails with ErrOrderMismatch before any
// mutation happens.
func Reorder(eligible []model.Address, orderedIDs []int64) ([]model.Address, error) {
	byID := make(map[int64]model.Address, len(eligible))
	for _, addr := range eligible {
		byID[addr.ID] = addr
	}
	if len(orderedIDs) != len(byID) {
		return nil, ErrOrderMismatch
	}
	out := make([]model.Address, 0, len(orderedIDs))
	seen := make(map[int64]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		addr, ok := byID[id]
		if !ok || seen[id] {
			return nil, ErrOrderMismatch
		}
		seen[id] = true
		out = append(out, addr)
	}
	return out, nil
}

// Effects are the writes a committed plan asks the store to perform. The
// core never performs I/O itself; the store applies all effects in a single
// transaction so that either everything persists or nothing does.
type Effects struct {
	// CommitID correlates the appointments, the stock movement and any
	// emitted events of one commit.
	CommitID      uuid.UUID
	Appointments  []model.Appointment
	StockMovement model.StockMovement
}

// CommitPlan turns a computed plan into effects: one scheduled appointment
// per planned pair and a single aggregate reserve movement for the whole
// commit. Returns ErrNoCapacity when the date had no slots at all and
// ErrEmptyPlan when nothing was plannable.
func CommitPlan(p Plan, slotCount int, actor int64, now time.Time, note string) (Effects, error) {
	if slotCount == 0 {
		return Effects{}, ErrNoCapacity
	}
	if len(p.Planned) == 0 {
		return Effects{}, ErrEmptyPlan
	}

	effects := Effects{
		CommitID:     uuid.New(),
		Appointments: make([]model.Appointment, 0, len(p.Planned)),
	}
	for _, visit := range p.Planned {
		effects.Appointments = append(effects.Appointments, model.Appointment{
			AddressID:    visit.Address.ID,
			TechnicianID: visit.Slot.TechnicianID,
			StartsAt:     visit.Slot.Start,
			EndsAt:       visit.Slot.End,
			Status:       model.StatusScheduled,
			ChangedAt:    &now,
			ChangedBy:    &actor,
		})
	}
	effects.StockMovement = model.StockMovement{
		Type:      model.MovementReserve,
		Quantity:  -len(p.Planned),
		Note:      note,
		CreatedBy: &actor,
		CreatedAt: now,
	}
	return effects, nil
}
