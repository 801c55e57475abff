package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/meterplan/core/model"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestLevel(t *testing.T) {
	movements := []model.StockMovement{
		{Type: model.MovementPurchase, Quantity: 50},
		{Type: model.MovementReserve, Quantity: -12},
		{Type: model.MovementRelease, Quantity: 1},
		{Type: model.MovementAdjust, Quantity: -3},
	}
	if got := Level(movements); got != 36 {
		t.Fatalf("level %d, want 36", got)
	}
	if got := Level(nil); got != 0 {
		t.Fatalf("empty ledger level %d, want 0", got)
	}
}

func TestLevelCanGoNegative(t *testing.T) {
	movements := []model.StockMovement{
		{Type: model.MovementPurchase, Quantity: 2},
		{Type: model.MovementAdjust, Quantity: -5},
	}
	if got := Level(movements); got != -3 {
		t.Fatalf("level %d, want -3", got)
	}
}

func TestPurchase(t *testing.T) {
	effects, err := Purchase(25, "PO-2026-014", "Qalcosonic W1", "spring order", 7, now)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if effects.Batch.Quantity != 25 || effects.Batch.Reference != "PO-2026-014" {
		t.Fatalf("batch %+v", effects.Batch)
	}
	if effects.Movement.Type != model.MovementPurchase || effects.Movement.Quantity != 25 {
		t.Fatalf("movement %+v", effects.Movement)
	}
	if effects.Movement.CreatedBy == nil || *effects.Movement.CreatedBy != 7 {
		t.Fatalf("movement missing actor")
	}

	for _, qty := range []int{0, -4} {
		if _, err := Purchase(qty, "", "", "", 7, now); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("quantity %d: got %v, want ErrInvalidQuantity", qty, err)
		}
	}
}

func TestAdjust(t *testing.T) {
	m, err := Adjust(3, "damaged in transport", 7, now)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if m.Type != model.MovementAdjust || m.Quantity != -3 {
		t.Fatalf("movement %+v", m)
	}

	if _, err := Adjust(3, "", 7, now); !errors.Is(err, ErrNoteRequired) {
		t.Fatalf("got %v, want ErrNoteRequired", err)
	}
	if _, err := Adjust(0, "note", 7, now); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("got %v, want ErrInvalidQuantity", err)
	}
}

func TestReleaseForReschedule(t *testing.T) {
	addr := model.Address{Street: "Main", HouseNo: "12B"}
	m := ReleaseForReschedule(addr, now)
	if m.Type != model.MovementRelease || m.Quantity != 1 {
		t.Fatalf("movement %+v", m)
	}
	if m.Note != "resident reschedule Main 12B" {
		t.Fatalf("note %q", m.Note)
	}
	if m.CreatedBy != nil {
		t.Fatalf("resident movements carry no actor")
	}
}
