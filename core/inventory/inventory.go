// Package inventory implements the meter stock ledger: a signed running sum
// of movements. Planning treats the level as a cap; manual adjustments may
// still drive it negative.
package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/meterplan/core/model"
)

var (
	// ErrInvalidQuantity rejects zero or negative batch/adjust quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrNoteRequired rejects adjustments without an operator note.
	ErrNoteRequired = errors.New("adjustment note is required")
)

// Level returns the current available stock: the sum of all movement
// quantities.
func Level(movements []model.StockMovement) int {
	total := 0
	for _, m := range movements {
		total += m.Quantity
	}
	return total
}

// PurchaseEffects are the writes for one received meter batch: the batch
// itself plus a purchase movement with the same quantity.
type PurchaseEffects struct {
	Batch    model.MeterBatch
	Movement model.StockMovement
}

// Purchase validates and builds the effects for a received batch.
func Purchase(quantity int, reference, meterType, note string, actor int64, now time.Time) (PurchaseEffects, error) {
	if quantity <= 0 {
		return PurchaseEffects{}, ErrInvalidQuantity
	}
	return PurchaseEffects{
		Batch: model.MeterBatch{
			Quantity:    quantity,
			Reference:   reference,
			MeterType:   meterType,
			Note:        note,
			PurchasedAt: now,
			CreatedBy:   &actor,
		},
		Movement: model.StockMovement{
			Type:      model.MovementPurchase,
			Quantity:  quantity,
			Note:      note,
			CreatedBy: &actor,
			CreatedAt: now,
		},
	}, nil
}

// Adjust builds a downward correction movement. The note is mandatory so the
// ledger stays explainable.
func Adjust(quantity int, note string, actor int64, now time.Time) (model.StockMovement, error) {
	if quantity <= 0 {
		return model.StockMovement{}, ErrInvalidQuantity
	}
	if note == "" {
		return model.StockMovement{}, ErrNoteRequired
	}
	return model.StockMovement{
		Type:      model.MovementAdjust,
		Quantity:  -quantity,
		Note:      note,
		CreatedBy: &actor,
		CreatedAt: now,
	}, nil
}

// ReleaseForReschedule returns the +1 release movement recorded when a
// scheduled visit falls through and its reserved meter goes back to stock.
func ReleaseForReschedule(addr model.Address, now time.Time) model.StockMovement {
	return model.StockMovement{
		Type:      model.MovementRelease,
		Quantity:  1,
		Note:      fmt.Sprintf("resident reschedule %s %s", addr.Street, addr.HouseNo),
		CreatedAt: now,
	}
}
