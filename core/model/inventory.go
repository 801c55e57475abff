package model

import (
	"fmt"
	"time"
)

// MovementType classifies a stock movement. The sign convention follows the
// ledger: purchases and releases add stock, reservations subtract it, and
// adjustments may do either.
type MovementType int

const (
	MovementPurchase MovementType = iota
	MovementReserve
	MovementRelease
	MovementAdjust
)

func (t MovementType) String() string {
	switch t {
	case MovementPurchase:
		return "purchase"
	case MovementReserve:
		return "reserve"
	case MovementRelease:
		return "release"
	case MovementAdjust:
		return "adjust"
	default:
		return "unknown"
	}
}

// ParseMovementType converts a storage name back into a movement type.
func ParseMovementType(raw string) (MovementType, error) {
	switch raw {
	case "purchase":
		return MovementPurchase, nil
	case "reserve":
		return MovementReserve, nil
	case "release":
		return MovementRelease, nil
	case "adjust":
		return MovementAdjust, nil
	default:
		return MovementAdjust, fmt.Errorf("unknown movement type %q", raw)
	}
}

// StockMovement is one signed entry in the meter inventory ledger. The
// running sum of Quantity across all movements is the available stock.
type StockMovement struct {
	ID        int64
	Type      MovementType
	Quantity  int
	Note      string
	BatchID   *int64
	CreatedBy *int64
	CreatedAt time.Time
}

// MeterBatch records a delivery of meters. Each batch is paired with a
// purchase movement carrying the same quantity.
type MeterBatch struct {
	ID          int64
	Quantity    int
	Reference   string
	MeterType   string
	Note        string
	PurchasedAt time.Time
	CreatedBy   *int64
}

// StreetPriority maps a street (case-insensitive, unique) to its planning
// priority. Higher priority streets are visited earlier.
type StreetPriority struct {
	ID        int64
	Street    string
	Priority  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
