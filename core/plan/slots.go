package plan

import (
	"sort"
	"time"

	"github.com/kilianp07/meterplan/core/model"
)

// Shift is a fixed daily working window expressed in minutes since midnight.
type Shift struct {
	Start int
	End   int
}

// DefaultShifts are the two daily shift windows slots are generated in:
// morning 08:00-12:00 and afternoon 12:00-16:00. A slot never crosses the
// shift boundary.
var DefaultShifts = []Shift{
	{Start: 8 * 60, End: 12 * 60},
	{Start: 12 * 60, End: 16 * 60},
}

// SlotDuration is the length of one bookable unit.
const SlotDuration = 30 * time.Minute

// Slot is a bookable 30-minute unit for one technician.
type Slot struct {
	TechnicianID int64
	Technician   string
	Start        time.Time
	End          time.Time
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func atMinute(day time.Time, min int) time.Time {
	midnight := model.Midnight(day)
	return midnight.Add(time.Duration(min) * time.Minute)
}

// BuildSlots expands the availability entries for one date into the ordered
// capacity list the plan computer consumes. Each entry's window is
// intersected with every shift; slots walk forward from the intersection
// start in SlotDuration increments while the slot end stays inside the
// intersection. The combined list is ordered by (start, technician name,
// technician id), which decides which address lands in which slot.
func BuildSlots(date time.Time, entries []model.Availability, shifts []Shift) []Slot {
	if len(shifts) == 0 {
		shifts = DefaultShifts
	}
	step := int(SlotDuration / time.Minute)

	var slots []Slot
	for _, entry := range entries {
		availStart := minuteOfDay(entry.Start)
		availEnd := minuteOfDay(entry.End)
		for _, shift := range shifts {
			start := availStart
			if shift.Start > start {
				start = shift.Start
			}
			end := availEnd
			if shift.End < end {
				end = shift.End
			}
			for cur := start; cur+step <= end; cur += step {
				slots = append(slots, Slot{
					TechnicianID: entry.TechnicianID,
					Technician:   entry.Technician,
					Start:        atMinute(date, cur),
					End:          atMinute(date, cur+step),
				})
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		if slots[i].Technician != slots[j].Technician {
			return slots[i].Technician < slots[j].Technician
		}
		return slots[i].TechnicianID < slots[j].TechnicianID
	})
	return slots
}
