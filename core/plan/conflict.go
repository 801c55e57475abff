package plan

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps uses half-open semantics: touching intervals do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// OperatingWindow is the fixed daily window visits may take place in,
// expressed in minutes since midnight (08:00-16:00).
var OperatingWindow = Shift{Start: 8 * 60, End: 16 * 60}

// CheckConflict validates a candidate interval for a technician against the
// fixed operating window, the technician's declared availability for the day
// and the technician's existing scheduled appointments. Checks run in that
// order and the first failure wins. Duration bounds are the caller's
// concern, not this check's.
func CheckConflict(candidate Interval, availability Interval, existing []Interval) error {
	startMin := minuteOfDay(candidate.Start)
	endMin := minuteOfDay(candidate.End)
	if startMin < OperatingWindow.Start || startMin >= OperatingWindow.End {
		return ErrOutsideHours
	}
	if endMin > OperatingWindow.End || endMin <= startMin {
		return ErrOutsideHours
	}

	if candidate.Start.Before(availability.Start) || candidate.End.After(availability.End) {
		return ErrOutsideAvailability
	}

	for _, ex := range existing {
		if ex.Overlaps(candidate) {
			return ErrSchedulingConflict
		}
	}
	return nil
}
