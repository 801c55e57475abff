package config

import (
	"fmt"
	"time"
)

// PlanningConfig holds the operational bounds validated at the boundary
// before anything reaches the planning core. Slot length and shift windows
// are fixed business rules and live in core/plan.
type PlanningConfig struct {
	// DeclareStart/DeclareEnd bound the window technicians may declare
	// availability in ("HH:MM").
	DeclareStart string `json:"declare_start"`
	DeclareEnd   string `json:"declare_end"`
	// MinVisitMinutes/MaxVisitMinutes bound ad-hoc visit durations.
	MinVisitMinutes int `json:"min_visit_minutes"`
	MaxVisitMinutes int `json:"max_visit_minutes"`
}

// SetDefaults applies sane defaults.
func (c *PlanningConfig) SetDefaults() {
	if c.DeclareStart == "" {
		c.DeclareStart = "06:00"
	}
	if c.DeclareEnd == "" {
		c.DeclareEnd = "18:00"
	}
	if c.MinVisitMinutes == 0 {
		c.MinVisitMinutes = 5
	}
	if c.MaxVisitMinutes == 0 {
		c.MaxVisitMinutes = 480
	}
}

// Validate checks the declared bounds parse and are ordered.
func (c PlanningConfig) Validate() error {
	start, err := ParseClock(c.DeclareStart)
	if err != nil {
		return fmt.Errorf("declare_start: %w", err)
	}
	end, err := ParseClock(c.DeclareEnd)
	if err != nil {
		return fmt.Errorf("declare_end: %w", err)
	}
	if end <= start {
		return fmt.Errorf("declare_end must be after declare_start")
	}
	if c.MinVisitMinutes <= 0 || c.MaxVisitMinutes < c.MinVisitMinutes {
		return fmt.Errorf("visit duration bounds are invalid")
	}
	return nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}
