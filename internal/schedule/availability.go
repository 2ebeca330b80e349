package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("schedule: parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// At anchors the time of day to the given calendar day.
func (t TimeOfDay) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ClockRange is a daily recurring window, such as a lunch break.
type ClockRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// SlotConfig parametrizes the candidate slot grid for availability queries.
type SlotConfig struct {
	DayStart     TimeOfDay
	DayEnd       TimeOfDay
	SlotDuration time.Duration
	Breaks       []ClockRange
}

// DefaultSlotConfig reproduces the clinic's standard day: 30-minute slots
// from 08:00 to 18:00 with a midday break 12:00-14:00.
func DefaultSlotConfig() SlotConfig {
	return SlotConfig{
		DayStart:     TimeOfDay{Hour: 8},
		DayEnd:       TimeOfDay{Hour: 18},
		SlotDuration: 30 * time.Minute,
		Breaks: []ClockRange{
			{Start: TimeOfDay{Hour: 12}, End: TimeOfDay{Hour: 14}},
		},
	}
}

// NewSlotConfig builds a config from "HH:MM" bounds. Empty break bounds mean
// no break.
func NewSlotConfig(dayStart, dayEnd string, slotDuration time.Duration, breakStart, breakEnd string) (SlotConfig, error) {
	start, err := ParseTimeOfDay(dayStart)
	if err != nil {
		return SlotConfig{}, err
	}
	end, err := ParseTimeOfDay(dayEnd)
	if err != nil {
		return SlotConfig{}, err
	}
	if slotDuration <= 0 {
		return SlotConfig{}, fmt.Errorf("schedule: slot duration must be positive")
	}

	cfg := SlotConfig{DayStart: start, DayEnd: end, SlotDuration: slotDuration}
	if breakStart != "" && breakEnd != "" {
		bs, err := ParseTimeOfDay(breakStart)
		if err != nil {
			return SlotConfig{}, err
		}
		be, err := ParseTimeOfDay(breakEnd)
		if err != nil {
			return SlotConfig{}, err
		}
		cfg.Breaks = append(cfg.Breaks, ClockRange{Start: bs, End: be})
	}
	return cfg, nil
}

// grid generates the full ordered candidate list for a day. Each candidate
// is a slot-duration interval; candidates overlapping a break are dropped.
func (c SlotConfig) grid(day time.Time) []Interval {
	dayEnd := c.DayEnd.At(day)

	breaks := make([]Interval, 0, len(c.Breaks))
	for _, b := range c.Breaks {
		breaks = append(breaks, Interval{Start: b.Start.At(day), End: b.End.At(day)})
	}

	var slots []Interval
	for start := c.DayStart.At(day); !start.Add(c.SlotDuration).After(dayEnd); start = start.Add(c.SlotDuration) {
		candidate := Interval{Start: start, End: start.Add(c.SlotDuration)}
		if overlapsAny(candidate, breaks) {
			continue
		}
		slots = append(slots, candidate)
	}
	return slots
}

func overlapsAny(candidate Interval, intervals []Interval) bool {
	for _, iv := range intervals {
		if candidate.Overlaps(iv) {
			return true
		}
	}
	return false
}
