package schedule

import "time"

// Interval is a half-open time range [Start, End): the start instant is
// included, the end instant is not. Immutable once constructed.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates and constructs an interval.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints ([9:00,9:30) and [9:30,10:00)) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether t falls inside the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
