package schedule

import "time"

// Clock supplies the current time to the lifecycle component so that
// "cannot complete a future booking" stays deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
