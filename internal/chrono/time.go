package chrono

import (
	"time"
)

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	Now() time.Time
}

// StandardTime reads the system clock in local time.
type StandardTime struct{}

func (StandardTime) Now() time.Time {
	return time.Now()
}

// FixedTime always reports the same instant.
type FixedTime time.Time

func (f FixedTime) Now() time.Time {
	return time.Time(f)
}

// Year is the calendar year of the clock's current time.
func Year(clock TimeAPI) int {
	return clock.Now().Year()
}
