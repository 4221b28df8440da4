package clock

import "time"

// Clock supplies the current instant. Jobs take it as a dependency so runs
// can be evaluated at a virtual time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock frozen at a single instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}
