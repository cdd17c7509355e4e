package play

import "time"

// Timer is a pending delayed call.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Delays are the engine's fixed timings.
type Delays struct {
	// Advance is how long a revealed question without explanation stays on screen.
	Advance time.Duration
	// Feedback is how long wrong picks stay flagged in multi and gap mode.
	Feedback time.Duration
	// Notice is how long the "try again" notice is shown.
	Notice time.Duration
}

// DefaultDelays returns the standard play timings.
func DefaultDelays() Delays {
	return Delays{
		Advance:  900 * time.Millisecond,
		Feedback: 2 * time.Second,
		Notice:   2 * time.Second,
	}
}
