package sim

import "time"

// wallClock reads the process monotonic clock.
type wallClock struct{}

// NewWallClock returns the default Clock backed by time.Now.
func NewWallClock() Clock {
	return wallClock{}
}

func (wallClock) Now() time.Time {
	return time.Now()
}

// sleepWaiter pauses the calling goroutine with time.Sleep.
type sleepWaiter struct{}

// NewSleepWaiter returns the default IdleWaiter backed by time.Sleep.
func NewSleepWaiter() IdleWaiter {
	return sleepWaiter{}
}

func (sleepWaiter) Wait(seconds float64) {
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}
