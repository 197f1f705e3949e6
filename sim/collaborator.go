package sim

import "time"

// A Device is the simulated hardware that the engine drives. Process advances
// the device's internal state by the given amount of simulated time.
//
// Process must accept any non-negative delta. Device failures are the
// device's own concern and must not propagate into the cycle loop.
type Device interface {
	Process(deltaSeconds float64)
}

// An Adapter services the communication channel through which external
// clients reach the simulated device. Handle is expected to block for up to
// timeoutSeconds while servicing pending transport activity, and may return
// earlier.
type Adapter interface {
	Handle(timeoutSeconds float64)
}

// A ControlChannel services out-of-band inspection and control requests.
// Process handles one round of pending requests. It is invoked once per
// cycle, on the thread that runs the engine, so implementations do not need
// their own synchronization against the engine.
type ControlChannel interface {
	Process()
}

// An IdleWaiter is the sleep primitive used for pacing when the device is
// disconnected and the adapter must not be serviced.
type IdleWaiter interface {
	Wait(seconds float64)
}

// A Clock is the wall-time source used to measure elapsed time between
// cycles. It is injectable so that tests can drive the engine
// deterministically.
type Clock interface {
	Now() time.Time
}
