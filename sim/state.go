package sim

// EngineState is the lifecycle state of a CycleEngine.
type EngineState int

const (
	// StateIdle is the initial state, before the run loop is entered.
	StateIdle EngineState = iota

	// StateRunning means the run loop is active and device state advances.
	StateRunning

	// StatePaused means the run loop is active but device state is frozen.
	// Pacing and control-channel servicing continue.
	StatePaused

	// StateStopped is terminal. It differs from StateIdle only by history.
	StateStopped
)

func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
