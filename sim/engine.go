package sim

import (
	"fmt"
	"time"
)

// A CycleEngine drives the time-stepped execution of a simulated device. It
// decouples simulated time from wall time through a speed factor, paces the
// loop through the communication adapter, and services an optional control
// channel once per cycle.
//
// The engine is single threaded. Run occupies the calling goroutine until
// the engine is stopped, and all mutators are meant to be called either
// before Run, from within a collaborator invoked by the cycle loop, or with
// external synchronization supplied by the caller.
type CycleEngine struct {
	HookableBase

	device  Device
	adapter Adapter
	control ControlChannel
	clock   Clock
	waiter  IdleWaiter

	state           EngineState
	speed           float64
	cycleDelay      float64
	cycles          uint64
	runtime         float64
	uptime          float64
	deviceConnected bool
}

// NewCycleEngine creates an engine that drives the given device and paces
// itself through the given adapter. The engine starts with speed 1.0, a
// cycle delay of 0.1 seconds, and the device connected.
func NewCycleEngine(device Device, adapter Adapter) *CycleEngine {
	if device == nil || adapter == nil {
		panic("cycle engine requires a device and an adapter")
	}

	e := &CycleEngine{
		device:          device,
		adapter:         adapter,
		clock:           NewWallClock(),
		waiter:          NewSleepWaiter(),
		speed:           1.0,
		cycleDelay:      0.1,
		deviceConnected: true,
	}

	return e
}

// WithClock replaces the wall-time source. It must be called before Run.
func (e *CycleEngine) WithClock(c Clock) *CycleEngine {
	e.clock = c
	return e
}

// WithIdleWaiter replaces the sleep primitive used while the device is
// disconnected. It must be called before Run.
func (e *CycleEngine) WithIdleWaiter(w IdleWaiter) *CycleEngine {
	e.waiter = w
	return e
}

// Run enters the cycle loop and blocks until the engine is stopped. It can
// only be called on an engine that has never run before.
func (e *CycleEngine) Run() error {
	if e.state != StateIdle {
		return fmt.Errorf("starting a %s engine: %w",
			e.state, ErrInvalidOperation)
	}

	e.state = StateRunning
	e.InvokeHook(HookCtx{Domain: e, Pos: HookPosEngineStart})

	prev := e.clock.Now()
	for e.state == StateRunning || e.state == StatePaused {
		_, now := e.processCycle(prev)
		prev = now
	}

	e.InvokeHook(HookCtx{Domain: e, Pos: HookPosEngineStop})

	return nil
}

// processCycle performs one cycle. It measures the wall time elapsed since
// prev, advances the device by the speed-scaled delta when the engine is
// running, paces the loop through the adapter or the idle waiter, and then
// services the control channel. It returns the measured elapsed seconds and
// the timestamp the measurement was taken at, which becomes prev for the
// next cycle.
//
// Pacing happens even while paused so that the loop does not spin and
// external clients can keep reaching a frozen device.
func (e *CycleEngine) processCycle(prev time.Time) (float64, time.Time) {
	now := e.clock.Now()
	elapsed := now.Sub(prev).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	e.InvokeHook(HookCtx{Domain: e, Pos: HookPosBeforeCycle})

	scaled := 0.0
	advanced := false
	if e.state == StateRunning {
		scaled = elapsed * e.speed
		e.device.Process(scaled)
		e.runtime += scaled
		e.cycles++
		advanced = true
	}

	if e.state == StateRunning || e.state == StatePaused {
		e.uptime += elapsed
	}

	if e.deviceConnected {
		e.adapter.Handle(e.cycleDelay)
	} else {
		e.waiter.Wait(e.cycleDelay)
	}

	if e.control != nil {
		e.control.Process()
	}

	e.InvokeHook(HookCtx{
		Domain: e,
		Pos:    HookPosAfterCycle,
		Item: CycleInfo{
			Cycle:       e.cycles,
			Elapsed:     elapsed,
			ScaledDelta: scaled,
			Advanced:    advanced,
			Runtime:     e.runtime,
			Uptime:      e.uptime,
			State:       e.state,
		},
	})

	return elapsed, now
}

// Stop requests the cycle loop to exit. The loop observes the request at the
// next iteration boundary, so the latency is bounded by one cycle delay plus
// the device's processing time. Stopping an engine that is not live is a
// no-op.
func (e *CycleEngine) Stop() {
	if e.state == StateRunning || e.state == StatePaused {
		e.state = StateStopped
	}
}

// Pause freezes device advancement while keeping the loop, the pacing, and
// the control channel alive. Only a running engine can be paused.
func (e *CycleEngine) Pause() error {
	if e.state != StateRunning {
		return fmt.Errorf("pausing a %s engine: %w",
			e.state, ErrInvalidOperation)
	}

	e.state = StatePaused

	return nil
}

// Resume restarts device advancement on a paused engine.
func (e *CycleEngine) Resume() error {
	if e.state != StatePaused {
		return fmt.Errorf("resuming a %s engine: %w",
			e.state, ErrInvalidOperation)
	}

	e.state = StateRunning

	return nil
}

// SetSpeed changes the factor that scales elapsed wall time into simulated
// time. Zero freezes simulated time while wall-time accounting continues.
// Values above 1 fast-forward the device. Negative values are rejected.
func (e *CycleEngine) SetSpeed(speed float64) error {
	if speed < 0 {
		return fmt.Errorf("speed %v is negative: %w", speed, ErrInvalidConfig)
	}

	e.speed = speed

	return nil
}

// Speed returns the current simulation speed factor.
func (e *CycleEngine) Speed() float64 {
	return e.speed
}

// SetCycleDelay changes the upper bound, in seconds, of the per-cycle pacing
// wait. Negative values are rejected.
func (e *CycleEngine) SetCycleDelay(delay float64) error {
	if delay < 0 {
		return fmt.Errorf("cycle delay %v is negative: %w",
			delay, ErrInvalidConfig)
	}

	e.cycleDelay = delay

	return nil
}

// CycleDelay returns the current per-cycle pacing bound in seconds.
func (e *CycleEngine) CycleDelay() float64 {
	return e.cycleDelay
}

// DisconnectDevice makes the device unreachable: subsequent cycles pace
// through the idle waiter instead of the adapter. Device advancement is not
// affected.
func (e *CycleEngine) DisconnectDevice() error {
	if !e.deviceConnected {
		return fmt.Errorf("device already disconnected: %w",
			ErrInvalidOperation)
	}

	e.deviceConnected = false

	return nil
}

// ConnectDevice restores adapter-based pacing.
func (e *CycleEngine) ConnectDevice() error {
	if e.deviceConnected {
		return fmt.Errorf("device already connected: %w", ErrInvalidOperation)
	}

	e.deviceConnected = true

	return nil
}

// DeviceConnected reports whether pacing goes through the adapter.
func (e *CycleEngine) DeviceConnected() bool {
	return e.deviceConnected
}

// SetControlChannel attaches, detaches, or replaces the control channel.
// While the engine is running, a channel can be attached if none is present,
// but an attached channel cannot be replaced or detached.
func (e *CycleEngine) SetControlChannel(c ControlChannel) error {
	if e.state == StateRunning && e.control != nil {
		return fmt.Errorf(
			"control channel cannot be replaced while running: %w",
			ErrInvalidOperation)
	}

	e.control = c

	return nil
}

// ControlChannel returns the attached control channel, or nil.
func (e *CycleEngine) ControlChannel() ControlChannel {
	return e.control
}

// State returns the engine's lifecycle state.
func (e *CycleEngine) State() EngineState {
	return e.state
}

// IsStarted reports whether the run loop has ever been entered.
func (e *CycleEngine) IsStarted() bool {
	return e.state != StateIdle
}

// IsRunning reports whether device state advances in the current cycles.
func (e *CycleEngine) IsRunning() bool {
	return e.state == StateRunning
}

// IsPaused reports whether the engine is paused.
func (e *CycleEngine) IsPaused() bool {
	return e.state == StatePaused
}

// Cycles returns the number of cycles in which the device advanced.
func (e *CycleEngine) Cycles() uint64 {
	return e.cycles
}

// Runtime returns the accumulated simulated time in seconds.
func (e *CycleEngine) Runtime() float64 {
	return e.runtime
}

// Uptime returns the accumulated wall time, in seconds, spent while the
// engine has been live.
func (e *CycleEngine) Uptime() float64 {
	return e.uptime
}
