package sim

// HookPos defines the enum of possible hooking positions
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)
}

// HookPosEngineStart is a hook position that triggers when the run loop is
// entered.
var HookPosEngineStart = &HookPos{Name: "EngineStart"}

// HookPosEngineStop is a hook position that triggers when the run loop exits.
var HookPosEngineStop = &HookPos{Name: "EngineStop"}

// HookPosBeforeCycle is a hook position that triggers before a cycle is
// processed.
var HookPosBeforeCycle = &HookPos{Name: "BeforeCycle"}

// HookPosAfterCycle is a hook position that triggers after a cycle is
// processed. The Item field of the context carries a CycleInfo.
var HookPosAfterCycle = &HookPos{Name: "AfterCycle"}

// CycleInfo describes one completed cycle. It is delivered to hooks at
// HookPosAfterCycle.
type CycleInfo struct {
	// Cycle is the number of cycles in which the device advanced so far.
	Cycle uint64

	// Elapsed is the wall time measured for this cycle, in seconds.
	Elapsed float64

	// ScaledDelta is the simulated time the device advanced by. Zero when
	// the engine was paused or not yet started.
	ScaledDelta float64

	// Advanced reports whether the device advanced in this cycle.
	Advanced bool

	Runtime float64
	Uptime  float64
	State   EngineState
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.Hooks = make([]Hook, 0)
	return h
}

// AcceptHook register a hook
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook triggers the register Hooks
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
