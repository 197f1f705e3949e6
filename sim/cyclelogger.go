package sim

import (
	"log"
)

// A LogHook is a hook that is responsible for recording information from the
// simulation
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks
type LogHookBase struct {
	*log.Logger
}

// CycleLogger is a hook that prints per-cycle accounting information.
type CycleLogger struct {
	LogHookBase
}

// NewCycleLogger returns a CycleLogger that writes into the given logger.
func NewCycleLogger(logger *log.Logger) *CycleLogger {
	h := new(CycleLogger)
	h.Logger = logger
	return h
}

// Func writes the cycle information into the logger
func (h *CycleLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosAfterCycle {
		return
	}

	info, ok := ctx.Item.(CycleInfo)
	if !ok {
		return
	}

	h.Logger.Printf("cycle %d, %s, elapsed %.6f, delta %.6f, runtime %.6f, uptime %.6f",
		info.Cycle, info.State, info.Elapsed, info.ScaledDelta,
		info.Runtime, info.Uptime)
}
