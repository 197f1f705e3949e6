package datarecording

import (
	"github.com/devsimlab/devsim/sim"
)

// CycleSample is one recorded row per engine cycle.
type CycleSample struct {
	Cycle       uint64
	Elapsed     float64
	ScaledDelta float64
	Advanced    bool
	Runtime     float64
	Uptime      float64
	State       string
}

// cycleTable is the table all the cycle samples go into.
const cycleTable = "cycles"

// CycleRecorder is a sim.Hook that records every cycle of a CycleEngine
// through a DataRecorder.
type CycleRecorder struct {
	recorder DataRecorder
}

// NewCycleRecorder creates a CycleRecorder writing into the given recorder
// and creates the cycle table.
func NewCycleRecorder(recorder DataRecorder) *CycleRecorder {
	recorder.CreateTable(cycleTable, CycleSample{})

	return &CycleRecorder{recorder: recorder}
}

// Func records the cycle information delivered at HookPosAfterCycle.
func (r *CycleRecorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterCycle {
		return
	}

	info, ok := ctx.Item.(sim.CycleInfo)
	if !ok {
		return
	}

	r.recorder.InsertData(cycleTable, CycleSample{
		Cycle:       info.Cycle,
		Elapsed:     info.Elapsed,
		ScaledDelta: info.ScaledDelta,
		Advanced:    info.Advanced,
		Runtime:     info.Runtime,
		Uptime:      info.Uptime,
		State:       info.State.String(),
	})
}
