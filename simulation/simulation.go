// Package simulation assembles a cycle engine with its monitoring and
// recording infrastructure.
package simulation

import (
	"github.com/devsimlab/devsim/datarecording"
	"github.com/devsimlab/devsim/monitoring"
	"github.com/devsimlab/devsim/sim"
)

// A Simulation bundles everything needed to run one simulated device.
type Simulation struct {
	id string

	engine       *sim.CycleEngine
	monitor      *monitoring.Monitor
	dataRecorder datarecording.DataRecorder

	device  sim.Device
	adapter sim.Adapter
}

// ID returns the simulation ID.
func (s *Simulation) ID() string {
	return s.id
}

// Engine returns the cycle engine that drives the simulation.
func (s *Simulation) Engine() *sim.CycleEngine {
	return s.engine
}

// Monitor returns the monitor used in the simulation, or nil when
// monitoring is disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// DataRecorder returns the data recorder, or nil when recording is
// disabled.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Device returns the simulated device.
func (s *Simulation) Device() sim.Device {
	return s.device
}

// Adapter returns the communication adapter.
func (s *Simulation) Adapter() sim.Adapter {
	return s.adapter
}

// Run blocks running the cycle loop until the engine is stopped.
func (s *Simulation) Run() error {
	return s.engine.Run()
}

// Terminate terminates the simulation.
func (s *Simulation) Terminate() {
	if s.dataRecorder != nil {
		s.dataRecorder.Close()
	}
}
