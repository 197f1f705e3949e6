package simulation

import (
	"github.com/rs/xid"

	"github.com/devsimlab/devsim/datarecording"
	"github.com/devsimlab/devsim/monitoring"
	"github.com/devsimlab/devsim/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	device  sim.Device
	adapter sim.Adapter

	speed      float64
	cycleDelay float64

	monitorOn   bool
	monitorPort int
	dashboardOn bool

	recordingOn    bool
	outputFileName string
}

// MakeBuilder creates a new builder with monitoring and recording enabled,
// speed 1.0, and a cycle delay of 0.1 seconds.
func MakeBuilder() Builder {
	return Builder{
		speed:       1.0,
		cycleDelay:  0.1,
		monitorOn:   true,
		recordingOn: true,
	}
}

// WithDevice sets the simulated device to drive.
func (b Builder) WithDevice(d sim.Device) Builder {
	b.device = d
	return b
}

// WithAdapter sets the communication adapter that paces the engine.
func (b Builder) WithAdapter(a sim.Adapter) Builder {
	b.adapter = a
	return b
}

// WithSpeed sets the initial simulation speed factor.
func (b Builder) WithSpeed(speed float64) Builder {
	b.speed = speed
	return b
}

// WithCycleDelay sets the initial per-cycle pacing bound in seconds.
func (b Builder) WithCycleDelay(delay float64) Builder {
	b.cycleDelay = delay
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithDashboard makes the monitor open its URL in the local browser.
func (b Builder) WithDashboard() Builder {
	b.dashboardOn = true
	return b
}

// WithoutRecording sets the simulation to not record cycle data.
func (b Builder) WithoutRecording() Builder {
	b.recordingOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.device == nil {
		panic("a simulation requires a device")
	}

	if b.adapter == nil {
		panic("a simulation requires an adapter")
	}

	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.dashboardOn {
		panic("dashboard cannot be opened when monitoring is disabled")
	}

	if !b.recordingOn && b.outputFileName != "" {
		panic("output file name cannot be set when recording is disabled")
	}
}

// Build builds the simulation. When monitoring is enabled, the monitor's
// web server is started and the monitor is attached as the engine's control
// channel.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:      xid.New().String(),
		device:  b.device,
		adapter: b.adapter,
	}

	s.engine = sim.NewCycleEngine(b.device, b.adapter)
	mustConfigure(s.engine.SetSpeed(b.speed))
	mustConfigure(s.engine.SetCycleDelay(b.cycleDelay))

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "devsim_" + s.id
		}

		s.dataRecorder = datarecording.New(outputPath)
		s.engine.AcceptHook(datarecording.NewCycleRecorder(s.dataRecorder))
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		if b.dashboardOn {
			s.monitor.WithDashboard()
		}

		s.monitor.RegisterEngine(s.engine)
		s.monitor.RegisterDevice(b.device)
		s.monitor.StartServer()

		mustConfigure(s.engine.SetControlChannel(s.monitor))
	}

	return s
}

func mustConfigure(err error) {
	if err != nil {
		panic(err)
	}
}
