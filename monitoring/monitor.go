// Package monitoring turns a running simulation into a small web server so
// that the engine can be inspected and controlled from outside the process.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/devsimlab/devsim/sim"
)

// Controllable is the engine surface the monitor drives. A
// *sim.CycleEngine satisfies it.
type Controllable interface {
	Pause() error
	Resume() error
	Stop()
	SetSpeed(speed float64) error
	Speed() float64
	SetCycleDelay(delay float64) error
	CycleDelay() float64
	ConnectDevice() error
	DisconnectDevice() error
	DeviceConnected() bool
	State() sim.EngineState
	Cycles() uint64
	Runtime() float64
	Uptime() float64
}

// Status is a snapshot of the engine taken once per cycle.
type Status struct {
	State           string  `json:"state"`
	Cycles          uint64  `json:"cycles"`
	Runtime         float64 `json:"runtime"`
	Uptime          float64 `json:"uptime"`
	Speed           float64 `json:"speed"`
	CycleDelay      float64 `json:"cycle_delay"`
	DeviceConnected bool    `json:"device_connected"`
}

type command struct {
	action string
	value  float64
	reply  chan error
}

// commandTimeout bounds how long an HTTP handler waits for the cycle loop to
// pick a command up. A stopped engine never services its control channel.
const commandTimeout = 5 * time.Second

var errEngineUnresponsive = errors.New(
	"engine did not service the control channel in time")

// Monitor is a control channel for a CycleEngine, fed by an HTTP server.
// Handlers enqueue commands; Process, invoked by the engine once per cycle
// on the engine's own goroutine, applies them. This keeps all engine access
// on a single thread.
type Monitor struct {
	engine        Controllable
	device        any
	portNumber    int
	openDashboard bool

	commands chan command

	statusLock sync.Mutex
	status     Status
}

var _ sim.ControlChannel = (*Monitor)(nil)

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		commands: make(chan command, 64),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithDashboard makes StartServer open the monitor URL in the local browser.
func (m *Monitor) WithDashboard() *Monitor {
	m.openDashboard = true
	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e Controllable) {
	m.engine = e
}

// RegisterDevice registers the simulated device so that its state can be
// inspected through the API.
func (m *Monitor) RegisterDevice(d any) {
	m.device = d
}

// Process services one round of pending control commands. It implements
// sim.ControlChannel and must only be called by the cycle loop.
func (m *Monitor) Process() {
	for {
		select {
		case cmd := <-m.commands:
			cmd.reply <- m.apply(cmd)
		default:
			m.updateStatus()
			return
		}
	}
}

func (m *Monitor) apply(cmd command) error {
	switch cmd.action {
	case "pause":
		return m.engine.Pause()
	case "resume":
		return m.engine.Resume()
	case "stop":
		m.engine.Stop()
		return nil
	case "speed":
		return m.engine.SetSpeed(cmd.value)
	case "cycle_delay":
		return m.engine.SetCycleDelay(cmd.value)
	case "connect":
		return m.engine.ConnectDevice()
	case "disconnect":
		return m.engine.DisconnectDevice()
	default:
		return fmt.Errorf("unknown control command %q", cmd.action)
	}
}

func (m *Monitor) updateStatus() {
	s := Status{
		State:           m.engine.State().String(),
		Cycles:          m.engine.Cycles(),
		Runtime:         m.engine.Runtime(),
		Uptime:          m.engine.Uptime(),
		Speed:           m.engine.Speed(),
		CycleDelay:      m.engine.CycleDelay(),
		DeviceConnected: m.engine.DeviceConnected(),
	}

	m.statusLock.Lock()
	m.status = s
	m.statusLock.Unlock()
}

// enqueue hands a command to the cycle loop and waits for its result.
func (m *Monitor) enqueue(action string, value float64) error {
	cmd := command{
		action: action,
		value:  value,
		reply:  make(chan error, 1),
	}

	select {
	case m.commands <- cmd:
	default:
		return errEngineUnresponsive
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-time.After(commandTimeout):
		return errEngineUnresponsive
	}
}

// StartServer starts the monitor as a web server with a custom port if
// wanted.
func (m *Monitor) StartServer() {
	r := m.router()

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()

	if m.openDashboard {
		err := browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.commandHandler("pause"))
	r.HandleFunc("/api/resume", m.commandHandler("resume"))
	r.HandleFunc("/api/stop", m.commandHandler("stop"))
	r.HandleFunc("/api/connect", m.commandHandler("connect"))
	r.HandleFunc("/api/disconnect", m.commandHandler("disconnect"))
	r.HandleFunc("/api/speed", m.valueHandler("speed",
		func(s Status) float64 { return s.Speed }))
	r.HandleFunc("/api/cycle_delay", m.valueHandler("cycle_delay",
		func(s Status) float64 { return s.CycleDelay }))
	r.HandleFunc("/api/status", m.statusHandler)
	r.HandleFunc("/api/device", m.deviceHandler)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

func (m *Monitor) commandHandler(
	action string,
) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		m.respond(w, m.enqueue(action, 0))
	}
}

// valueHandler reports the configured value, or changes it when the request
// carries a `value` query parameter.
func (m *Monitor) valueHandler(
	action string,
	read func(s Status) float64,
) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		valueStr := r.URL.Query().Get("value")
		if valueStr == "" {
			fmt.Fprintf(w, "{\"value\":%v}", read(m.currentStatus()))
			return
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Error: %s", err)
			return
		}

		m.respond(w, m.enqueue(action, value))
	}
}

func (m *Monitor) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		_, wErr := w.Write(nil)
		dieOnErr(wErr)
	case errors.Is(err, sim.ErrInvalidOperation):
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
	case errors.Is(err, sim.ErrInvalidConfig):
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
	default:
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Error: %s", err)
	}
}

func (m *Monitor) currentStatus() Status {
	m.statusLock.Lock()
	defer m.statusLock.Unlock()

	return m.status
}

func (m *Monitor) statusHandler(w http.ResponseWriter, _ *http.Request) {
	bytes, err := json.Marshal(m.currentStatus())
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) deviceHandler(w http.ResponseWriter, _ *http.Request) {
	if m.device == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("No device registered"))
		dieOnErr(err)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.device)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
