// Package motor provides the demo device: a linear motor that moves toward a
// target position at a fixed velocity.
package motor

import (
	"fmt"
	"strconv"
	"strings"
)

// A Motor is a simulated linear axis. Process advances the position toward
// the target by Speed units per simulated second.
type Motor struct {
	Position float64
	Target   float64
	Speed    float64
}

// New creates a motor resting at position 0 with a speed of 1 unit/s.
func New() *Motor {
	return &Motor{Speed: 1.0}
}

// Process advances the motor by delta simulated seconds. It implements
// sim.Device.
func (m *Motor) Process(delta float64) {
	if m.Position == m.Target {
		return
	}

	step := m.Speed * delta

	if m.Position < m.Target {
		m.Position += step
		if m.Position > m.Target {
			m.Position = m.Target
		}
		return
	}

	m.Position -= step
	if m.Position < m.Target {
		m.Position = m.Target
	}
}

// Moving reports whether the motor has not reached its target yet.
func (m *Motor) Moving() bool {
	return m.Position != m.Target
}

// Command interprets one line of the motor's control protocol and returns
// the reply. It implements loopback.CommandHandler.
//
//	pos              report the current position
//	target [value]   report or set the target position
//	speed [value]    report or set the velocity
//	stop             hold the current position
func (m *Motor) Command(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "err: empty command"
	}

	switch fields[0] {
	case "pos":
		return fmt.Sprintf("%g", m.Position)
	case "target":
		return m.getOrSet(fields, &m.Target)
	case "speed":
		return m.getOrSet(fields, &m.Speed)
	case "stop":
		m.Target = m.Position
		return "ok"
	default:
		return "err: unknown command " + fields[0]
	}
}

func (m *Motor) getOrSet(fields []string, value *float64) string {
	if len(fields) == 1 {
		return fmt.Sprintf("%g", *value)
	}

	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "err: not a number: " + fields[1]
	}

	*value = v

	return "ok"
}
