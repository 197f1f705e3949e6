// Package loopback provides an in-process communication adapter. It carries
// a line-based command protocol between in-process clients and the device,
// without any networking involved.
package loopback

import (
	"time"

	"github.com/devsimlab/devsim/sim"
)

// CommandHandler interprets one command line and produces the reply. The
// device side of the adapter implements this.
type CommandHandler interface {
	Command(line string) string
}

// queueSize bounds the number of requests waiting for the next cycle.
const queueSize = 16

type request struct {
	line  string
	reply chan string
}

// An Adapter queues client requests and services them against the device
// when the cycle engine paces through it.
type Adapter struct {
	handler  CommandHandler
	requests chan request
}

var _ sim.Adapter = (*Adapter)(nil)

// New creates an adapter that forwards commands to the given handler.
func New(handler CommandHandler) *Adapter {
	return &Adapter{
		handler:  handler,
		requests: make(chan request, queueSize),
	}
}

// Request submits one command line. The reply becomes available on the
// returned channel once the engine services the adapter. A full queue is
// answered immediately with an error reply.
func (a *Adapter) Request(line string) <-chan string {
	r := request{line: line, reply: make(chan string, 1)}

	select {
	case a.requests <- r:
	default:
		r.reply <- "err: adapter busy"
	}

	return r.reply
}

// Handle services pending requests for timeoutSeconds. It blocks the full
// timeout, which is what paces the cycle loop. Implements sim.Adapter.
func (a *Adapter) Handle(timeoutSeconds float64) {
	deadline := time.NewTimer(
		time.Duration(timeoutSeconds * float64(time.Second)))
	defer deadline.Stop()

	for {
		select {
		case r := <-a.requests:
			r.reply <- a.handler.Command(r.line)
		case <-deadline.C:
			return
		}
	}
}
