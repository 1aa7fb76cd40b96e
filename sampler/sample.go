// SPDX-License-Identifier: EPL-2.0

package sampler

import "sync/atomic"

// Sample is a fully decoded, interleaved sound held in memory.
type Sample struct {
	Name       string
	Channels   int
	SampleRate int
	Data       []float32
}

// Frames returns the length in frames.
func (s *Sample) Frames() int {
	if s.Channels <= 0 {
		return 0
	}
	return len(s.Data) / s.Channels
}

// Ticket tracks one load request. The loader resolves it exactly once,
// either publishing the sample with a single pointer store or marking it
// failed. Readers poll without locking.
type Ticket struct {
	name   string
	sample atomic.Pointer[Sample]
	failed atomic.Bool
	done   chan struct{}
}

func newTicket(name string) *Ticket {
	return &Ticket{name: name, done: make(chan struct{})}
}

func (t *Ticket) Name() string { return t.name }

// Sample returns the loaded sample, or nil while pending or after failure.
func (t *Ticket) Sample() *Sample { return t.sample.Load() }

func (t *Ticket) Failed() bool { return t.failed.Load() }

// Done is closed once the ticket is resolved.
func (t *Ticket) Done() <-chan struct{} { return t.done }

func (t *Ticket) resolve(s *Sample, err error) {
	if err != nil || s == nil {
		t.failed.Store(true)
	} else {
		t.sample.Store(s)
	}
	close(t.done)
}
