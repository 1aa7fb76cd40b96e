// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"sync"

	"github.com/ik5/audgraph/control"
)

// Command is one control message received by a Module.
type Command struct {
	Name    string
	Payload *control.Channel
}

// Module is a graph module test double. It writes Value plus the sum of
// its inputs to every output and records what it receives.
type Module struct {
	mtx sync.Mutex

	id    string
	in    int
	out   int
	value float32

	// Reject makes Prepare fail.
	Reject bool
	// FixedInputs makes Prepare report In inputs whatever is connected.
	FixedInputs bool

	commands  []Command
	processed int
	lastIns   [][]float32
	stopped   bool
	finished  bool
}

// NewModule returns a module with in inputs and out outputs, writing
// value on every output sample.
func NewModule(id string, in, out int, value float32) *Module {
	return &Module{id: id, in: in, out: out, value: value}
}

func (m *Module) ID() string {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.id
}

func (m *Module) SetID(id string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.id = id
}

func (m *Module) Prepare(inChannels, outChannels *int) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.Reject {
		return false
	}
	if m.FixedInputs {
		*inChannels = m.in
	}
	*outChannels = m.out
	return true
}

func (m *Module) Process(ins, outs [][]float32, frames int) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.processed++
	if len(m.lastIns) != len(ins) {
		m.lastIns = make([][]float32, len(ins))
	}
	for i, in := range ins {
		m.lastIns[i] = append(m.lastIns[i][:0], in...)
	}
	for _, out := range outs {
		for f := range out[:frames] {
			v := m.value
			for _, in := range ins {
				v += in[f]
			}
			out[f] = v
		}
	}
}

func (m *Module) Control(command string, payload *control.Channel) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.commands = append(m.commands, Command{Name: command, Payload: payload})
}

func (m *Module) Stop() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.stopped = true
	return true
}

// Finish asks the graph to remove the module after the next cycle.
func (m *Module) Finish() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.finished = true
}

func (m *Module) Finished() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.finished
}

func (m *Module) Commands() []Command {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return append([]Command(nil), m.commands...)
}

func (m *Module) Processed() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.processed
}

// LastInputs returns a copy of the inputs seen by the last Process call.
func (m *Module) LastInputs() [][]float32 {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	res := make([][]float32, len(m.lastIns))
	for i, in := range m.lastIns {
		res[i] = append([]float32(nil), in...)
	}
	return res
}

func (m *Module) Stopped() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.stopped
}
