// SPDX-License-Identifier: EPL-2.0

package graph

import "github.com/ik5/audgraph/control"

// MaxIDLength bounds module ids.
const MaxIDLength = 32

// Module is one unit of audio work scheduled by a Graph.
//
// Prepare negotiates channel counts. The graph passes the number of
// connected inputs and the current output count; the module may change
// either and the graph re-reads both. Returning false rejects the module.
//
// Process runs once per cycle on the audio thread. ins and outs have
// frames samples each. An unconnected input is silence. Process must not
// block or take locks held by other goroutines.
//
// Control receives the command part of a "<id>/<command>" message on the
// audio thread, between cycles.
//
// Stop is called on the audio thread once the module has been removed
// from the graph.
type Module interface {
	Prepare(inChannels, outChannels *int) bool
	Process(ins, outs [][]float32, frames int)
	Control(command string, payload *control.Channel)
	Stop() bool
	ID() string
	SetID(id string)
}

// Finisher is implemented by modules that can ask for their own removal.
// Finished is polled on the audio thread after every cycle.
type Finisher interface {
	Finished() bool
}

// Identity is embedded by modules to satisfy ID and SetID.
type Identity struct {
	id string
}

func NewIdentity(id string) Identity { return Identity{id: id} }

func (i *Identity) ID() string      { return i.id }
func (i *Identity) SetID(id string) { i.id = id }

// Connection names one output channel of a module, possibly one that does
// not exist yet. It is resolved to a buffer when the reader compiles.
type Connection struct {
	Source  string
	Channel int
}
