// SPDX-License-Identifier: EPL-2.0

package graph

// Item is a module plus its wiring. Items are owned by the audio thread
// once spliced into a graph.
type Item struct {
	module Module
	conns  []Connection

	ins  []BufferID
	outs []BufferID

	// slices handed to Process, refreshed after every compile
	inBufs  [][]float32
	outBufs [][]float32
	inView  [][]float32
	outView [][]float32

	compiled bool
	wired    bool
	done     bool

	handle *Handle
}

func newItem(m Module, conns []Connection) *Item {
	c := make([]Connection, len(conns))
	copy(c, conns)
	return &Item{module: m, conns: c}
}

func (it *Item) ID() string { return it.module.ID() }

// Inputs returns the resolved input buffers.
func (it *Item) Inputs() []BufferID { return it.ins }

// Outputs returns the bound output buffers.
func (it *Item) Outputs() []BufferID { return it.outs }

func (it *Item) reads(buf BufferID) bool {
	for _, b := range it.ins {
		if b == buf {
			return true
		}
	}
	return false
}

func (it *Item) writes(buf BufferID) bool {
	for _, b := range it.outs {
		if b == buf {
			return true
		}
	}
	return false
}

func (it *Item) process(frames int) {
	if len(it.inBufs) != len(it.ins) || len(it.outBufs) != len(it.outs) {
		panic("graph: item " + it.ID() + " has unresolved buffers")
	}
	for i, b := range it.inBufs {
		it.inView[i] = b[:frames]
	}
	for i, b := range it.outBufs {
		it.outView[i] = b[:frames]
	}
	it.module.Process(it.inView, it.outView, frames)
}
