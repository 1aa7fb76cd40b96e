// SPDX-License-Identifier: EPL-2.0

package graph

import "fmt"

// compile resolves the buffers of the item at pos. It runs on the audio
// thread, or before the audio thread starts.
func (g *Graph) compile(pos int) error {
	it := g.items[pos]
	if it == g.collectorItem {
		it.conns = g.collector.connections(it.conns[:0])
	}

	in, out := len(it.conns), len(it.outs)
	if !it.module.Prepare(&in, &out) {
		return fmt.Errorf("%s: %w", it.ID(), ErrPrepareFailed)
	}
	if in < 0 || out < 0 {
		return fmt.Errorf("%s: negative channel count: %w", it.ID(), ErrPrepareFailed)
	}

	it.ins = resizeIDs(it.ins, in)
	g.resolveInputs(it)

	it.outs = resizeIDs(it.outs, out)
	for k := range it.outs {
		if it.outs[k] == NoBuffer {
			it.outs[k] = g.findFreeBuf(pos, k)
		}
	}
	g.bind(it)
	it.compiled = true

	if it != g.collectorItem && out > 0 && !it.wired {
		g.wireToCollector(it)
	}
	return nil
}

// uncompile drops every collector mapping fed by it, implicit or not.
func (g *Graph) uncompile(it *Item) {
	if g.collector.removeSource(it.ID()) > 0 {
		g.recompileCollector()
	}
	it.wired = false
	it.compiled = false
}

// wireToCollector maps every output of it onto the hardware channels so a
// new module is audible without explicit patching.
func (g *Graph) wireToCollector(it *Item) {
	channels := g.collector.Channels()
	for k := range it.outs {
		g.collector.addMapping(Mapping{
			Source:        it.ID(),
			SourceChannel: k,
			DestChannel:   k % channels,
		})
	}
	it.wired = true
	g.recompileCollector()
}

func (g *Graph) recompileCollector() {
	g.collector.dirty = false
	if err := g.compile(len(g.items) - 1); err != nil {
		panic("graph: output collector failed to compile: " + err.Error())
	}
}

// resolveInputs looks every connection of it up in the live list. A
// missing source or channel resolves to NoBuffer, which reads as silence.
func (g *Graph) resolveInputs(it *Item) {
	for i := range it.ins {
		it.ins[i] = NoBuffer
		if i >= len(it.conns) {
			continue
		}
		c := it.conns[i]
		src := g.lookup(c.Source)
		if src == nil || src == it || c.Channel < 0 || c.Channel >= len(src.outs) {
			continue
		}
		buf := src.outs[c.Channel]
		if buf != NoBuffer && g.writers(buf) > 1 {
			buf = g.rebind(src, c.Channel)
		}
		it.ins[i] = buf
	}
}

// findFreeBuf returns the first pooled buffer that output slot of the
// item at pos may use, growing the pool when none qualifies.
func (g *Graph) findFreeBuf(pos, slot int) BufferID {
	for id := range g.pool.Len() {
		if g.bufIsFree(BufferID(id), pos, slot) {
			return BufferID(id)
		}
	}
	return g.pool.grow()
}

// bufIsFree reports whether buf may become output slot of the item at pos.
//
// The rest of the list is scanned forward, wrapping around, in processing
// order. If the first item touching buf reads it, a live consumer still
// needs its content. If the first item touching buf writes it, every
// reader of the previous content runs before the candidate and the
// content is dead by the time the candidate writes. This only holds
// because the processing order is fixed.
func (g *Graph) bufIsFree(buf BufferID, pos, slot int) bool {
	cand := g.items[pos]
	for k, b := range cand.outs {
		if b == buf {
			return k == slot
		}
	}
	if cand.reads(buf) {
		return false
	}

	n := len(g.items)
	for step := 1; step < n; step++ {
		it := g.items[(pos+step)%n]
		if it.reads(buf) {
			return false
		}
		if it.writes(buf) {
			return true
		}
	}
	return true
}

// writers counts the live items writing buf.
func (g *Graph) writers(buf BufferID) int {
	n := 0
	for _, it := range g.items {
		if it.writes(buf) {
			n++
		}
	}
	return n
}

// rebind moves output slot of src to a fresh buffer. It is used when a
// reader appears for a buffer that the liveness scan let another module
// share while nobody was reading it.
func (g *Graph) rebind(src *Item, slot int) BufferID {
	old := src.outs[slot]
	buf := g.pool.grow()
	src.outs[slot] = buf
	g.bind(src)
	g.log.Debug().
		Str("id", src.ID()).
		Int("slot", slot).
		Int("from", int(old)).
		Int("to", int(buf)).
		Msg("output rebound")

	for _, it := range g.items {
		for i, b := range it.ins {
			if b == old && i < len(it.conns) && it.conns[i].Source == src.ID() && it.conns[i].Channel == slot {
				it.ins[i] = buf
				g.bind(it)
			}
		}
	}
	return buf
}

// resolveAll re-resolves inputs of every compiled item, after a removal.
func (g *Graph) resolveAll() {
	for _, it := range g.items {
		if !it.compiled {
			continue
		}
		g.resolveInputs(it)
		g.bind(it)
	}
}

// bind refreshes the slices handed to Process.
func (g *Graph) bind(it *Item) {
	it.inBufs = resize(it.inBufs, len(it.ins))
	for i, b := range it.ins {
		if b == NoBuffer {
			it.inBufs[i] = g.silence
		} else {
			it.inBufs[i] = g.pool.Get(b)
		}
	}
	it.outBufs = resize(it.outBufs, len(it.outs))
	for i, b := range it.outs {
		it.outBufs[i] = g.pool.Get(b)
	}
	it.inView = resize(it.inView, len(it.ins))
	it.outView = resize(it.outView, len(it.outs))
}

func (g *Graph) lookup(id string) *Item {
	for _, it := range g.items {
		if it.ID() == id {
			return it
		}
	}
	return nil
}

// resize returns s with length n, keeping existing elements.
func resize[T any](s []T, n int) []T {
	if n <= len(s) {
		return s[:n]
	}
	var zero T
	for len(s) < n {
		s = append(s, zero)
	}
	return s
}

// resizeIDs is resize for buffer ids; new slots are NoBuffer.
func resizeIDs(s []BufferID, n int) []BufferID {
	if n <= len(s) {
		return s[:n]
	}
	for len(s) < n {
		s = append(s, NoBuffer)
	}
	return s
}
