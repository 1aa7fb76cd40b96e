// SPDX-License-Identifier: EPL-2.0

package graph

// BufferID indexes a buffer in a BufferPool.
type BufferID int

// NoBuffer marks an unresolved input or unbound output.
const NoBuffer BufferID = -1

// BufferPool owns every block buffer of a graph. It only grows.
type BufferPool struct {
	bufs  [][]float32
	block int
}

func NewBufferPool(block int) *BufferPool {
	return &BufferPool{block: block}
}

func (p *BufferPool) Len() int { return len(p.bufs) }

// Get returns the buffer for id. id must be valid.
func (p *BufferPool) Get(id BufferID) []float32 { return p.bufs[id] }

func (p *BufferPool) grow() BufferID {
	p.bufs = append(p.bufs, make([]float32, p.block))
	return BufferID(len(p.bufs) - 1)
}
