// SPDX-License-Identifier: EPL-2.0

// Package driver feeds the engine's collector output to a sound device or
// to a WAV file. Either way the driver's goroutine is the audio thread.
package driver

import (
	"encoding/binary"
	"math"
)

// Source is a graph seen from the hardware side. *graph.Graph implements
// it.
type Source interface {
	Process(frames int)
	Output() []float32
	Channels() int
	SampleRate() int
	MaxBlock() int
}

// Pump pulls fixed size cycles from a Source and hands out their samples
// in whatever chunk sizes the device asks for, keeping leftovers between
// calls.
type Pump struct {
	src   Source
	block int

	buf  []float32
	left []float32
	conv []float32
}

// NewPump runs cycles of block frames; zero or more than the graph
// allows uses the graph maximum.
func NewPump(src Source, block int) *Pump {
	if block <= 0 || block > src.MaxBlock() {
		block = src.MaxBlock()
	}
	return &Pump{
		src:   src,
		block: block,
		buf:   make([]float32, block*src.Channels()),
	}
}

// Fill writes exactly len(dst) interleaved samples.
func (p *Pump) Fill(dst []float32) {
	for len(dst) > 0 {
		if len(p.left) == 0 {
			p.src.Process(p.block)
			n := copy(p.buf, p.src.Output())
			p.left = p.buf[:n]
			if n == 0 {
				clear(dst)
				return
			}
		}
		n := copy(dst, p.left)
		p.left = p.left[n:]
		dst = dst[n:]
	}
}

// Read implements io.Reader with float32 little-endian samples, the
// format oto is opened with.
func (p *Pump) Read(b []byte) (int, error) {
	samples := len(b) / 4
	if cap(p.conv) < samples {
		p.conv = make([]float32, samples)
	}
	tmp := p.conv[:samples]
	p.Fill(tmp)
	for i, v := range tmp {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return samples * 4, nil
}
