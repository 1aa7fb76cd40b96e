// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"io"
	"math"
)

// Source serves fixed interleaved data through the audio.Source methods.
// It does not import the audio package to stay usable from its tests.
type Source struct {
	data     []float32
	rate     int
	channels int
	off      int
	closed   bool

	// Chunk caps the samples returned per read; zero means no cap. It need
	// not be a multiple of the channel count.
	Chunk int
}

func NewSource(rate, channels int, data []float32) *Source {
	return &Source{data: data, rate: rate, channels: channels}
}

// NewWave generates frames frames of wave(frame, channel).
func NewWave(rate, channels, frames int, wave func(frame, channel int) float32) *Source {
	data := make([]float32, frames*channels)
	for f := range frames {
		for c := range channels {
			data[f*channels+c] = wave(f, c)
		}
	}
	return NewSource(rate, channels, data)
}

// Sine returns a wave function of freq Hz at rate, identical on every
// channel.
func Sine(rate int, freq float64) func(frame, channel int) float32 {
	return func(frame, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(frame) / float64(rate)))
	}
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BufSize() int    { return 4096 }

func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Source) Closed() bool { return s.closed }

// Data returns the samples the source serves.
func (s *Source) Data() []float32 { return s.data }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.off >= len(s.data) {
		return 0, io.EOF
	}
	if s.Chunk > 0 && len(dst) > s.Chunk {
		dst = dst[:s.Chunk]
	}
	n := copy(dst, s.data[s.off:])
	s.off += n
	return n, nil
}
