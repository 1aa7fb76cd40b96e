// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// PCMReader is the part of the go-audio wav and aiff decoders PCMSource
// reads from.
type PCMReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// PCMSource adapts a go-audio integer PCM decoder to Source.
type PCMSource struct {
	dec      PCMReader
	format   *goaudio.Format
	scale    float32
	bias     int
	intBuf   *goaudio.IntBuffer
	finished bool
}

// NewPCMSource wraps dec. bitDepth selects the scale; unsigned marks
// formats storing samples offset by half the range (8-bit WAV).
func NewPCMSource(dec PCMReader, bitDepth int, unsigned bool) *PCMSource {
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	full := 1 << (bitDepth - 1)
	s := &PCMSource{
		dec:    dec,
		format: dec.Format(),
		scale:  1 / float32(full),
	}
	if unsigned {
		s.bias = full
	}
	return s
}

func (s *PCMSource) SampleRate() int { return s.format.SampleRate }
func (s *PCMSource) Channels() int   { return s.format.NumChannels }

func (s *PCMSource) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *PCMSource) Close() error { return nil }

func (s *PCMSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.finished {
		return 0, io.EOF
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.format,
		}
	}
	s.intBuf.Data = s.intBuf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.intBuf)
	for i, v := range s.intBuf.Data[:n] {
		dst[i] = float32(v-s.bias) * s.scale
	}
	if err != nil && err != io.EOF {
		return n, err
	}
	if err == io.EOF || n < len(dst) {
		s.finished = true
		return n, io.EOF
	}
	return n, nil
}

// Seekable returns r as an io.ReadSeeker, buffering it in memory when it
// cannot seek. The go-audio decoders need to seek between chunks.
func Seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering input: %w", err)
	}
	return bytes.NewReader(data), nil
}
