// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audgraph/utils"
)

// Resampler streams from src to a target sample rate using cubic
// interpolation over a four-frame window. Channel count is preserved. A
// one-pole low-pass runs on the input when downsampling.
type Resampler struct {
	src      Source
	rate     int
	srcRate  int64
	channels int

	// win holds frames t-1, t0, t+1, t+2; valid marks real source frames.
	win   [4][]float32
	valid [4]bool
	// out counts frames produced; base is the source index held in win[1].
	out  int64
	base int64

	srcBuf []float32
	off, n int
	eof    bool
	primed bool

	filter bool
	alpha  float32
	lp     []float32
	seeded bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := max(src.Channels(), 1)
	if dstRate <= 0 {
		dstRate = src.SampleRate()
	}
	srcRate := src.SampleRate()
	if srcRate <= 0 {
		srcRate = dstRate
	}
	if dstRate <= 0 {
		srcRate, dstRate = 1, 1
	}

	r := &Resampler{
		src:      src,
		rate:     dstRate,
		srcRate:  int64(srcRate),
		channels: channels,
		srcBuf:   make([]float32, 1024*channels),
		filter:   srcRate > dstRate,
		alpha:    0.5,
		lp:       make([]float32, channels),
	}
	for i := range r.win {
		r.win[i] = make([]float32, channels)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// ReadSamples produces samples at the target rate. dst length must be a
// multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	frames := len(dst) / r.channels
	rate := int64(r.rate)
	written := 0
	for written < frames {
		// exact source position of the next output frame
		num := r.out * r.srcRate
		idx := num / rate
		for r.base < idx && r.valid[1] {
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
			r.base++
		}
		if !r.valid[1] {
			return written * r.channels, io.EOF
		}

		out := dst[written*r.channels : (written+1)*r.channels]
		if !r.valid[2] {
			copy(out, r.win[1])
		} else {
			t := float32(num%rate) / float32(rate)
			for c := range out {
				out[c] = utils.CubicInterpolate(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], t)
			}
		}
		written++
		r.out++
	}
	return written * r.channels, nil
}

func (r *Resampler) prime() error {
	ok, err := r.nextFrame(r.win[1])
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	copy(r.win[0], r.win[1])
	r.valid[0], r.valid[1] = true, true

	for i := 2; i < len(r.win); i++ {
		ok, err := r.nextFrame(r.win[i])
		if err != nil {
			return err
		}
		r.valid[i] = ok
		if !ok {
			copy(r.win[i], r.win[i-1])
		}
	}
	r.primed = true
	return nil
}

// advance slides the window one source frame forward.
func (r *Resampler) advance() error {
	first := r.win[0]
	copy(r.win[:3], r.win[1:])
	copy(r.valid[:3], r.valid[1:])
	r.win[3] = first

	ok, err := r.nextFrame(r.win[3])
	if err != nil {
		return err
	}
	r.valid[3] = ok
	if !ok {
		copy(r.win[3], r.win[2])
	}
	return nil
}

// nextFrame copies one source frame into dst. It reports false once the
// source is exhausted.
func (r *Resampler) nextFrame(dst []float32) (bool, error) {
	stalls := 0
	for r.off+r.channels > r.n {
		if r.eof {
			return false, nil
		}
		left := copy(r.srcBuf, r.srcBuf[r.off:r.n])
		n, err := r.src.ReadSamples(r.srcBuf[left:])
		r.off, r.n = 0, left+n

		switch {
		case errors.Is(err, io.EOF):
			r.eof = true
		case err != nil:
			return false, fmt.Errorf("resample: %w", err)
		case n == 0:
			stalls++
			if stalls > maxStalls {
				return false, io.ErrNoProgress
			}
		}
	}

	copy(dst, r.srcBuf[r.off:r.off+r.channels])
	r.off += r.channels

	if r.filter {
		if !r.seeded {
			copy(r.lp, dst)
			r.seeded = true
		}
		for c := range dst {
			dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.lp[c]
			r.lp[c] = dst[c]
		}
	}
	return true, nil
}
