// SPDX-License-Identifier: EPL-2.0

package sampler

import (
	"math"

	"github.com/ik5/audgraph/control"
	"github.com/ik5/audgraph/utils"
)

type VoiceState int

const (
	Inactive VoiceState = iota
	WaitingForSample
	Playing
)

func (s VoiceState) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case WaitingForSample:
		return "waiting"
	case Playing:
		return "playing"
	}
	return "unknown"
}

// Voice plays one sample. It is owned by the audio thread; the loader only
// reaches it through its Ticket.
type Voice struct {
	state  VoiceState
	sample *Sample
	ticket *Ticket

	gain  float32
	pitch float32
	loop  bool
	pos   float64
}

func (v *Voice) State() VoiceState { return v.state }

// Sample returns the sample being played, if any.
func (v *Voice) Sample() *Sample { return v.sample }

// Init reads the playback parameters [gain][pitch][loop] from payload,
// each optional, and starts playing s. With a nil s the voice waits for a
// ticket given to Wait.
func (v *Voice) Init(s *Sample, payload *control.Channel) {
	v.gain, v.pitch, v.loop = 1, 1, false
	if payload != nil {
		if g, ok := payload.ReadFloat32(); ok {
			v.gain = g
		}
		if p, ok := payload.ReadFloat32(); ok {
			v.pitch = p
		}
		if l, ok := payload.ReadInt32(); ok {
			v.loop = l != 0
		}
	}
	if v.pitch <= 0 || math.IsNaN(float64(v.pitch)) || math.IsInf(float64(v.pitch), 0) {
		v.pitch = 1
	}

	v.pos = 0
	v.ticket = nil
	v.sample = s
	if s != nil && s.Frames() > 0 {
		v.state = Playing
	} else {
		v.sample = nil
		v.state = WaitingForSample
	}
}

// Wait parks the voice until t resolves.
func (v *Voice) Wait(t *Ticket) {
	v.ticket = t
	v.state = WaitingForSample
}

// Stop silences the voice immediately.
func (v *Voice) Stop() {
	v.state = Inactive
	v.sample = nil
	v.ticket = nil
}

// Poll checks a waiting voice's ticket. It returns the sample when the
// voice has just started playing it.
func (v *Voice) Poll() *Sample {
	if v.state != WaitingForSample || v.ticket == nil {
		return nil
	}
	if s := v.ticket.Sample(); s != nil {
		v.ticket = nil
		if s.Frames() == 0 {
			v.state = Inactive
			return nil
		}
		v.sample = s
		v.pos = 0
		v.state = Playing
		return s
	}
	if v.ticket.Failed() {
		v.ticket = nil
		v.state = Inactive
	}
	return nil
}

// Synthesize mixes n frames into outs and reports whether the voice is
// still active. Output channel o reads sample channel o modulo the sample's
// channel count.
func (v *Voice) Synthesize(outs [][]float32, n int) bool {
	v.Poll()
	if v.state != Playing {
		return v.state != Inactive
	}
	if v.pitch == 1 && v.pos == math.Trunc(v.pos) {
		v.copyAccumulate(outs, n)
	} else {
		v.interpolate(outs, n)
	}
	return v.state != Inactive
}

// copyAccumulate is the unpitched path: frames are summed straight from
// the sample.
func (v *Voice) copyAccumulate(outs [][]float32, n int) {
	s := v.sample
	frames, ch := s.Frames(), s.Channels
	done := 0
	for done < n {
		p := int(v.pos)
		count := min(n-done, frames-p)
		for o, out := range outs {
			sc := o % ch
			dst := out[done : done+count]
			for i := range dst {
				dst[i] += v.gain * s.Data[(p+i)*ch+sc]
			}
		}
		done += count
		v.pos += float64(count)

		if int(v.pos) >= frames {
			if !v.loop {
				v.finish()
				return
			}
			v.pos = 0
		}
	}
}

// interpolate walks a fractional read position, linearly interpolating
// between neighbouring frames.
func (v *Voice) interpolate(outs [][]float32, n int) {
	s := v.sample
	frames, ch := s.Frames(), s.Channels
	last := float64(frames - 1)

	for i := range n {
		if v.pos > last {
			if !v.loop {
				v.finish()
				return
			}
			v.pos = math.Mod(v.pos, float64(frames))
		}
		idx := int(v.pos)
		frac := float32(v.pos - float64(idx))
		next := idx + 1
		if next >= frames {
			if v.loop {
				next = 0
			} else {
				next = idx
			}
		}
		for o, out := range outs {
			sc := o % ch
			a := s.Data[idx*ch+sc]
			b := s.Data[next*ch+sc]
			out[i] += v.gain * utils.LinearInterpolate(a, b, frac)
		}
		v.pos += float64(v.pitch)
	}
}

func (v *Voice) finish() {
	v.state = Inactive
	v.sample = nil
}
