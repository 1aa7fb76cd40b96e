// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"github.com/ik5/audgraph/control"
	"github.com/ik5/audgraph/logger"
)

// Mapping routes one module output channel into one hardware channel.
type Mapping struct {
	Source        string
	SourceChannel int
	DestChannel   int
}

// OutputCollector is the terminal node. It mixes every mapped input into
// an interleaved block laid out for the hardware.
type OutputCollector struct {
	Identity

	channels int
	mappings []Mapping
	block    []float32
	frames   int
	dirty    bool

	log *logger.Logger
}

func NewOutputCollector(id string, channels, maxBlock int, log *logger.Logger) *OutputCollector {
	return &OutputCollector{
		Identity: NewIdentity(id),
		channels: channels,
		block:    make([]float32, channels*maxBlock),
		log:      log,
	}
}

// Channels returns the hardware channel count.
func (o *OutputCollector) Channels() int { return o.channels }

// Mappings returns a copy of the routing table. Only valid on the goroutine
// calling Process; other goroutines change routing with Graph.Send.
func (o *OutputCollector) Mappings() []Mapping { return append([]Mapping(nil), o.mappings...) }

// Output returns the interleaved samples written by the last cycle.
func (o *OutputCollector) Output() []float32 { return o.block[:o.frames*o.channels] }

func (o *OutputCollector) Prepare(inChannels, outChannels *int) bool {
	*inChannels = len(o.mappings)
	*outChannels = 0
	return true
}

func (o *OutputCollector) Process(ins, _ [][]float32, frames int) {
	o.frames = frames
	out := o.block[:frames*o.channels]
	clear(out)

	// mappings added since the last compile have no input yet
	for i, m := range o.mappings[:min(len(o.mappings), len(ins))] {
		for f, v := range ins[i] {
			out[f*o.channels+m.DestChannel] += v
		}
	}
}

func (o *OutputCollector) Control(command string, payload *control.Channel) {
	switch command {
	case "newmapping", "removemapping":
		m, ok := readMapping(payload)
		if !ok {
			o.log.Warn().Str("command", command).Msg("malformed mapping payload")
			return
		}
		if command == "newmapping" {
			o.addMapping(m)
		} else {
			o.removeMapping(m)
		}
	case "clearmappings":
		source, ok := payload.ReadString()
		if !ok {
			o.log.Warn().Str("command", command).Msg("missing source id")
			return
		}
		o.removeSource(source)
	default:
		o.log.Warn().Str("command", command).Msg("unknown collector command")
	}
}

func (o *OutputCollector) Stop() bool { return false }

// addMapping appends m. Destinations outside the hardware layout are
// rejected.
func (o *OutputCollector) addMapping(m Mapping) bool {
	if m.DestChannel < 0 || m.DestChannel >= o.channels || m.SourceChannel < 0 {
		o.log.Warn().
			Str("source", m.Source).
			Int("src_ch", m.SourceChannel).
			Int("dst_ch", m.DestChannel).
			Msg("mapping out of range")
		return false
	}
	o.mappings = append(o.mappings, m)
	o.dirty = true
	return true
}

// removeMapping removes one mapping equal to m.
func (o *OutputCollector) removeMapping(m Mapping) bool {
	for i, cur := range o.mappings {
		if cur == m {
			o.mappings = append(o.mappings[:i], o.mappings[i+1:]...)
			o.dirty = true
			return true
		}
	}
	return false
}

// removeSource drops all mappings fed by source.
func (o *OutputCollector) removeSource(source string) int {
	kept := o.mappings[:0]
	for _, m := range o.mappings {
		if m.Source != source {
			kept = append(kept, m)
		}
	}
	removed := len(o.mappings) - len(kept)
	o.mappings = kept
	if removed > 0 {
		o.dirty = true
	}
	return removed
}

func (o *OutputCollector) connections(dst []Connection) []Connection {
	for _, m := range o.mappings {
		dst = append(dst, Connection{Source: m.Source, Channel: m.SourceChannel})
	}
	return dst
}

func readMapping(payload *control.Channel) (Mapping, bool) {
	source, ok := payload.ReadString()
	if !ok {
		return Mapping{}, false
	}
	src, ok := payload.ReadInt32()
	if !ok {
		return Mapping{}, false
	}
	dst, ok := payload.ReadInt32()
	if !ok {
		return Mapping{}, false
	}
	return Mapping{Source: source, SourceChannel: int(src), DestChannel: int(dst)}, true
}

// WriteMapping encodes a newmapping/removemapping payload.
func WriteMapping(c *control.Channel, m Mapping) {
	c.WriteString(m.Source)
	c.WriteInt32(int32(m.SourceChannel))
	c.WriteInt32(int32(m.DestChannel))
}
