// SPDX-License-Identifier: EPL-2.0

package sampler

import (
	"github.com/ik5/audgraph/control"
	"github.com/ik5/audgraph/graph"
	"github.com/ik5/audgraph/logger"
)

// Requester hands out load tickets. *Loader implements it.
type Requester interface {
	Request(name string) (*Ticket, bool)
}

// Player is a polyphonic sample playback module with no inputs.
//
// Commands:
//
//	playsample [string file][float gain][float pitch][int loop]
//	stopall
//	forget     [string file]
type Player struct {
	graph.Identity

	channels int
	voices   []Voice
	loader   Requester
	resident map[string]*Sample

	log *logger.Logger
}

func NewPlayer(id string, polyphony, channels int, loader Requester, log *logger.Logger) *Player {
	if polyphony <= 0 {
		polyphony = 16
	}
	if channels <= 0 {
		channels = 2
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Player{
		Identity: graph.NewIdentity(id),
		channels: channels,
		voices:   make([]Voice, polyphony),
		loader:   loader,
		resident: make(map[string]*Sample),
		log:      log.Module("player"),
	}
}

func (p *Player) Prepare(inChannels, outChannels *int) bool {
	*inChannels = 0
	*outChannels = p.channels
	return true
}

func (p *Player) Process(_, outs [][]float32, frames int) {
	for _, out := range outs {
		clear(out[:frames])
	}
	for i := range p.voices {
		v := &p.voices[i]
		if v.State() == Inactive {
			continue
		}
		if s := v.Poll(); s != nil {
			p.resident[s.Name] = s
		}
		v.Synthesize(outs, frames)
	}
}

func (p *Player) Control(command string, payload *control.Channel) {
	switch command {
	case "playsample":
		name, ok := payload.ReadString()
		if !ok {
			p.log.Warn().Msg("playsample without file name")
			return
		}
		p.Trigger(name, payload)
	case "stopall":
		p.StopAll()
	case "forget":
		if name, ok := payload.ReadString(); ok {
			delete(p.resident, name)
		}
	default:
		p.log.Warn().Str("command", command).Msg("unknown player command")
	}
}

func (p *Player) Stop() bool {
	p.StopAll()
	return true
}

// Trigger starts name on a free voice with the parameters left in
// payload. It returns false when no voice is free or the load cannot be
// queued; no voice changes state in that case.
func (p *Player) Trigger(name string, payload *control.Channel) bool {
	v := p.freeVoice()
	if v == nil {
		p.log.Warn().Str("name", name).Msg("no free voice")
		return false
	}

	if s, ok := p.resident[name]; ok {
		v.Init(s, payload)
		return true
	}

	if p.loader == nil {
		p.log.Warn().Str("name", name).Msg("sample not resident and no loader")
		return false
	}
	t, ok := p.loader.Request(name)
	if !ok {
		p.log.Warn().Str("name", name).Msg("load queue full")
		return false
	}
	v.Init(nil, payload)
	v.Wait(t)
	return true
}

// Preload makes s resident. Only call it before the player is added to a
// graph or from the audio thread.
func (p *Player) Preload(s *Sample) {
	p.resident[s.Name] = s
}

func (p *Player) StopAll() {
	for i := range p.voices {
		p.voices[i].Stop()
	}
}

// Active counts voices that are waiting or playing.
func (p *Player) Active() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].State() != Inactive {
			n++
		}
	}
	return n
}

func (p *Player) freeVoice() *Voice {
	for i := range p.voices {
		if p.voices[i].State() == Inactive {
			return &p.voices[i]
		}
	}
	return nil
}
