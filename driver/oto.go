// SPDX-License-Identifier: EPL-2.0

//go:build !headless

package driver

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/ik5/audgraph/logger"
)

// Oto plays a Source on the default sound device.
type Oto struct {
	ctx    *oto.Context
	player *oto.Player
	pump   *Pump
	log    *logger.Logger
}

// NewOto opens the device with the graph's rate and channel count. latency
// is the device buffer; zero lets oto choose.
func NewOto(src Source, latency time.Duration, log *logger.Logger) (*Oto, error) {
	if log == nil {
		log = logger.Nop()
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   src.SampleRate(),
		ChannelCount: src.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	<-ready

	o := &Oto{
		ctx:  ctx,
		pump: NewPump(src, src.MaxBlock()),
		log:  log.Module("oto"),
	}
	o.player = ctx.NewPlayer(o.pump)
	return o, nil
}

func (o *Oto) Start() {
	o.log.Info().Msg("playback started")
	o.player.Play()
}

// Err reports a playback failure.
func (o *Oto) Err() error { return o.player.Err() }

func (o *Oto) Close() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	o.log.Info().Msg("playback stopped")
	return nil
}
