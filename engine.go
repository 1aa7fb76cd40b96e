// SPDX-License-Identifier: EPL-2.0

package audgraph

import (
	"fmt"

	"github.com/ik5/audgraph/config"
	"github.com/ik5/audgraph/control"
	"github.com/ik5/audgraph/graph"
	"github.com/ik5/audgraph/logger"
	"github.com/ik5/audgraph/monitoring"
	"github.com/ik5/audgraph/sampler"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine is a graph with a sample player patched in and the loader that
// feeds it.
type Engine struct {
	conf config.Config
	log  *logger.Logger

	graph  *graph.Graph
	opener *sampler.FileOpener
	loader *sampler.Loader
	player *sampler.Player
	handle *graph.Handle
}

func New(conf config.Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	g := graph.New(conf.Engine.Graph(), log)

	opener := &sampler.FileOpener{
		Root:       conf.Sampler.Root,
		Registry:   sampler.DefaultRegistry(),
		SampleRate: g.SampleRate(),
		Mono:       conf.Sampler.Mono,
	}
	loader := sampler.NewLoader(conf.Sampler.Slots, opener.Open, log)
	player := sampler.NewPlayer(conf.Sampler.ID, conf.Sampler.Polyphony, g.Channels(), loader, log)

	return &Engine{
		conf:   conf,
		log:    log.Module("engine"),
		graph:  g,
		opener: opener,
		loader: loader,
		player: player,
	}
}

func (e *Engine) Graph() *graph.Graph { return e.graph }

// Player returns the sample player. Preload samples on it before Start.
func (e *Engine) Player() *sampler.Player { return e.player }

// Load decodes name on the calling goroutine and makes it resident in the
// player. Only valid before Start.
func (e *Engine) Load(name string) error {
	s, err := e.opener.Open(name)
	if err != nil {
		return err
	}
	e.player.Preload(s)
	e.log.Debug().Str("name", name).Int("frames", s.Frames()).Msg("sample preloaded")
	return nil
}

// Start runs the loader and queues the player for insertion. The returned
// handle is acknowledged at the first cycle.
func (e *Engine) Start() *graph.Handle {
	e.loader.Start()
	e.handle = e.graph.Add(e.player)
	e.log.Info().
		Int("rate", e.graph.SampleRate()).
		Int("block", e.graph.MaxBlock()).
		Int("channels", e.graph.Channels()).
		Msg("engine started")
	return e.handle
}

// Play triggers name on the player. loop repeats it until stopped.
func (e *Engine) Play(name string, gain, pitch float32, loop bool) error {
	c := control.NewChannel(len(name) + 16)
	c.WriteString(name)
	c.WriteFloat32(gain)
	c.WriteFloat32(pitch)
	if loop {
		c.WriteInt32(1)
	}
	return e.send("playsample", c)
}

// StopAll silences every voice.
func (e *Engine) StopAll() error {
	return e.send("stopall", nil)
}

func (e *Engine) send(command string, c *control.Channel) error {
	id := e.conf.Sampler.ID
	if e.handle != nil {
		if assigned := e.handle.ID(); assigned != "" {
			id = assigned
		}
	}
	if err := e.graph.Send(id+"/"+command, c); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// Register exposes the engine counters on reg.
func (e *Engine) Register(reg prometheus.Registerer) error {
	if err := reg.Register(monitoring.NewCollector(e.graph.Stats(), e.loader)); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	return nil
}

// Close stops the loader and every module. Call it once the driver no
// longer runs cycles.
func (e *Engine) Close() {
	e.loader.Close()
	e.graph.Shutdown()
	e.log.Info().Msg("engine closed")
}
