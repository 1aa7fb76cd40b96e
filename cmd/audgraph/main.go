// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ik5/audgraph"
	"github.com/ik5/audgraph/config"
	"github.com/ik5/audgraph/driver"
	"github.com/ik5/audgraph/formats/wav"
	"github.com/ik5/audgraph/logger"
	"github.com/ik5/audgraph/monitoring"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
)

var Version = "dev"

type options struct {
	plays   []string
	gain    float32
	pitch   float32
	loop    bool
	render  string
	seconds float64
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "audgraph:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	conf, err := config.Load(config.PathFromArgs(args))
	if err != nil {
		return err
	}

	var opts options
	fs := flag.NewFlagSet("audgraph", flag.ContinueOnError)
	fs.StringP("config", "c", "", "Set custom configuration file path")
	conf.AddFlags(fs)
	fs.StringArrayVarP(&opts.plays, "play", "p", nil, "Sample to trigger at start, relative to sampler.root when set, repeatable")
	fs.Float32Var(&opts.gain, "gain", 1, "Gain of triggered samples")
	fs.Float32Var(&opts.pitch, "pitch", 1, "Playback speed of triggered samples")
	fs.BoolVar(&opts.loop, "loop", false, "Loop triggered samples")
	fs.StringVar(&opts.render, "render", "", "Render to this WAV file instead of the sound device")
	fs.Float64Var(&opts.seconds, "seconds", 5, "Length to render or play, zero plays until interrupted")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	log := newLogger(conf.Log)
	log.Info().Str("version", Version).Msg("audgraph")
	log.Debug().Msgf("configuration %+v", *conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := audgraph.New(*conf, log)

	if conf.Monitoring.IsEnabled() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewGoCollector())
		if err := e.Register(reg); err != nil {
			return err
		}
		mon := monitoring.New(conf.Monitoring, reg, log)
		if err := mon.Run(); err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := mon.Shutdown(sctx); err != nil {
				log.Warn().Err(err).Msg("monitoring shutdown")
			}
		}()
	}

	if opts.render != "" {
		return render(ctx, e, opts, log)
	}
	return play(ctx, e, opts, log)
}

func newLogger(c config.Log) *logger.Logger {
	if c.JSON {
		return logger.New(c.Debug)
	}
	return logger.NewConsole(c.Debug, c.Tag, c.NoColor)
}

// render decodes every sample up front so the offline run never outpaces
// the loader.
func render(ctx context.Context, e *audgraph.Engine, opts options, log *logger.Logger) error {
	for _, name := range opts.plays {
		if err := e.Load(name); err != nil {
			return err
		}
	}
	e.Start()
	defer e.Close()
	if err := trigger(e, opts); err != nil {
		return err
	}

	f, err := os.Create(opts.render)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer f.Close()

	g := e.Graph()
	w := wav.NewWriter(f, g.SampleRate(), g.Channels())
	frames := int(opts.seconds * float64(g.SampleRate()))
	if err := driver.Render(ctx, g, frames, w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	log.Info().Str("file", opts.render).Int("frames", w.Frames()).Msg("rendered")
	return nil
}

func play(ctx context.Context, e *audgraph.Engine, opts options, log *logger.Logger) error {
	e.Start()
	defer e.Close()

	out, err := driver.NewOto(e.Graph(), 0, log)
	if err != nil {
		return err
	}
	out.Start()
	defer func() {
		if err := out.Close(); err != nil {
			log.Warn().Err(err).Msg("closing output")
		}
	}()

	if err := trigger(e, opts); err != nil {
		return err
	}

	var timeout <-chan time.Time
	if opts.seconds > 0 {
		timeout = time.After(time.Duration(opts.seconds * float64(time.Second)))
	}
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("interrupted")
			return nil
		case <-timeout:
			return nil
		case <-tick.C:
			if err := out.Err(); err != nil {
				return fmt.Errorf("playback: %w", err)
			}
		}
	}
}

func trigger(e *audgraph.Engine, opts options) error {
	for _, name := range opts.plays {
		if err := e.Play(name, opts.gain, opts.pitch, opts.loop); err != nil {
			return err
		}
	}
	return nil
}
