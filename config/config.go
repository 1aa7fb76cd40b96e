// SPDX-License-Identifier: EPL-2.0

// Package config loads the engine settings from audgraph.yaml, AUDGRAPH_*
// environment variables and command line flags, in that order of
// precedence from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ik5/audgraph/graph"
	"github.com/kkyr/fig"
	"github.com/spf13/pflag"
)

const (
	FileName  = "audgraph.yaml"
	EnvPrefix = "AUDGRAPH"
)

type Config struct {
	Engine     Engine     `fig:"engine"`
	Sampler    Sampler    `fig:"sampler"`
	Log        Log        `fig:"log"`
	Monitoring Monitoring `fig:"monitoring"`
}

type Engine struct {
	SampleRate int    `fig:"sample_rate" default:"48000"`
	BlockSize  int    `fig:"block_size" default:"512"`
	Channels   int    `fig:"channels" default:"2"`
	Collector  string `fig:"collector" default:"out"`
	QueueSize  int    `fig:"queue_size" default:"64"`
}

// Sampler configures the sample player. Root confines sample names to one
// directory; empty opens names as given, relative to the working directory
// or absolute.
type Sampler struct {
	ID        string `fig:"id" default:"sampler"`
	Root      string `fig:"root"`
	Slots     int    `fig:"slots" default:"16"`
	Polyphony int    `fig:"polyphony" default:"32"`
	Mono      bool   `fig:"mono"`
}

type Log struct {
	Debug   bool   `fig:"debug"`
	JSON    bool   `fig:"json"`
	NoColor bool   `fig:"no_color"`
	Tag     string `fig:"tag" default:"audgraph"`
}

type Monitoring struct {
	Port             int    `fig:"port" default:"6601"`
	URLPrefix        string `fig:"url_prefix"`
	MetricEnabled    bool   `fig:"metric_enabled"`
	ProfilingEnabled bool   `fig:"profiling_enabled"`
}

func (m *Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

// Graph converts the engine section into a graph configuration.
func (e Engine) Graph() graph.Config {
	return graph.Config{
		SampleRate:  e.SampleRate,
		MaxBlock:    e.BlockSize,
		Channels:    e.Channels,
		CollectorID: e.Collector,
		QueueSize:   e.QueueSize,
	}
}

// Load reads the configuration. An empty path searches ".", "configs" and
// $HOME/.audgraph for FileName and falls back to defaults plus environment
// when none exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	var conf Config

	if path != "" {
		err := fig.Load(&conf,
			fig.File(filepath.Base(path)),
			fig.Dirs(filepath.Dir(path)),
			fig.UseEnv(EnvPrefix),
		)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return &conf, conf.Validate()
	}

	dirs := []string{".", "configs"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".audgraph"))
	}
	err := fig.Load(&conf, fig.File(FileName), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if errors.Is(err, fig.ErrFileNotFound) {
		conf = Config{}
		err = fig.Load(&conf, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &conf, conf.Validate()
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("engine.sample_rate %d: %w", c.Engine.SampleRate, ErrInvalid))
	}
	if c.Engine.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.block_size %d: %w", c.Engine.BlockSize, ErrInvalid))
	}
	if c.Engine.Channels <= 0 {
		errs = append(errs, fmt.Errorf("engine.channels %d: %w", c.Engine.Channels, ErrInvalid))
	}
	if c.Sampler.Slots <= 0 || c.Sampler.Polyphony <= 0 {
		errs = append(errs, fmt.Errorf("sampler slots %d polyphony %d: %w", c.Sampler.Slots, c.Sampler.Polyphony, ErrInvalid))
	}
	if len(c.Engine.Collector) > graph.MaxIDLength || len(c.Sampler.ID) > graph.MaxIDLength {
		errs = append(errs, fmt.Errorf("module id longer than %d: %w", graph.MaxIDLength, ErrInvalid))
	}
	return errors.Join(errs...)
}

// AddFlags binds command line overrides to c. Values already loaded are
// the flag defaults.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.Engine.SampleRate, "engine.rate", c.Engine.SampleRate, "Output sample rate in Hz")
	fs.IntVar(&c.Engine.BlockSize, "engine.block", c.Engine.BlockSize, "Frames per audio cycle")
	fs.IntVar(&c.Engine.Channels, "engine.channels", c.Engine.Channels, "Output channel count")
	fs.StringVar(&c.Sampler.Root, "sampler.root", c.Sampler.Root, "Directory --play names are resolved against, empty opens them as given")
	fs.IntVar(&c.Sampler.Slots, "sampler.slots", c.Sampler.Slots, "Concurrent sample loads")
	fs.IntVar(&c.Sampler.Polyphony, "sampler.voices", c.Sampler.Polyphony, "Simultaneous sample voices")
	fs.BoolVar(&c.Sampler.Mono, "sampler.mono", c.Sampler.Mono, "Fold samples to mono on load")
	fs.BoolVarP(&c.Log.Debug, "debug", "d", c.Log.Debug, "Enable debug logging")
	fs.BoolVar(&c.Log.JSON, "log.json", c.Log.JSON, "Log JSON instead of console output")
	fs.IntVar(&c.Monitoring.Port, "monitoring.port", c.Monitoring.Port, "Monitoring server port")
	fs.BoolVar(&c.Monitoring.MetricEnabled, "monitoring.metric", c.Monitoring.MetricEnabled, "Serve Prometheus metrics")
	fs.BoolVar(&c.Monitoring.ProfilingEnabled, "monitoring.profiling", c.Monitoring.ProfilingEnabled, "Serve pprof handlers")
}

// PathFromArgs finds --config / -c in args without failing on the flags
// that are only registered once the configuration is loaded.
func PathFromArgs(args []string) string {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)
	path := fs.StringP("config", "c", "", "")
	_ = fs.Parse(args)
	return *path
}
