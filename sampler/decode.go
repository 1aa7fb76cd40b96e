// SPDX-License-Identifier: EPL-2.0

package sampler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ik5/audgraph/audio"
	"github.com/ik5/audgraph/formats/aiff"
	"github.com/ik5/audgraph/formats/mp3"
	"github.com/ik5/audgraph/formats/vorbis"
	"github.com/ik5/audgraph/formats/wav"
)

// DefaultRegistry knows every decoder shipped with the module.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{}, "wav", "wave")
	r.Register("aiff", aiff.Decoder{}, "aif", "aiff")
	r.Register("mp3", mp3.Decoder{}, "mp3")
	r.Register("ogg", vorbis.Decoder{}, "ogg", "oga")
	return r
}

// FileOpener decodes sample files below Root, converting them to the
// engine's rate. Its Open method is an OpenFunc.
type FileOpener struct {
	Root     string
	Registry *audio.Registry
	// SampleRate resamples files recorded at another rate; zero keeps it.
	SampleRate int
	Mono       bool
	BufSize    int
}

func (o *FileOpener) Open(name string) (*Sample, error) {
	reg := o.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	dec, ok := reg.ForFile(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
	}

	f, err := os.Open(o.path(name))
	if err != nil {
		return nil, fmt.Errorf("open sample: %w", err)
	}
	defer f.Close()

	decoded, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", name, err)
	}
	defer decoded.Close()

	src := decoded
	if o.SampleRate > 0 && src.SampleRate() != o.SampleRate {
		src = audio.NewResampler(src, o.SampleRate)
	}
	if o.Mono && src.Channels() > 1 {
		src = audio.NewMonoMixer(src)
	}

	data, err := audio.ReadAll(src, o.BufSize)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", name, err)
	}
	if len(data) < src.Channels() {
		return nil, fmt.Errorf("%q: %w", name, ErrEmptySample)
	}

	return &Sample{
		Name:       name,
		Channels:   src.Channels(),
		SampleRate: src.SampleRate(),
		Data:       data,
	}, nil
}

// path keeps name inside Root. Without a Root, name is used as given.
func (o *FileOpener) path(name string) string {
	if o.Root == "" {
		return name
	}
	return filepath.Join(o.Root, filepath.Clean(string(filepath.Separator)+name))
}
