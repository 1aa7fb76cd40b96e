// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"path/filepath"
	"strings"
	"sync"
)

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). io.EOF marks
	// the end of the stream and may come with n > 0.
	ReadSamples(dst []float32) (n int, err error)
	BufSize() int
	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg") and by
// file extension.
type Registry struct {
	codecs map[string]Decoder
	exts   map[string]string
	mtx    *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		exts:   make(map[string]string),
		mtx:    &sync.Mutex{},
	}
}

// Register adds d under format. exts are file extensions, with or without
// the leading dot, that resolve to format.
func (r *Registry) Register(format string, d Decoder, exts ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[format] = d
	for _, ext := range exts {
		r.exts[normExt(ext)] = format
	}
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// ForFile picks the decoder registered for the extension of name.
func (r *Registry) ForFile(name string) (Decoder, bool) {
	ext := normExt(filepath.Ext(name))

	r.mtx.Lock()
	defer r.mtx.Unlock()

	format, ok := r.exts[ext]
	if !ok {
		return nil, false
	}
	d, ok := r.codecs[format]
	return d, ok
}

// Formats lists the registered format keys.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	res := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		res = append(res, k)
	}
	return res
}

func normExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
