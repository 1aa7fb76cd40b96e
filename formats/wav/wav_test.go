// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audgraph/audio"
)

func TestWriterDecoderRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     int
		channels int
		blocks   [][]float32
	}{
		{name: "mono", rate: 8000, channels: 1, blocks: [][]float32{{0, 0.5, -0.5}, {1, -1}}},
		{name: "stereo", rate: 48000, channels: 2, blocks: [][]float32{{0.25, -0.25, 0.75, -0.75}}},
		{name: "clipped", rate: 22050, channels: 1, blocks: [][]float32{{2, -2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "out.wav")
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			w := NewWriter(f, tt.rate, tt.channels)
			var want []float32
			for _, b := range tt.blocks {
				if err := w.Write(b); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
				want = append(want, b...)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}
			if got := w.Frames(); got != len(want)/tt.channels {
				t.Errorf("Frames() = %d, want %d", got, len(want)/tt.channels)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			src, err := Decoder{}.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if src.SampleRate() != tt.rate || src.Channels() != tt.channels {
				t.Errorf("format = %d Hz %d ch, want %d Hz %d ch", src.SampleRate(), src.Channels(), tt.rate, tt.channels)
			}

			got, err := audio.ReadAll(src, 64)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("decoded %d samples, want %d", len(got), len(want))
			}
			for i := range want {
				exp := math.Max(-1, math.Min(1, float64(want[i])))
				if math.Abs(float64(got[i])-exp) > 1e-3 {
					t.Errorf("sample %d = %v, want %v", i, got[i], exp)
				}
			}
		})
	}
}

func TestWriter_Errors(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := NewWriter(f, 8000, 2)
	if err := w.Write([]float32{0, 0, 0}); !errors.Is(err, ErrUnsupportedWavLayout) {
		t.Errorf("Write(partial frame) error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Write([]float32{0, 0}); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("Write() after Close error = %v, want ErrWriterClosed", err)
	}
}

func TestDecoder_NotWav(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("this is not a riff file at all, not even close")))
	if !errors.Is(err, ErrNotWavFile) {
		t.Errorf("Decode() error = %v, want ErrNotWavFile", err)
	}
}
