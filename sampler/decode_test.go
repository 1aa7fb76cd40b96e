// SPDX-License-Identifier: EPL-2.0

package sampler

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audgraph/formats/wav"
	"github.com/ik5/audgraph/logger"
)

func writeTone(t *testing.T, path string, rate, channels, frames int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := wav.NewWriter(f, rate, channels)
	data := make([]float32, frames*channels)
	for i := range frames {
		v := float32(0.5 * math.Sin(2*math.Pi*float64(i)/32))
		for c := range channels {
			data[i*channels+c] = v
		}
	}
	if err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestFileOpener(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTone(t, filepath.Join(dir, "tone.wav"), 24000, 2, 100)

	tests := []struct {
		name         string
		opener       FileOpener
		wantChannels int
		wantRate     int
		minFrames    int
		maxFrames    int
	}{
		{
			name:         "as recorded",
			opener:       FileOpener{Root: dir},
			wantChannels: 2,
			wantRate:     24000,
			minFrames:    100,
			maxFrames:    100,
		},
		{
			name:         "resampled mono",
			opener:       FileOpener{Root: dir, SampleRate: 48000, Mono: true, BufSize: 64},
			wantChannels: 1,
			wantRate:     48000,
			minFrames:    200,
			maxFrames:    200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := tt.opener.Open("tone.wav")
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if s.Name != "tone.wav" || s.Channels != tt.wantChannels || s.SampleRate != tt.wantRate {
				t.Errorf("sample = %q %d ch %d Hz", s.Name, s.Channels, s.SampleRate)
			}
			if f := s.Frames(); f < tt.minFrames || f > tt.maxFrames {
				t.Errorf("Frames() = %d, want %d..%d", f, tt.minFrames, tt.maxFrames)
			}
		})
	}
}

func TestFileOpener_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sub := filepath.Join(root, "kit")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTone(t, filepath.Join(root, "outside.wav"), 8000, 1, 10)
	if err := os.WriteFile(filepath.Join(sub, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := &FileOpener{Root: sub}

	if _, err := o.Open("notes.txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Open(notes.txt) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := o.Open("missing.wav"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing.wav) error = %v, want not exist", err)
	}
	if _, err := o.Open("../outside.wav"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(../outside.wav) error = %v, want not exist", err)
	}
}

func TestFileOpener_AbsoluteNameWithoutRoot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kick.wav")
	writeTone(t, path, 8000, 1, 10)

	s, err := (&FileOpener{}).Open(path)
	if err != nil {
		t.Fatalf("Open(%q) error = %v", path, err)
	}
	if s.Frames() != 10 {
		t.Errorf("Frames() = %d, want 10", s.Frames())
	}
}

func TestFileOpener_SingleFrameResampled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTone(t, filepath.Join(dir, "tick.wav"), 44100, 1, 1)

	s, err := (&FileOpener{Root: dir, SampleRate: 48000}).Open("tick.wav")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Frames() == 0 || s.SampleRate != 48000 {
		t.Errorf("sample = %d frames at %d Hz", s.Frames(), s.SampleRate)
	}
}

func TestFileOpener_WithLoader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTone(t, filepath.Join(dir, "a.wav"), 48000, 1, 64)

	o := &FileOpener{Root: dir, SampleRate: 48000}
	l := NewLoader(2, o.Open, logger.Nop())
	l.Start()
	defer l.Close()

	tk, ok := l.Request("a.wav")
	if !ok {
		t.Fatal("Request() refused")
	}
	waitTicket(t, tk)

	s := tk.Sample()
	if s == nil {
		t.Fatal("load failed")
	}
	if s.Frames() != 64 || s.Channels != 1 {
		t.Errorf("sample = %d frames %d ch", s.Frames(), s.Channels)
	}
}
