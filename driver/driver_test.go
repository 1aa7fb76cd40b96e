// SPDX-License-Identifier: EPL-2.0

package driver

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audgraph/audio"
	"github.com/ik5/audgraph/formats/wav"
	"github.com/ik5/audgraph/graph"
	"github.com/ik5/audgraph/internal/audiotest"
	"github.com/ik5/audgraph/logger"
)

// counter emits a running sample index on every channel.
type counter struct {
	channels, block int
	next            float32
	out             []float32
	cycles          int
	sizes           []int
}

func (c *counter) Channels() int   { return c.channels }
func (c *counter) SampleRate() int { return 8000 }
func (c *counter) MaxBlock() int   { return c.block }
func (c *counter) Output() []float32 {
	return c.out
}

func (c *counter) Process(frames int) {
	c.cycles++
	c.sizes = append(c.sizes, frames)
	c.out = c.out[:0]
	for range frames {
		for range c.channels {
			c.out = append(c.out, c.next)
		}
		c.next++
	}
}

func TestPump_Fill(t *testing.T) {
	t.Parallel()

	src := &counter{channels: 2, block: 4}
	p := NewPump(src, 0)

	var got []float32
	for _, n := range []int{3, 1, 10, 2, 6} {
		dst := make([]float32, n)
		p.Fill(dst)
		got = append(got, dst...)
	}

	if len(got) != 22 {
		t.Fatalf("len = %d, want 22", len(got))
	}
	for i, v := range got {
		if want := float32(i / 2); v != want {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
	if src.cycles != 3 {
		t.Errorf("cycles = %d, want 3", src.cycles)
	}
}

func TestPump_Read(t *testing.T) {
	t.Parallel()

	p := NewPump(&counter{channels: 1, block: 2}, 2)
	b := make([]byte, 4*5+3)

	n, err := p.Read(b)
	if err != nil || n != 20 {
		t.Fatalf("Read() = %d, %v, want 20, nil", n, err)
	}
	for i := range 5 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		if v != float32(i) {
			t.Errorf("sample %d = %v, want %d", i, v, i)
		}
	}
}

type capture struct {
	data []float32
	err  error
}

func (c *capture) Write(s []float32) error {
	if c.err != nil {
		return c.err
	}
	c.data = append(c.data, s...)
	return nil
}

func TestRender(t *testing.T) {
	t.Parallel()

	g := graph.New(graph.Config{MaxBlock: 32, Channels: 2}, logger.Nop())
	g.Add(audiotest.NewModule("dc", 0, 2, 0.25))

	var w capture
	if err := Render(context.Background(), g, 100, &w); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(w.data) != 200 {
		t.Fatalf("rendered %d samples, want 200", len(w.data))
	}
	for i, v := range w.data {
		if v != 0.25 {
			t.Fatalf("sample %d = %v, want 0.25", i, v)
		}
	}
}

func TestRender_Stops(t *testing.T) {
	t.Parallel()

	src := &counter{channels: 1, block: 8}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Render(ctx, src, 64, &capture{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}

	errDisk := errors.New("disk full")
	if err := Render(context.Background(), src, 64, &capture{err: errDisk}); !errors.Is(err, errDisk) {
		t.Errorf("Render() error = %v, want %v", err, errDisk)
	}
}

func TestRender_LastBlockShort(t *testing.T) {
	t.Parallel()

	src := &counter{channels: 1, block: 8}
	if err := Render(context.Background(), src, 20, &capture{}); err != nil {
		t.Fatal(err)
	}
	if want := []int{8, 8, 4}; len(src.sizes) != 3 || src.sizes[2] != 4 {
		t.Errorf("cycle sizes = %v, want %v", src.sizes, want)
	}
}

func TestRender_ToWav(t *testing.T) {
	t.Parallel()

	g := graph.New(graph.Config{SampleRate: 16000, MaxBlock: 64, Channels: 1}, logger.Nop())
	g.Add(audiotest.NewModule("dc", 0, 1, 0.5))

	path := filepath.Join(t.TempDir(), "render.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := wav.NewWriter(f, g.SampleRate(), g.Channels())
	if err := Render(context.Background(), g, 160, w); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	src, err := wav.Decoder{}.Decode(in)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	data, err := audio.ReadAll(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 160 || src.SampleRate() != 16000 {
		t.Errorf("decoded %d samples at %d Hz", len(data), src.SampleRate())
	}
}
