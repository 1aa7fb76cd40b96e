// SPDX-License-Identifier: EPL-2.0

package control

import (
	"bytes"
	"errors"
	"testing"
)

func TestChannel_WireLayout(t *testing.T) {
	t.Parallel()

	c := NewChannel(64)
	c.WriteString("abc")
	c.WriteFloat32(1)

	want := []byte{
		',', 's', 0, 0, 'a', 'b', 'c', 0,
		',', 'f', 0, 0, 0x00, 0x00, 0x80, 0x3f,
	}
	if !bytes.Equal(c.Bytes(), want) {
		t.Errorf("Bytes() = %v, want %v", c.Bytes(), want)
	}
}

func TestChannel_StringPadding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		size int
	}{
		{name: "empty", s: "", size: 8},
		{name: "three chars", s: "abc", size: 8},
		{name: "four chars", s: "abcd", size: 12},
		{name: "seven chars", s: "abcdefg", size: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewChannel(32)
			c.WriteString(tt.s)
			if c.Len() != tt.size {
				t.Fatalf("Len() = %d, want %d", c.Len(), tt.size)
			}

			got, ok := c.ReadString()
			if !ok || got != tt.s {
				t.Errorf("ReadString() = %q, %v, want %q, true", got, ok, tt.s)
			}
			if c.Remaining() != 0 {
				t.Errorf("Remaining() = %d, want 0", c.Remaining())
			}
		})
	}
}

func TestChannel_RoundTrip(t *testing.T) {
	t.Parallel()

	c := NewChannel(64)
	c.WriteString("kick.wav")
	c.WriteFloat32(0.5)
	c.WriteInt32(-7)
	c.WriteTimeStamp(0x0102030405060708)
	c.WriteBlob([]byte{1, 2, 3, 4, 5})

	if s, ok := c.ReadString(); !ok || s != "kick.wav" {
		t.Errorf("ReadString() = %q, %v", s, ok)
	}
	if f, ok := c.ReadFloat32(); !ok || f != 0.5 {
		t.Errorf("ReadFloat32() = %v, %v", f, ok)
	}
	if i, ok := c.ReadInt32(); !ok || i != -7 {
		t.Errorf("ReadInt32() = %v, %v", i, ok)
	}
	if ts, ok := c.ReadTimeStamp(); !ok || ts != 0x0102030405060708 {
		t.Errorf("ReadTimeStamp() = %x, %v", ts, ok)
	}
	if b, ok := c.ReadBlob(); !ok || !bytes.Equal(b, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("ReadBlob() = %v, %v", b, ok)
	}
	if c.Err() != nil {
		t.Errorf("Err() = %v, want nil", c.Err())
	}
}

func TestChannel_NumericCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		write   func(c *Channel)
		wantF   float32
		wantI   int32
		readInt bool
	}{
		{name: "int as float", write: func(c *Channel) { c.WriteInt32(3) }, wantF: 3},
		{name: "negative int as float", write: func(c *Channel) { c.WriteInt32(-2) }, wantF: -2},
		{name: "float rounds down", write: func(c *Channel) { c.WriteFloat32(2.4) }, wantI: 2, readInt: true},
		{name: "float rounds up", write: func(c *Channel) { c.WriteFloat32(2.5) }, wantI: 3, readInt: true},
		{name: "negative float rounds", write: func(c *Channel) { c.WriteFloat32(-1.6) }, wantI: -2, readInt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewChannel(16)
			tt.write(c)

			if tt.readInt {
				got, ok := c.ReadInt32()
				if !ok || got != tt.wantI {
					t.Errorf("ReadInt32() = %d, %v, want %d, true", got, ok, tt.wantI)
				}
				return
			}
			got, ok := c.ReadFloat32()
			if !ok || got != tt.wantF {
				t.Errorf("ReadFloat32() = %v, %v, want %v, true", got, ok, tt.wantF)
			}
		})
	}
}

func TestChannel_MismatchSkipsParameter(t *testing.T) {
	t.Parallel()

	c := NewChannel(64)
	c.WriteString("not a number")
	c.WriteFloat32(0.25)

	if _, ok := c.ReadFloat32(); ok {
		t.Fatal("ReadFloat32() on a string should fail")
	}
	got, ok := c.ReadFloat32()
	if !ok || got != 0.25 {
		t.Errorf("ReadFloat32() after skip = %v, %v, want 0.25, true", got, ok)
	}
	if c.Err() != nil {
		t.Errorf("Err() = %v, want nil", c.Err())
	}
}

// Writes mixed values, ignores a subset through Skip and checks the rest
// decode in order.
func TestChannel_SkipResynchronizes(t *testing.T) {
	t.Parallel()

	type param struct {
		write func(c *Channel)
		check func(t *testing.T, c *Channel)
	}
	params := []param{
		{
			write: func(c *Channel) { c.WriteInt32(11) },
			check: func(t *testing.T, c *Channel) {
				if v, ok := c.ReadInt32(); !ok || v != 11 {
					t.Errorf("ReadInt32() = %d, %v, want 11", v, ok)
				}
			},
		},
		{
			write: func(c *Channel) { c.WriteString("hello world") },
			check: func(t *testing.T, c *Channel) {
				if v, ok := c.ReadString(); !ok || v != "hello world" {
					t.Errorf("ReadString() = %q, %v", v, ok)
				}
			},
		},
		{
			write: func(c *Channel) { c.WriteTimeStamp(42) },
			check: func(t *testing.T, c *Channel) {
				if v, ok := c.ReadTimeStamp(); !ok || v != 42 {
					t.Errorf("ReadTimeStamp() = %d, %v", v, ok)
				}
			},
		},
		{
			write: func(c *Channel) { c.WriteBlob([]byte("xyz")) },
			check: func(t *testing.T, c *Channel) {
				if v, ok := c.ReadBlob(); !ok || string(v) != "xyz" {
					t.Errorf("ReadBlob() = %q, %v", v, ok)
				}
			},
		},
		{
			write: func(c *Channel) { c.WriteFloat32(-0.75) },
			check: func(t *testing.T, c *Channel) {
				if v, ok := c.ReadFloat32(); !ok || v != -0.75 {
					t.Errorf("ReadFloat32() = %v, %v", v, ok)
				}
			},
		},
		{
			write: func(c *Channel) { c.WriteString("") },
			check: func(t *testing.T, c *Channel) {
				if v, ok := c.ReadString(); !ok || v != "" {
					t.Errorf("ReadString() = %q, %v", v, ok)
				}
			},
		},
	}

	// every subset of ignored parameters
	for mask := 0; mask < 1<<len(params); mask++ {
		c := NewChannel(128)
		for _, p := range params {
			p.write(c)
		}
		for i, p := range params {
			if mask&(1<<i) != 0 {
				if !c.Skip() {
					t.Fatalf("mask %b: Skip() of parameter %d failed", mask, i)
				}
				continue
			}
			p.check(t, c)
		}
		if c.Remaining() != 0 || c.Err() != nil {
			t.Errorf("mask %b: Remaining() = %d, Err() = %v", mask, c.Remaining(), c.Err())
		}
	}
}

func TestChannel_ReadPastEnd(t *testing.T) {
	t.Parallel()

	c := NewChannel(8)
	c.WriteFloat32(1)
	c.ReadFloat32()

	if _, ok := c.ReadFloat32(); ok {
		t.Error("ReadFloat32() past end should fail")
	}
	if c.Err() != nil {
		t.Errorf("Err() at clean end = %v, want nil", c.Err())
	}
}

func TestChannel_Truncated(t *testing.T) {
	t.Parallel()

	full := NewChannel(16)
	full.WriteFloat32(1)
	full.WriteInt32(2)

	c := FromBytes(full.Bytes()[:10])
	if _, ok := c.ReadFloat32(); !ok {
		t.Fatal("first parameter should decode")
	}
	if _, ok := c.ReadInt32(); ok {
		t.Error("ReadInt32() on a truncated payload should fail")
	}
	if !errors.Is(c.Err(), ErrTruncated) {
		t.Errorf("Err() = %v, want ErrTruncated", c.Err())
	}
	if c.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", c.Remaining())
	}
}

func TestChannel_UnknownMarker(t *testing.T) {
	t.Parallel()

	c := FromBytes([]byte{',', 'x', 0, 0, 1, 2, 3, 4})
	if _, ok := c.ReadInt32(); ok {
		t.Error("ReadInt32() on unknown marker should fail")
	}
	if !errors.Is(c.Err(), ErrUnknownMarker) {
		t.Errorf("Err() = %v, want ErrUnknownMarker", c.Err())
	}
}

func TestChannel_ResetAndClone(t *testing.T) {
	t.Parallel()

	c := NewChannel(16)
	c.WriteInt32(5)
	c.ReadInt32()
	c.Reset()

	clone := c.Clone()
	c.Clear()

	if v, ok := clone.ReadInt32(); !ok || v != 5 {
		t.Errorf("clone ReadInt32() = %d, %v, want 5", v, ok)
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}
