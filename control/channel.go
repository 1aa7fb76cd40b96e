// SPDX-License-Identifier: EPL-2.0

package control

import (
	"encoding/binary"
	"math"
)

// Marker is the 4-byte type tag that precedes every parameter on the wire.
type Marker [4]byte

var (
	MarkerFloat32   = Marker{',', 'f', 0, 0}
	MarkerInt32     = Marker{',', 'i', 0, 0}
	MarkerTimeStamp = Marker{',', 't', 0, 0}
	MarkerString    = Marker{',', 's', 0, 0}
	MarkerBlob      = Marker{',', 'b', 0, 0}
)

const markerSize = 4

// TimeStamp is a 64-bit fixed point time tag (32.32 seconds/fraction).
type TimeStamp uint64

// Channel is a self-describing parameter stream. Writers append typed
// parameters, readers consume them in order.
//
// A Channel is not safe for concurrent use. Ownership is handed over
// together with the Message carrying it.
type Channel struct {
	buf []byte
	pos int
	err error
}

// NewChannel returns an empty Channel with room for size bytes.
func NewChannel(size int) *Channel {
	return &Channel{buf: make([]byte, 0, size)}
}

// FromBytes wraps b for reading. The Channel does not copy b.
func FromBytes(b []byte) *Channel {
	return &Channel{buf: b}
}

// Bytes returns the encoded stream.
func (c *Channel) Bytes() []byte { return c.buf }

// Len returns the encoded size in bytes.
func (c *Channel) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Channel) Remaining() int { return len(c.buf) - c.pos }

// Available reports whether n more bytes can be read.
func (c *Channel) Available(n int) bool { return n >= 0 && c.pos+n <= len(c.buf) }

// Err returns the first stream error hit by a reader, if any.
func (c *Channel) Err() error { return c.err }

// Reset rewinds the read cursor.
func (c *Channel) Reset() {
	c.pos = 0
	c.err = nil
}

// Clear drops all content while keeping the allocation.
func (c *Channel) Clear() {
	c.buf = c.buf[:0]
	c.Reset()
}

// Clone returns a deep copy positioned at the start.
func (c *Channel) Clone() *Channel {
	b := make([]byte, len(c.buf))
	copy(b, c.buf)
	return &Channel{buf: b}
}

func (c *Channel) writeMarker(m Marker) {
	c.buf = append(c.buf, m[:]...)
}

func (c *Channel) writeUint32(v uint32) {
	c.buf = binary.LittleEndian.AppendUint32(c.buf, v)
}

func (c *Channel) WriteFloat32(v float32) {
	c.writeMarker(MarkerFloat32)
	c.writeUint32(math.Float32bits(v))
}

func (c *Channel) WriteInt32(v int32) {
	c.writeMarker(MarkerInt32)
	c.writeUint32(uint32(v))
}

func (c *Channel) WriteTimeStamp(v TimeStamp) {
	c.writeMarker(MarkerTimeStamp)
	c.buf = binary.LittleEndian.AppendUint64(c.buf, uint64(v))
}

// WriteString appends s NUL-terminated and padded to a 4-byte boundary.
// s must not contain a NUL byte.
func (c *Channel) WriteString(s string) {
	c.writeMarker(MarkerString)
	c.buf = append(c.buf, s...)
	c.buf = append(c.buf, 0)
	for len(c.buf)%4 != 0 {
		c.buf = append(c.buf, 0)
	}
}

// WriteBlob appends an opaque byte payload prefixed by its length.
func (c *Channel) WriteBlob(b []byte) {
	c.writeMarker(MarkerBlob)
	c.writeUint32(uint32(len(b)))
	c.buf = append(c.buf, b...)
	for len(c.buf)%4 != 0 {
		c.buf = append(c.buf, 0)
	}
}

// PeekMarker returns the marker of the next parameter without consuming it.
func (c *Channel) PeekMarker() (Marker, bool) {
	var m Marker
	if !c.Available(markerSize) {
		return m, false
	}
	copy(m[:], c.buf[c.pos:c.pos+markerSize])
	return m, true
}

// ReadFloat32 consumes the next parameter as a float. An int32 parameter is
// converted. Any other parameter is skipped and ok is false.
func (c *Channel) ReadFloat32() (float32, bool) {
	m, ok := c.PeekMarker()
	if !ok {
		c.endOfStream()
		return 0, false
	}
	switch m {
	case MarkerFloat32:
		v, ok := c.scalar()
		return math.Float32frombits(v), ok
	case MarkerInt32:
		v, ok := c.scalar()
		return float32(int32(v)), ok
	}
	c.Skip()
	return 0, false
}

// ReadInt32 consumes the next parameter as an integer. A float32 parameter
// is rounded to the nearest integer. Any other parameter is skipped and ok
// is false.
func (c *Channel) ReadInt32() (int32, bool) {
	m, ok := c.PeekMarker()
	if !ok {
		c.endOfStream()
		return 0, false
	}
	switch m {
	case MarkerInt32:
		v, ok := c.scalar()
		return int32(v), ok
	case MarkerFloat32:
		v, ok := c.scalar()
		return int32(math.Round(float64(math.Float32frombits(v)))), ok
	}
	c.Skip()
	return 0, false
}

func (c *Channel) ReadTimeStamp() (TimeStamp, bool) {
	m, ok := c.PeekMarker()
	if !ok {
		c.endOfStream()
		return 0, false
	}
	if m != MarkerTimeStamp {
		c.Skip()
		return 0, false
	}
	if !c.Available(markerSize + 8) {
		c.fail(ErrTruncated)
		return 0, false
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos+markerSize:])
	c.pos += markerSize + 8
	return TimeStamp(v), true
}

func (c *Channel) ReadString() (string, bool) {
	m, ok := c.PeekMarker()
	if !ok {
		c.endOfStream()
		return "", false
	}
	if m != MarkerString {
		c.Skip()
		return "", false
	}
	start := c.pos + markerSize
	end, size, ok := c.stringBounds(start)
	if !ok {
		c.endOfStream()
		return "", false
	}
	c.pos = start + size
	return string(c.buf[start:end]), true
}

func (c *Channel) ReadBlob() ([]byte, bool) {
	m, ok := c.PeekMarker()
	if !ok {
		c.endOfStream()
		return nil, false
	}
	if m != MarkerBlob {
		c.Skip()
		return nil, false
	}
	start := c.pos + markerSize
	n, size, ok := c.blobBounds(start)
	if !ok {
		c.endOfStream()
		return nil, false
	}
	c.pos = start + size
	return c.buf[start+4 : start+4+n], true
}

// Skip consumes the next parameter whatever its type and reports whether
// the stream is still aligned. An unknown marker cannot be sized, so it
// ends the stream.
func (c *Channel) Skip() bool {
	m, ok := c.PeekMarker()
	if !ok {
		c.endOfStream()
		return false
	}
	start := c.pos + markerSize
	var size int
	switch m {
	case MarkerFloat32, MarkerInt32:
		size = 4
	case MarkerTimeStamp:
		size = 8
	case MarkerString:
		_, size, ok = c.stringBounds(start)
	case MarkerBlob:
		_, size, ok = c.blobBounds(start)
	default:
		c.fail(ErrUnknownMarker)
		return false
	}
	if !ok || !c.Available(markerSize+size) {
		c.fail(ErrTruncated)
		return false
	}
	c.pos = start + size
	return true
}

func (c *Channel) scalar() (uint32, bool) {
	if !c.Available(markerSize + 4) {
		c.fail(ErrTruncated)
		return 0, false
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos+markerSize:])
	c.pos += markerSize + 4
	return v, true
}

// stringBounds returns the end of the string text and the padded payload
// size for a string starting at start.
func (c *Channel) stringBounds(start int) (int, int, bool) {
	for i := start; i < len(c.buf); i++ {
		if c.buf[i] == 0 {
			size := padded(i + 1 - start)
			if start+size > len(c.buf) {
				return 0, 0, false
			}
			return i, size, true
		}
	}
	return 0, 0, false
}

func (c *Channel) blobBounds(start int) (int, int, bool) {
	if start+4 > len(c.buf) {
		return 0, 0, false
	}
	n := int(binary.LittleEndian.Uint32(c.buf[start:]))
	size := padded(4 + n)
	if n < 0 || start+size > len(c.buf) {
		return 0, 0, false
	}
	return n, size, true
}

// endOfStream marks a read past the last parameter. A clean end is not an
// error, trailing bytes too short for a marker are.
func (c *Channel) endOfStream() {
	if c.Remaining() > 0 {
		c.fail(ErrTruncated)
	}
}

// fail records err and moves the cursor to the end so that no further
// parameter is decoded from a misaligned position.
func (c *Channel) fail(err error) {
	if c.err == nil {
		c.err = err
	}
	c.pos = len(c.buf)
}

func padded(n int) int {
	return (n + 3) &^ 3
}
