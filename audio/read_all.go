// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// maxStalls bounds consecutive empty reads before ReadAll gives up.
const maxStalls = 64

// ReadAll drains src into one interleaved slice. bufferSize is rounded
// down to whole frames; zero or less uses src.BufSize().
func ReadAll(src Source, bufferSize int) ([]float32, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrNoChannels
	}
	if bufferSize <= 0 {
		bufferSize = src.BufSize()
	}
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	bufferSize -= bufferSize % channels
	if bufferSize == 0 {
		bufferSize = channels
	}

	var (
		data   []float32
		stalls int
		buf    = make([]float32, bufferSize)
	)
	for {
		n, err := src.ReadSamples(buf)
		data = append(data, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return data, nil
		}
		if err != nil {
			return data, fmt.Errorf("read samples: %w", err)
		}
		if n > 0 {
			stalls = 0
			continue
		}
		stalls++
		if stalls > maxStalls {
			return data, io.ErrNoProgress
		}
	}
}
