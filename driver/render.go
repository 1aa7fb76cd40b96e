// SPDX-License-Identifier: EPL-2.0

package driver

import (
	"context"
	"fmt"
)

// Writer takes interleaved blocks. *wav.Writer implements it.
type Writer interface {
	Write(samples []float32) error
}

// Render runs cycles offline until frames frames have been written to w or
// ctx is done.
func Render(ctx context.Context, src Source, frames int, w Writer) error {
	block := src.MaxBlock()
	for done := 0; done < frames; {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("render stopped after %d frames: %w", done, err)
		}
		n := min(block, frames-done)
		src.Process(n)
		if err := w.Write(src.Output()); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		done += n
	}
	return nil
}
