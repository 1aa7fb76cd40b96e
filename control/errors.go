// SPDX-License-Identifier: EPL-2.0

package control

import "errors"

var (
	// ErrTruncated indicates a parameter runs past the end of the stream.
	ErrTruncated = errors.New("control: truncated parameter")

	// ErrUnknownMarker indicates a marker the reader cannot size.
	ErrUnknownMarker = errors.New("control: unknown type marker")

	ErrBadAddress = errors.New("control: address must be <module>/<command>")
)
