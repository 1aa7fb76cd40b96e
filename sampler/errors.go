// SPDX-License-Identifier: EPL-2.0

package sampler

import "errors"

var (
	ErrLoaderClosed      = errors.New("sampler: loader closed")
	ErrUnsupportedFormat = errors.New("sampler: no decoder for file extension")
	ErrEmptySample       = errors.New("sampler: sample has no frames")
)
