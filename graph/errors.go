// SPDX-License-Identifier: EPL-2.0

package graph

import "errors"

var (
	ErrPrepareFailed = errors.New("graph: module rejected channel layout")
	ErrClosed        = errors.New("graph: closed")
	ErrCollector     = errors.New("graph: output collector cannot be removed")
	ErrNilModule     = errors.New("graph: nil module")
)
