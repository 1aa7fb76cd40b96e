// SPDX-License-Identifier: EPL-2.0

//go:build headless

package driver

import (
	"time"

	"github.com/ik5/audgraph/logger"
)

// Oto is unavailable in headless builds.
type Oto struct{}

func NewOto(Source, time.Duration, *logger.Logger) (*Oto, error) {
	return nil, ErrNoDevice
}

func (*Oto) Start()       {}
func (*Oto) Err() error   { return nil }
func (*Oto) Close() error { return nil }
