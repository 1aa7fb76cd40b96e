// SPDX-License-Identifier: EPL-2.0

package config

import "errors"

var ErrInvalid = errors.New("invalid configuration value")
