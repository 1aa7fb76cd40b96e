// SPDX-License-Identifier: EPL-2.0

package driver

import "errors"

var ErrNoDevice = errors.New("no audio device")
