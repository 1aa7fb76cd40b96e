// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III files through hajimehoshi/go-mp3.
// The decoder always yields 16-bit stereo, which this package converts to
// float32.
package mp3
