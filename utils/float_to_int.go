// SPDX-License-Identifier: EPL-2.0

package utils

import "encoding/binary"

// Float32ToInt16 clamps x to [-1,1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return int16(x * 32767.0)
}

// Int16ToFloat32 scales a 16-bit PCM sample to [-1,1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// PCM16LEToFloat32 converts little-endian 16-bit PCM bytes into dst and
// returns the number of samples written. A trailing odd byte is ignored.
func PCM16LEToFloat32(dst []float32, src []byte) int {
	n := min(len(src)/2, len(dst))
	for i := range n {
		dst[i] = Int16ToFloat32(int16(binary.LittleEndian.Uint16(src[2*i:])))
	}
	return n
}
