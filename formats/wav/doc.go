// SPDX-License-Identifier: EPL-2.0

// Package wav decodes integer PCM WAV files into an audio.Source and writes
// rendered float32 blocks as 16-bit PCM WAV, both through go-audio/wav.
//
//	src, err := wav.Decoder{}.Decode(f)
//
//	w := wav.NewWriter(out, 48000, 2)
//	defer w.Close()
//	err = w.Write(block)
package wav
