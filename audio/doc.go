// SPDX-License-Identifier: EPL-2.0

// Package audio provides the streaming primitives the sample loader uses
// to turn a file into interleaved float32 data.
//
// A Source yields interleaved samples in [-1,1]. Sources chain:
//
//	src, _ := dec.Decode(f)
//	mono := audio.NewMonoMixer(audio.NewResampler(src, 48000))
//	data, err := audio.ReadAll(mono, 4096)
//
// Decoders are looked up in a Registry either by format key or by file
// extension.
package audio
