// SPDX-License-Identifier: EPL-2.0

// Package audgraph is a real-time audio engine built from a graph of
// modules that run once per hardware callback.
//
// # Graph
//
// Modules are added from any goroutine and picked up at the next cycle
// boundary. Every output of a new module is routed to the output collector
// (output k to hardware channel k modulo the channel count) unless it is
// patched explicitly:
//
//	g := graph.New(graph.DefaultConfig(), log)
//	h := g.Add(osc)
//	g.Add(filter, graph.Connection{Source: "osc", Channel: 0})
//
// Buffers are assigned when a module is compiled and reused once nothing
// downstream reads them any more, so the pool stays as small as the widest
// point of the graph.
//
// # Control messages
//
// Parameters travel as typed, 4-byte aligned payloads addressed
// "<moduleId>/<command>":
//
//	c := control.NewChannel(32)
//	c.WriteString("kick.wav")
//	c.WriteFloat32(0.8)
//	g.Send("sampler/playsample", c)
//
// The audio thread swaps the mailbox at the start of a cycle and never
// waits for it.
//
// # Samples
//
// The sampler package plays decoded files on a bank of voices. Files are
// read by a background loader that serves concurrent requests for the same
// name with a single read. WAV, AIFF, MP3 and Ogg Vorbis are decoded by
// the formats subpackages.
//
// # Output
//
// The driver package plays the collector output through oto or renders it
// to a WAV file. Engine ties the pieces together for the audgraph command.
package audgraph
