// SPDX-License-Identifier: EPL-2.0

package graph

import "sync/atomic"

// Stats are scheduler counters, updated by the audio thread and readable
// from anywhere.
type Stats struct {
	cycles             atomic.Uint64
	skippedInsertions  atomic.Uint64
	skippedMail        atomic.Uint64
	skippedCompletions atomic.Uint64
	compiled           atomic.Uint64
	rejected           atomic.Uint64
	dropped            atomic.Uint64
	poolSize           atomic.Int64
}

type StatsSnapshot struct {
	Cycles             uint64
	SkippedInsertions  uint64
	SkippedMail        uint64
	SkippedCompletions uint64
	Compiled           uint64
	Rejected           uint64
	Dropped            uint64
	PoolSize           int64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Cycles:             s.cycles.Load(),
		SkippedInsertions:  s.skippedInsertions.Load(),
		SkippedMail:        s.skippedMail.Load(),
		SkippedCompletions: s.skippedCompletions.Load(),
		Compiled:           s.compiled.Load(),
		Rejected:           s.rejected.Load(),
		Dropped:            s.dropped.Load(),
		PoolSize:           s.poolSize.Load(),
	}
}
