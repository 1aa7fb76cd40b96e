// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/ik5/audgraph/control"
	"github.com/ik5/audgraph/logger"
)

// Config sizes a Graph.
type Config struct {
	SampleRate  int
	MaxBlock    int
	Channels    int
	CollectorID string
	QueueSize   int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:  48000,
		MaxBlock:    512,
		Channels:    2,
		CollectorID: "out",
		QueueSize:   64,
	}
}

// Graph runs modules in insertion order once per cycle. Items and buffers
// belong to the goroutine calling Process. Other goroutines stage changes
// with Add, Remove and Send; Process picks them up at the next cycle
// boundary without ever waiting for a lock.
type Graph struct {
	cfg Config
	log *logger.Logger

	items         []*Item
	pool          *BufferPool
	silence       []float32
	collector     *OutputCollector
	collectorItem *Item
	serial        int

	pendingMtx sync.Mutex
	pending    []*Item

	doneMtx sync.Mutex
	doneIDs []string

	mailbox *control.Mailbox
	batch   []control.Message

	stats  Stats
	closed atomic.Bool
}

// New creates a Graph with its output collector already compiled.
func New(cfg Config, log *logger.Logger) *Graph {
	def := DefaultConfig()
	if cfg.MaxBlock <= 0 {
		cfg.MaxBlock = def.MaxBlock
	}
	if cfg.Channels <= 0 {
		cfg.Channels = def.Channels
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.CollectorID == "" {
		cfg.CollectorID = def.CollectorID
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.Module("graph")

	g := &Graph{
		cfg:     cfg,
		log:     log,
		pool:    NewBufferPool(cfg.MaxBlock),
		silence: make([]float32, cfg.MaxBlock),
		mailbox: control.NewMailbox(cfg.QueueSize),
		batch:   make([]control.Message, 0, cfg.QueueSize),
	}
	g.collector = NewOutputCollector(cfg.CollectorID, cfg.Channels, cfg.MaxBlock, log.Module("collector"))
	g.collectorItem = newItem(g.collector, nil)
	g.items = []*Item{g.collectorItem}
	g.recompileCollector()
	g.stats.poolSize.Store(int64(g.pool.Len()))
	return g
}

func (g *Graph) SampleRate() int { return g.cfg.SampleRate }
func (g *Graph) MaxBlock() int   { return g.cfg.MaxBlock }
func (g *Graph) Channels() int   { return g.cfg.Channels }

// Collector returns the output collector module.
func (g *Graph) Collector() *OutputCollector { return g.collector }

// Output returns the interleaved block produced by the last cycle. Only
// valid on the goroutine calling Process.
func (g *Graph) Output() []float32 { return g.collector.Output() }

// Stats exposes the scheduler counters.
func (g *Graph) Stats() *Stats { return &g.stats }

// Add stages m for insertion at the next cycle. inputs name the module
// outputs feeding m, in input-channel order; they may refer to modules
// that are not in the graph yet.
func (g *Graph) Add(m Module, inputs ...Connection) *Handle {
	h := newHandle()
	if m == nil {
		h.reject(ErrNilModule)
		return h
	}
	it := newItem(m, inputs)
	it.handle = h

	g.pendingMtx.Lock()
	defer g.pendingMtx.Unlock()

	if g.closed.Load() {
		h.reject(ErrClosed)
		return h
	}
	g.pending = append(g.pending, it)
	return h
}

// Remove marks the module id for removal at the next cycle boundary.
func (g *Graph) Remove(id string) error {
	if id == g.cfg.CollectorID {
		return ErrCollector
	}
	if g.closed.Load() {
		return ErrClosed
	}
	g.doneMtx.Lock()
	defer g.doneMtx.Unlock()

	g.doneIDs = append(g.doneIDs, id)
	return nil
}

// Send posts a control message addressed "<moduleId>/<command>". payload
// is owned by the graph afterwards.
func (g *Graph) Send(address string, payload *control.Channel) error {
	if _, _, ok := control.SplitAddress(address); !ok {
		return fmt.Errorf("%q: %w", address, control.ErrBadAddress)
	}
	if g.closed.Load() {
		return ErrClosed
	}
	if payload == nil {
		payload = control.NewChannel(0)
	}
	g.mailbox.Post(control.Message{Address: address, Payload: payload})
	return nil
}

// Process runs one cycle of frames samples. It is the audio callback.
func (g *Graph) Process(frames int) {
	if frames > g.cfg.MaxBlock {
		g.log.Error().Int("frames", frames).Int("max", g.cfg.MaxBlock).Msg("block too large, clamped")
		frames = g.cfg.MaxBlock
	}
	if frames < 0 {
		frames = 0
	}
	g.stats.cycles.Add(1)

	g.drainInsertions()
	g.drainMailbox()

	for _, it := range g.items {
		it.process(frames)
		if f, ok := it.module.(Finisher); ok && f.Finished() {
			it.done = true
		}
	}

	g.drainCompletions()
	g.stats.poolSize.Store(int64(g.pool.Len()))
}

// Shutdown stops every module still in the graph and rejects pending
// insertions. Later Add, Remove and Send calls fail with ErrClosed. Call it
// only once the audio callback no longer runs.
func (g *Graph) Shutdown() {
	g.pendingMtx.Lock()
	g.closed.Store(true)
	pending := g.pending
	g.pending = nil
	g.pendingMtx.Unlock()

	for _, it := range pending {
		it.handle.reject(ErrClosed)
	}

	for i := len(g.items) - 1; i >= 0; i-- {
		it := g.items[i]
		if it == g.collectorItem {
			continue
		}
		it.module.Stop()
		it.handle.removed()
	}
	g.items = []*Item{g.collectorItem}
}

func (g *Graph) drainInsertions() {
	if !g.pendingMtx.TryLock() {
		g.stats.skippedInsertions.Add(1)
		return
	}
	pending := g.pending
	g.pending = nil
	g.pendingMtx.Unlock()

	for _, it := range pending {
		g.splice(it)
	}
}

// splice inserts it right before the collector and compiles it.
func (g *Graph) splice(it *Item) {
	it.module.SetID(g.uniqueID(it.module.ID()))

	pos := len(g.items) - 1
	g.items = append(g.items, nil)
	copy(g.items[pos+1:], g.items[pos:])
	g.items[pos] = it

	if err := g.compile(pos); err != nil {
		g.items = append(g.items[:pos], g.items[pos+1:]...)
		g.stats.rejected.Add(1)
		g.log.Error().Err(err).Str("id", it.ID()).Msg("module rejected")
		it.handle.reject(err)
		return
	}
	g.stats.compiled.Add(1)
	g.resolveDependents(it)
	g.log.Debug().
		Str("id", it.ID()).
		Int("ins", len(it.ins)).
		Int("outs", len(it.outs)).
		Int("pool", g.pool.Len()).
		Msg("module compiled")
	it.handle.added(it.ID())
}

// resolveDependents rewires items that named it before it existed.
func (g *Graph) resolveDependents(it *Item) {
	id := it.ID()
	for _, other := range g.items {
		if other == it || other == g.collectorItem || !other.compiled {
			continue
		}
		for _, c := range other.conns {
			if c.Source == id {
				g.resolveInputs(other)
				g.bind(other)
				break
			}
		}
	}
}

// uniqueID keeps id when it is usable, otherwise derives a fresh one.
func (g *Graph) uniqueID(id string) string {
	id = truncateID(strings.ReplaceAll(id, "/", "_"), MaxIDLength)
	if id != "" && g.lookup(id) == nil {
		return id
	}
	base := id
	if base == "" {
		base = "m"
	}
	for {
		g.serial++
		suffix := fmt.Sprintf("#%d", g.serial)
		cand := truncateID(base, MaxIDLength-len(suffix)) + suffix
		if g.lookup(cand) == nil {
			return cand
		}
	}
}

// truncateID cuts id to at most n bytes without splitting a rune.
func truncateID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	for n > 0 && !utf8.RuneStart(id[n]) {
		n--
	}
	return id[:n]
}

func (g *Graph) drainMailbox() {
	batch, ok := g.mailbox.TrySwap(g.batch)
	if !ok {
		g.stats.skippedMail.Add(1)
		return
	}

	for i, msg := range batch {
		g.dispatch(msg)
		batch[i] = control.Message{}
	}
	g.batch = batch[:0]

	if g.collector.dirty {
		g.recompileCollector()
	}
}

func (g *Graph) dispatch(msg control.Message) {
	id, command, ok := control.SplitAddress(msg.Address)
	if !ok {
		g.stats.dropped.Add(1)
		g.log.Warn().Str("address", msg.Address).Msg("malformed address")
		return
	}
	it := g.lookup(id)
	if it == nil {
		g.stats.dropped.Add(1)
		g.log.Warn().Str("address", msg.Address).Msg("no module for message")
		return
	}
	it.module.Control(command, msg.Payload)
	if err := msg.Payload.Err(); err != nil {
		g.log.Warn().Err(err).Str("address", msg.Address).Msg("control payload")
	}
}

func (g *Graph) drainCompletions() {
	if g.doneMtx.TryLock() {
		ids := g.doneIDs
		g.doneIDs = g.doneIDs[:0]
		for _, id := range ids {
			if it := g.lookup(id); it != nil && it != g.collectorItem {
				it.done = true
			} else {
				g.log.Warn().Str("id", id).Msg("remove: no such module")
			}
		}
		g.doneMtx.Unlock()
	} else {
		g.stats.skippedCompletions.Add(1)
	}

	removed := false
	for i := 0; i < len(g.items); {
		it := g.items[i]
		if !it.done || it == g.collectorItem {
			i++
			continue
		}
		g.uncompile(it)
		g.items = append(g.items[:i], g.items[i+1:]...)
		it.module.Stop()
		g.log.Debug().Str("id", it.ID()).Msg("module removed")
		it.handle.removed()
		removed = true
	}
	if removed {
		g.resolveAll()
	}
}
