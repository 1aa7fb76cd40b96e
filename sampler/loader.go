// SPDX-License-Identifier: EPL-2.0

package sampler

import (
	"sync"
	"sync/atomic"

	"github.com/ik5/audgraph/logger"
)

// OpenFunc reads and decodes one sample. It runs on the loader goroutine.
type OpenFunc func(name string) (*Sample, error)

type slotState int

const (
	slotFree slotState = iota
	slotQueued
	slotLoading
)

type slot struct {
	state   slotState
	name    string
	waiters []*Ticket
}

// Loader reads samples from disk on its own goroutine. A fixed bank of
// slots bounds the number of outstanding files; requests for a file that
// is already queued or loading join that slot instead of reading it again.
type Loader struct {
	mtx     sync.Mutex
	cond    *sync.Cond
	slots   []slot
	running bool
	quit    bool

	open  OpenFunc
	log   *logger.Logger
	wg    sync.WaitGroup
	loads atomic.Uint64
}

// NewLoader creates a Loader with n slots. Call Start to run it.
func NewLoader(n int, open OpenFunc, log *logger.Logger) *Loader {
	if n <= 0 {
		n = 16
	}
	if log == nil {
		log = logger.Nop()
	}
	l := &Loader{
		slots: make([]slot, n),
		open:  open,
		log:   log.Module("loader"),
	}
	l.cond = sync.NewCond(&l.mtx)
	return l
}

// Start launches the loader goroutine.
func (l *Loader) Start() {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if l.running || l.quit {
		return
	}
	l.running = true
	l.wg.Add(1)
	go l.run()
}

// Close stops the loader goroutine and waits for it. Requests still queued
// fail.
func (l *Loader) Close() {
	l.mtx.Lock()
	l.quit = true
	l.cond.Broadcast()
	l.mtx.Unlock()

	l.wg.Wait()

	l.mtx.Lock()
	var orphans []*Ticket
	for i := range l.slots {
		orphans = append(orphans, l.slots[i].waiters...)
		l.slots[i] = slot{}
	}
	l.mtx.Unlock()

	for _, t := range orphans {
		t.resolve(nil, ErrLoaderClosed)
	}
}

// Loads returns how many files have been read so far.
func (l *Loader) Loads() uint64 { return l.loads.Load() }

// Request asks for name to be loaded. It returns false when every slot is
// busy with another file or the loader is closed.
func (l *Loader) Request(name string) (*Ticket, bool) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if l.quit {
		return nil, false
	}

	free := -1
	for i := range l.slots {
		s := &l.slots[i]
		if s.state != slotFree && s.name == name {
			t := newTicket(name)
			s.waiters = append(s.waiters, t)
			return t, true
		}
		if s.state == slotFree && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return nil, false
	}

	t := newTicket(name)
	l.slots[free] = slot{state: slotQueued, name: name, waiters: []*Ticket{t}}
	l.cond.Signal()
	return t, true
}

func (l *Loader) run() {
	defer l.wg.Done()

	for {
		l.mtx.Lock()
		i := l.nextQueued()
		for i < 0 && !l.quit {
			l.cond.Wait()
			i = l.nextQueued()
		}
		if l.quit {
			l.mtx.Unlock()
			return
		}
		l.slots[i].state = slotLoading
		name := l.slots[i].name
		l.mtx.Unlock()

		l.loads.Add(1)
		s, err := l.open(name)
		switch {
		case err != nil:
			l.log.Error().Err(err).Str("name", name).Msg("sample load failed")
		case s == nil:
			err = ErrEmptySample
			l.log.Error().Err(err).Str("name", name).Msg("sample load failed")
		default:
			if s.Name == "" {
				s.Name = name
			}
			l.log.Debug().Str("name", name).Int("frames", s.Frames()).Msg("sample loaded")
		}

		l.mtx.Lock()
		waiters := l.slots[i].waiters
		l.slots[i] = slot{}
		l.mtx.Unlock()

		for _, t := range waiters {
			t.resolve(s, err)
		}
	}
}

func (l *Loader) nextQueued() int {
	for i := range l.slots {
		if l.slots[i].state == slotQueued {
			return i
		}
	}
	return -1
}
