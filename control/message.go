// SPDX-License-Identifier: EPL-2.0

package control

import (
	"strings"
	"sync"
)

// Message is one addressed control payload.
type Message struct {
	Address string
	Payload *Channel
}

// SplitAddress splits "<moduleId>/<command>" on the first slash.
func SplitAddress(address string) (id, command string, ok bool) {
	id, command, ok = strings.Cut(address, "/")
	if !ok || id == "" || command == "" {
		return "", "", false
	}
	return id, command, true
}

// Mailbox stages messages from any goroutine for the audio thread.
type Mailbox struct {
	mtx   sync.Mutex
	queue []Message
}

func NewMailbox(size int) *Mailbox {
	return &Mailbox{queue: make([]Message, 0, size)}
}

// Post queues msg. It may block briefly on the audio thread's swap.
func (m *Mailbox) Post(msg Message) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.queue = append(m.queue, msg)
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return len(m.queue)
}

// TrySwap exchanges the queued messages with private, which must be empty,
// and returns the queued batch. When the lock is held elsewhere it returns
// private untouched and false without waiting.
func (m *Mailbox) TrySwap(private []Message) ([]Message, bool) {
	if !m.mtx.TryLock() {
		return private, false
	}
	defer m.mtx.Unlock()

	batch := m.queue
	m.queue = private[:0]
	return batch, true
}
