// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"context"
	"fmt"
)

// Handle acknowledges the insertion and removal of one module. The audio
// thread only closes channels on it and never waits.
type Handle struct {
	addedCh   chan struct{}
	removedCh chan struct{}

	// written before addedCh is closed
	id  string
	err error
}

func newHandle() *Handle {
	return &Handle{
		addedCh:   make(chan struct{}),
		removedCh: make(chan struct{}),
	}
}

// ID returns the id assigned at insertion. Valid once WaitAdded returned
// nil.
func (h *Handle) ID() string {
	select {
	case <-h.addedCh:
		return h.id
	default:
		return ""
	}
}

// Added is closed once the module has been compiled or rejected.
func (h *Handle) Added() <-chan struct{} { return h.addedCh }

// Removed is closed once the module left the graph.
func (h *Handle) Removed() <-chan struct{} { return h.removedCh }

// WaitAdded blocks until the module has been spliced in, or returns the
// reason it was rejected.
func (h *Handle) WaitAdded(ctx context.Context) error {
	select {
	case <-h.addedCh:
		return h.err
	case <-ctx.Done():
		return fmt.Errorf("waiting for insertion: %w", ctx.Err())
	}
}

// WaitRemoved blocks until the module has been stopped and erased.
func (h *Handle) WaitRemoved(ctx context.Context) error {
	select {
	case <-h.removedCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for removal: %w", ctx.Err())
	}
}

func (h *Handle) added(id string) {
	h.id = id
	close(h.addedCh)
}

func (h *Handle) reject(err error) {
	h.err = err
	close(h.addedCh)
	close(h.removedCh)
}

func (h *Handle) removed() {
	close(h.removedCh)
}
