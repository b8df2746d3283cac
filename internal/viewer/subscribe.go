package viewer

import (
	"github.com/Faultbox/terraview/internal/loader"
)

// setStatus records st and publishes a snapshot to subscribers.
func (h *Host) setStatus(st loader.Status) {
	h.status = st

	snap := Snapshot{Status: st}
	if h.frame != nil {
		frame := *h.frame
		snap.Frame = &frame
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = snap
	for _, ch := range h.subscribers {
		publish(ch, snap)
	}
}

// publish delivers snap, replacing an undelivered older snapshot so a slow
// subscriber always ends up with the latest state.
func publish(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Snapshot returns the latest published state. Safe for concurrent use.
func (h *Host) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot
}

// Subscribe returns a channel that receives the current state followed by
// every later change, and a function that ends the subscription. Safe for
// concurrent use.
func (h *Host) Subscribe() (<-chan Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSub
	h.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- h.snapshot
	h.subscribers[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(ch)
		}
	}
}

// Close cancels any in-flight load and ends every subscription.
func (h *Host) Close() {
	h.loader.Cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}
