// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import "sync"

// deliveryOrder lets sink deliveries run outside the engine lock while still
// reaching sinks in the order the state updates happened. A ticket is taken
// under the engine lock; delivery waits for its turn.
type deliveryOrder struct {
	mu      sync.Mutex
	cond    *sync.Cond
	issued  uint64
	serving uint64
}

func newDeliveryOrder() *deliveryOrder {
	d := &deliveryOrder{}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// ticket reserves the next delivery slot. Callers must hold the engine lock.
func (d *deliveryOrder) ticket() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.issued
	d.issued++
	return n
}

// run waits until every earlier ticket has been delivered, then calls fn.
// The slot is released even if fn panics.
func (d *deliveryOrder) run(n uint64, fn func()) {
	d.mu.Lock()
	for d.serving != n {
		d.cond.Wait()
	}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.serving++
		d.cond.Broadcast()
		d.mu.Unlock()
	}()
	fn()
}
