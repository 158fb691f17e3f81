// Package state holds the advertising/connection state shared between the
// event dispatcher and the indicator drivers.
package state

import (
	"fmt"
	"sync"

	"github.com/chaz8081/findme-target/internal/ble"
)

// AdvConn is the combined advertising/connection state. Advertising and a
// connection never coexist, so three values cover every case.
type AdvConn uint8

const (
	AdvOffConnOff AdvConn = iota
	AdvOnConnOff
	AdvOffConnOn
)

func (s AdvConn) String() string {
	switch s {
	case AdvOffConnOff:
		return "AdvOff_ConnOff"
	case AdvOnConnOff:
		return "AdvOn_ConnOff"
	case AdvOffConnOn:
		return "AdvOff_ConnOn"
	default:
		return fmt.Sprintf("AdvConn(%d)", uint8(s))
	}
}

// Reader is the read-only view handed to indicator drivers.
type Reader interface {
	AdvConn() AdvConn
}

// Tracker owns the current AdvConn value and the active connection id.
// It starts in AdvOffConnOff with no connection. Only the dispatcher calls
// the mutating methods; reads are safe from any goroutine.
type Tracker struct {
	mu      sync.RWMutex
	advConn AdvConn
	connID  ble.ConnectionID
}

// NewTracker returns a tracker in the initial state.
func NewTracker() *Tracker {
	return &Tracker{advConn: AdvOffConnOff}
}

// AdvConn returns the current state.
func (t *Tracker) AdvConn() AdvConn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.advConn
}

// ConnectionID returns the active connection id, or 0 when not connected.
func (t *Tracker) ConnectionID() ble.ConnectionID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connID
}

// AdvertisingStarted moves to AdvOnConnOff regardless of the current state.
func (t *Tracker) AdvertisingStarted() AdvConn {
	return t.set(AdvOnConnOff)
}

// AdvertisingStopped moves to AdvOffConnOn while a connection is recorded,
// AdvOffConnOff otherwise.
func (t *Tracker) AdvertisingStopped() AdvConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connID == 0 {
		t.advConn = AdvOffConnOff
	} else {
		t.advConn = AdvOffConnOn
	}
	return t.advConn
}

// Connected records id and moves to AdvOffConnOn. A second connect simply
// overwrites the id.
func (t *Tracker) Connected(id ble.ConnectionID) AdvConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connID = id
	t.advConn = AdvOffConnOn
	return t.advConn
}

// Disconnected clears the id and moves to AdvOnConnOff; the caller restarts
// advertising.
func (t *Tracker) Disconnected() AdvConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connID = 0
	t.advConn = AdvOnConnOff
	return t.advConn
}

func (t *Tracker) set(s AdvConn) AdvConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advConn = s
	return s
}
