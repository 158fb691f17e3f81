package app

import (
	"time"

	"github.com/chaz8081/findme-target/internal/ble"
	"github.com/chaz8081/findme-target/internal/ias"
	"github.com/chaz8081/findme-target/internal/indicator"
	"github.com/chaz8081/findme-target/internal/state"
)

// Snapshot is the application state after an event has been handled.
type Snapshot struct {
	State      state.AdvConn
	ConnID     ble.ConnectionID
	AlertLevel ias.AlertLevel
	StatusDuty indicator.DutyCycle
	AlertDuty  indicator.DutyCycle
	Time       time.Time
}

// Observer is told about every snapshot. Observe runs with the dispatcher
// locked, so it must return quickly and must not call back into it.
type Observer interface {
	Observe(s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) Observe(s Snapshot) { f(s) }
