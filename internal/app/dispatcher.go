// Package app is the Find Me Target application: it turns stack events into
// advertising/connection state and keeps the indicators in step with it.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/findme-target/internal/ble"
	"github.com/chaz8081/findme-target/internal/ias"
	"github.com/chaz8081/findme-target/internal/indicator"
	"github.com/chaz8081/findme-target/internal/state"
)

// Options configures a Dispatcher.
type Options struct {
	Stack ble.Stack
	// Status and Alert may be nil on boards without the LED.
	Status *indicator.Status
	Alert  *indicator.Alert
	// Tracker and Alerts must be the ones the indicators read.
	Tracker *state.Tracker
	Alerts  *ias.Store
	// Address is programmed as the public address when set.
	Address       ble.Address
	Advertisement ble.Advertisement
	// OnFatal is called once with the first fatal error.
	OnFatal  func(error)
	Observer Observer
	Logger   *slog.Logger
}

// Dispatcher handles management and connection events. It implements
// ble.ManagementHandler and ble.ConnectionHandler.
type Dispatcher struct {
	stack    ble.Stack
	status   *indicator.Status
	alert    *indicator.Alert
	tracker  *state.Tracker
	alerts   *ias.Store
	address  ble.Address
	adv      ble.Advertisement
	onFatal  func(error)
	observer Observer
	logger   *slog.Logger

	// mu serializes event handling and indicator refreshes.
	mu          sync.Mutex
	initialized bool
	halted      bool
	statusDuty  indicator.DutyCycle
	alertDuty   indicator.DutyCycle
}

// NewDispatcher creates a dispatcher. Tracker and Alerts are created when
// nil, in which case the indicators must not read other instances.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Stack == nil {
		return nil, errors.New("app: nil stack")
	}
	if opts.Tracker == nil {
		opts.Tracker = state.NewTracker()
	}
	if opts.Alerts == nil {
		opts.Alerts = &ias.Store{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		stack:    opts.Stack,
		status:   opts.Status,
		alert:    opts.Alert,
		tracker:  opts.Tracker,
		alerts:   opts.Alerts,
		address:  opts.Address,
		adv:      opts.Advertisement,
		onFatal:  opts.OnFatal,
		observer: opts.Observer,
		logger:   opts.Logger,
	}, nil
}

// State returns the current advertising/connection state.
func (d *Dispatcher) State() state.AdvConn { return d.tracker.AdvConn() }

// ConnectionID returns the active connection id, or 0.
func (d *Dispatcher) ConnectionID() ble.ConnectionID { return d.tracker.ConnectionID() }

// HandleManagementEvent implements ble.ManagementHandler.
func (d *Dispatcher) HandleManagementEvent(ev ble.ManagementEvent) ble.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev := ev.(type) {
	case ble.EnabledEvent:
		return d.handleEnabled(ev)

	case ble.AdvertStateChangedEvent:
		d.logger.Info("[BLE] advertisement state change", "mode", ev.Mode)
		if ev.Mode == ble.AdvertOff {
			d.logger.Info("[BLE] advertisement stopped")
			d.tracker.AdvertisingStopped()
		} else {
			d.logger.Info("[BLE] advertisement started")
			d.tracker.AdvertisingStarted()
		}
		d.refreshStatus()
		d.notify()
		return ble.ResultSuccess

	case ble.ConnectionParamUpdateEvent:
		d.logger.Info("[BLE] connection parameter update",
			"status", ev.Status,
			"interval", ev.Interval,
			"latency", ev.Latency,
			"supervision_timeout", ev.SupervisionTimeout,
		)
		return ble.ResultSuccess

	default:
		if ev == nil {
			d.logger.Warn("[BLE] nil management event")
			return ble.ResultError
		}
		d.logger.Warn("[BLE] unhandled management event",
			"code", fmt.Sprintf("0x%02X", uint8(ev.Code())),
			"name", ev.Code().String(),
		)
		return ble.ResultError
	}
}

// HandleConnectionStatus implements ble.ConnectionHandler.
func (d *Dispatcher) HandleConnectionStatus(st *ble.ConnectionStatus) ble.GATTStatus {
	if st == nil {
		d.logger.Warn("[BLE] connection status without payload")
		return ble.GATTError
	}

	if st.Connected && st.ConnID == 0 {
		// Id 0 means "no connection" to the tracker.
		d.logger.Warn("[BLE] connect without connection id", "peer", st.PeerAddr.String())
		return ble.GATTError
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if st.Connected {
		d.logger.Info("[BLE] connected", "peer", st.PeerAddr.String(), "conn_id", st.ConnID)
		d.tracker.Connected(st.ConnID)
	} else {
		d.logger.Info("[BLE] disconnected",
			"peer", st.PeerAddr.String(),
			"conn_id", st.ConnID,
			"reason", st.Reason.String(),
		)
		d.tracker.Disconnected()

		// Become discoverable again straight away.
		if err := d.stack.StartAdvertising(ble.AdvertUndirectedHigh); err != nil {
			d.logger.Error("[BLE] failed to restart advertisement", "error", err)
		}
		d.refreshAlert()
	}
	d.refreshStatus()
	d.notify()
	return ble.GATTSuccess
}

// AlertLevelWritten refreshes the alert indicator after a client wrote a new
// level. It is the OnWrite hook for the Immediate Alert service.
func (d *Dispatcher) AlertLevelWritten(level ias.AlertLevel) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debug("[IAS] refreshing alert indicator", "level", level, "state", d.tracker.AdvConn())
	d.refreshAlert()
	d.notify()
}

// refreshStatus commits the status LED. Failures are logged only. Caller
// holds mu.
func (d *Dispatcher) refreshStatus() {
	duty, err := d.status.Refresh()
	if err != nil {
		d.logger.Warn("[LED] status indicator update failed", "error", err)
	}
	d.statusDuty = duty
}

// refreshAlert commits the alert LED. Failures are logged only. Caller holds
// mu.
func (d *Dispatcher) refreshAlert() {
	duty, err := d.alert.Refresh()
	if err != nil {
		d.logger.Warn("[LED] alert indicator update failed", "error", err)
	}
	d.alertDuty = duty
}

// notify hands a snapshot to the observer. Caller holds mu.
func (d *Dispatcher) notify() {
	if d.observer == nil {
		return
	}
	d.observer.Observe(Snapshot{
		State:      d.tracker.AdvConn(),
		ConnID:     d.tracker.ConnectionID(),
		AlertLevel: d.alerts.Level(),
		StatusDuty: d.statusDuty,
		AlertDuty:  d.alertDuty,
		Time:       time.Now(),
	})
}
