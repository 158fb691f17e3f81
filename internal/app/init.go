package app

import (
	"errors"
	"fmt"

	"github.com/chaz8081/findme-target/internal/ble"
	"github.com/chaz8081/findme-target/internal/ias"
)

// Initialization steps, in order. They name the step a FatalError failed in.
const (
	StepRadioEnable    = "radio enable"
	StepSetAddress     = "set local address"
	StepStatusChannel  = "status indicator init"
	StepAlertChannel   = "alert indicator init"
	StepPairableMode   = "set pairable mode"
	StepAdvertisingSet = "set advertising data"
	StepGATTRegister   = "register GATT callback"
	StepGATTDatabase   = "install GATT database"
	StepAdvertiseStart = "start advertising"
)

// ErrRadioEnable is wrapped by the FatalError reported when the stack fails
// to come up.
var ErrRadioEnable = errors.New("app: bluetooth stack failed to start")

// FatalError is an initialization failure the device cannot recover from
// without a restart.
type FatalError struct {
	Step string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("app: fatal: %s: %v", e.Step, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// handleEnabled runs once the stack is up. Caller holds mu.
func (d *Dispatcher) handleEnabled(ev ble.EnabledEvent) ble.Result {
	if ev.Status != ble.ResultSuccess {
		d.logger.Error("[BLE] failed to start bluetooth", "status", ev.Status)
		d.halt(&FatalError{Step: StepRadioEnable, Err: ErrRadioEnable})
		return ev.Status
	}
	if d.initialized {
		d.logger.Warn("[BLE] stack re-enabled, skipping application init")
		return ble.ResultSuccess
	}

	if !d.address.IsZero() {
		if err := d.stack.SetLocalAddress(d.address); err != nil {
			d.logger.Error("[BLE] failed to set local bluetooth address", "error", err)
			d.halt(&FatalError{Step: StepSetAddress, Err: err})
			return ble.ResultFatal
		}
	}
	if addr, err := d.stack.LocalAddress(); err != nil {
		d.logger.Warn("[BLE] could not read local address", "error", err)
	} else {
		d.logger.Info("[BLE] local bluetooth address", "address", addr.String())
	}

	if err := d.initApp(); err != nil {
		var fe *FatalError
		if !errors.As(err, &fe) {
			fe = &FatalError{Step: "init", Err: err}
		}
		d.logger.Error("[BLE] application init failed", "step", fe.Step, "error", fe.Err)
		d.halt(fe)
		return ble.ResultFatal
	}
	d.initialized = true
	return ble.ResultSuccess
}

// initApp is the one-time application setup: indicators, GATT and the first
// advertising cycle. Caller holds mu.
func (d *Dispatcher) initApp() error {
	d.logger.Info("[BLE] discover this device with the name", "name", d.adv.LocalName)

	if err := d.alert.Init(); err != nil {
		return &FatalError{Step: StepAlertChannel, Err: err}
	}
	if err := d.status.Init(); err != nil {
		return &FatalError{Step: StepStatusChannel, Err: err}
	}

	if err := d.stack.SetPairableMode(false); err != nil {
		return &FatalError{Step: StepPairableMode, Err: err}
	}
	if err := d.stack.SetAdvertisingData(d.adv); err != nil {
		return &FatalError{Step: StepAdvertisingSet, Err: err}
	}

	if err := d.stack.RegisterGATTHandler(d); err != nil {
		return &FatalError{Step: StepGATTRegister, Err: err}
	}
	d.logger.Info("[BLE] GATT event handler registered")

	db := ble.Database{ias.Service(d.alerts, d.AlertLevelWritten, d.logger)}
	if err := d.stack.InstallGATTDatabase(db); err != nil {
		return &FatalError{Step: StepGATTDatabase, Err: err}
	}
	d.logger.Info("[BLE] GATT database initialized", "services", len(db))

	if err := d.stack.StartAdvertising(ble.AdvertUndirectedHigh); err != nil {
		return &FatalError{Step: StepAdvertiseStart, Err: err}
	}
	return nil
}

// halt reports the first fatal error and stops handling further
// initialization. Caller holds mu.
func (d *Dispatcher) halt(err error) {
	if d.halted {
		return
	}
	d.halted = true
	if d.onFatal != nil {
		d.onFatal(err)
	}
}
