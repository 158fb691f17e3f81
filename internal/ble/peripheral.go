package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PeripheralOptions configures a Peripheral.
type PeripheralOptions struct {
	// AdvertisingTimeout ends an advertising cycle after the given duration
	// and reports advertising off. Zero advertises until a central connects.
	AdvertisingTimeout time.Duration
	Logger             *slog.Logger
}

func (o PeripheralOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

type timer interface {
	Stop() bool
}

// Peripheral implements Stack on top of an Adapter. The adapter cannot
// program the public address or report connection parameter updates.
//
// Adapter callbacks and timers arrive on arbitrary goroutines. They are
// turned into events on a single queue so handlers never run concurrently.
type Peripheral struct {
	adapter Adapter
	opts    PeripheralOptions
	logger  *slog.Logger
	queue   *eventQueue

	afterFunc func(d time.Duration, f func()) timer

	// mu protects the fields below.
	mu          sync.Mutex
	handler     ManagementHandler
	gatt        ConnectionHandler
	configured  bool
	advertising bool
	advTimer    timer
	// advCycle is bumped on every start so stale timers are ignored.
	advCycle uint64
	conns    map[Address]ConnectionID
	lastID   ConnectionID
}

// NewPeripheral creates a stack driving a.
func NewPeripheral(a Adapter, opts PeripheralOptions) *Peripheral {
	return &Peripheral{
		adapter: a,
		opts:    opts,
		logger:  opts.logger(),
		queue:   newEventQueue(),
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		conns: make(map[Address]ConnectionID),
	}
}

// Run enables the controller, reports the outcome to h as an EnabledEvent
// and then delivers events until ctx is cancelled.
func (p *Peripheral) Run(ctx context.Context, h ManagementHandler) error {
	p.enable(h)
	return p.queue.run(ctx)
}

func (p *Peripheral) enable(h ManagementHandler) {
	p.mu.Lock()
	p.handler = h
	p.mu.Unlock()

	status := ResultSuccess
	if err := p.adapter.Enable(); err != nil {
		p.logger.Error("[BLE] enable adapter failed", "error", err)
		status = ResultError
	} else {
		p.adapter.SetConnectHandler(p.onConnect)
	}

	p.queue.push(func() {
		res := h.HandleManagementEvent(EnabledEvent{Status: status})
		p.logger.Debug("[BLE] enabled event handled", "result", res)
	})
}

func (p *Peripheral) SetLocalAddress(addr Address) error {
	cur, err := p.LocalAddress()
	if err != nil {
		return err
	}
	if cur != addr {
		return fmt.Errorf("ble: controller address is %s, cannot program %s: %w", cur, addr, ErrUnsupported)
	}
	return nil
}

func (p *Peripheral) LocalAddress() (Address, error) {
	addr, err := p.adapter.Address()
	if err != nil {
		return Address{}, fmt.Errorf("ble: read local address: %w", err)
	}
	return addr, nil
}

// SetPairableMode only accepts allow=false: no pairing agent is registered,
// so bonding requests from centrals are rejected.
func (p *Peripheral) SetPairableMode(allow bool) error {
	if allow {
		return fmt.Errorf("ble: pairable mode: %w", ErrUnsupported)
	}
	return nil
}

func (p *Peripheral) SetAdvertisingData(adv Advertisement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.configured {
		return fmt.Errorf("ble: advertising data already set")
	}
	if err := p.adapter.ConfigureAdvertising(adv); err != nil {
		return fmt.Errorf("ble: configure advertisement: %w", err)
	}
	p.configured = true
	return nil
}

func (p *Peripheral) RegisterGATTHandler(h ConnectionHandler) error {
	if h == nil {
		return fmt.Errorf("ble: nil GATT handler")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gatt = h
	return nil
}

func (p *Peripheral) InstallGATTDatabase(db Database) error {
	for _, svc := range db {
		if err := p.adapter.AddService(svc, p.write); err != nil {
			return fmt.Errorf("ble: add service 0x%04X: %w", svc.UUID, err)
		}
	}
	return nil
}

// write moves a client write onto the event queue.
func (p *Peripheral) write(c Characteristic, offset int, value []byte) {
	if c.OnWrite == nil {
		return
	}
	if offset != 0 {
		p.logger.Warn("[BLE] ignoring offset write", "uuid", fmt.Sprintf("0x%04X", c.UUID), "offset", offset)
		return
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	p.queue.push(func() { c.OnWrite(cp) })
}

func (p *Peripheral) StartAdvertising(mode AdvertMode) error {
	if mode == AdvertOff {
		return fmt.Errorf("ble: start advertising: mode %s", mode)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.configured {
		return fmt.Errorf("ble: start advertising: advertising data not set")
	}
	if !p.advertising {
		if err := p.adapter.StartAdvertising(); err != nil {
			return fmt.Errorf("ble: start advertising: %w", err)
		}
		p.advertising = true
	}
	if p.advTimer != nil {
		p.advTimer.Stop()
		p.advTimer = nil
	}
	p.advCycle++
	if p.opts.AdvertisingTimeout > 0 {
		cycle := p.advCycle
		p.advTimer = p.afterFunc(p.opts.AdvertisingTimeout, func() { p.advertisingTimedOut(cycle) })
	}

	p.pushAdvertState(mode)
	return nil
}

// advertisingTimedOut ends the advertising cycle it was armed for.
func (p *Peripheral) advertisingTimedOut(cycle uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.advertising || cycle != p.advCycle {
		return
	}
	p.stopAdvertisingLocked()
	p.logger.Info("[BLE] advertising timed out", "timeout", p.opts.AdvertisingTimeout)
}

// stopAdvertisingLocked stops advertising and reports it. Caller holds mu.
func (p *Peripheral) stopAdvertisingLocked() {
	if p.advTimer != nil {
		p.advTimer.Stop()
		p.advTimer = nil
	}
	if err := p.adapter.StopAdvertising(); err != nil {
		p.logger.Warn("[BLE] stop advertising failed", "error", err)
	}
	p.advertising = false
	p.pushAdvertState(AdvertOff)
}

// pushAdvertState queues an AdvertStateChangedEvent. Caller holds mu.
func (p *Peripheral) pushAdvertState(mode AdvertMode) {
	h := p.handler
	if h == nil {
		return
	}
	p.queue.push(func() {
		h.HandleManagementEvent(AdvertStateChangedEvent{Mode: mode})
	})
}

// onConnect is the adapter's connect handler. The adapter does not expose
// link handles, so ids are allocated here per peer and are never 0.
func (p *Peripheral) onConnect(peer Address, connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := &ConnectionStatus{Connected: connected, PeerAddr: peer}
	if connected {
		p.lastID++
		if p.lastID == 0 {
			p.lastID = 1
		}
		p.conns[peer] = p.lastID
		status.ConnID = p.lastID
	} else {
		id, ok := p.conns[peer]
		if !ok {
			p.logger.Debug("[BLE] disconnect from unknown peer", "peer", peer.String())
			return
		}
		delete(p.conns, peer)
		status.ConnID = id
		status.Reason = ReasonUnknown
	}

	if gatt := p.gatt; gatt != nil {
		p.queue.push(func() { gatt.HandleConnectionStatus(status) })
	}
	// A connection ends the advertising cycle. The stop is queued after the
	// connection status so the handler already knows about the link.
	if connected && p.advertising {
		p.stopAdvertisingLocked()
	}
}

// Compile-time check that Peripheral implements Stack.
var _ Stack = (*Peripheral)(nil)
