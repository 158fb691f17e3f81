package ble

import (
	"fmt"
	"sync"
	"time"
)

// mockAdapter records what the Peripheral asks of the controller.
type mockAdapter struct {
	mu        sync.Mutex
	address   Address
	enableErr error
	startErr  error
	addErr    error
	onConnect func(peer Address, connected bool)
	services  []Service
	write     func(c Characteristic, offset int, value []byte)
	adv       Advertisement
	starts    int
	stops     int
}

func newMockAdapter() *mockAdapter {
	return &mockAdapter{address: Address{0xDC, 0xA6, 0x32, 0x00, 0x00, 0x01}}
}

func (a *mockAdapter) Enable() error { return a.enableErr }

func (a *mockAdapter) Address() (Address, error) { return a.address, nil }

func (a *mockAdapter) SetConnectHandler(fn func(peer Address, connected bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onConnect = fn
}

func (a *mockAdapter) AddService(svc Service, write func(c Characteristic, offset int, value []byte)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.addErr != nil {
		return a.addErr
	}
	a.services = append(a.services, svc)
	a.write = write
	return nil
}

func (a *mockAdapter) ConfigureAdvertising(adv Advertisement) error {
	a.adv = adv
	return nil
}

func (a *mockAdapter) StartAdvertising() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.startErr != nil {
		return a.startErr
	}
	a.starts++
	return nil
}

func (a *mockAdapter) StopAdvertising() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
	return nil
}

// SimulateConnect invokes the registered connect handler.
func (a *mockAdapter) SimulateConnect(peer Address, connected bool) {
	a.mu.Lock()
	fn := a.onConnect
	a.mu.Unlock()
	if fn != nil {
		fn(peer, connected)
	}
}

// fakeTimer is armed by fakeClock and fired by the test.
type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(d time.Duration, fn func()) timer {
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// recorder implements ManagementHandler and ConnectionHandler and logs
// every event it receives as a string.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) HandleManagementEvent(ev ManagementEvent) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev := ev.(type) {
	case EnabledEvent:
		r.events = append(r.events, "enabled "+ev.Status.String())
	case AdvertStateChangedEvent:
		r.events = append(r.events, "advert "+ev.Mode.String())
	default:
		r.events = append(r.events, "event "+ev.Code().String())
	}
	return ResultSuccess
}

func (r *recorder) HandleConnectionStatus(st *ConnectionStatus) GATTStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st.Connected {
		r.events = append(r.events, fmt.Sprintf("connected %s id=%d", st.PeerAddr, st.ConnID))
	} else {
		r.events = append(r.events, fmt.Sprintf("disconnected %s id=%d %s", st.PeerAddr, st.ConnID, st.Reason))
	}
	return GATTSuccess
}

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := r.events
	r.events = nil
	return ev
}

// Compile-time check that mockAdapter implements Adapter.
var _ Adapter = (*mockAdapter)(nil)
