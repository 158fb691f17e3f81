// Package ble defines the narrow surface between the Find Me Target
// application and the Bluetooth LE host stack: the events the stack delivers,
// the control operations the application invokes, and a BlueZ implementation
// of that surface built on tinygo.org/x/bluetooth.
package ble

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Address is a 48-bit Bluetooth device address, most significant byte first.
type Address [6]byte

// ParseAddress parses an address in the AA:BB:CC:DD:EE:FF form.
func ParseAddress(s string) (Address, error) {
	var a Address
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != len(a) {
		return Address{}, fmt.Errorf("ble: invalid address %q", s)
	}
	for i, p := range parts {
		var b byte
		if _, err := fmt.Sscanf(p, "%02X", &b); err != nil || len(p) != 2 {
			return Address{}, fmt.Errorf("ble: invalid address %q", s)
		}
		a[i] = b
	}
	return a, nil
}

// String formats the address as AA:BB:CC:DD:EE:FF.
func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == Address{} }

// Advertisement is the static advertising payload. Encoding it into AD
// structures is left to the stack.
type Advertisement struct {
	LocalName    string
	ServiceUUIDs []uint16
	Interval     time.Duration
}

// CharacteristicFlags are the GATT properties of a characteristic.
type CharacteristicFlags uint8

const (
	FlagRead CharacteristicFlags = 1 << iota
	FlagWrite
	FlagWriteWithoutResponse
	FlagNotify
)

// Characteristic describes one attribute in the GATT database. OnWrite is
// called with the raw value of every accepted client write.
type Characteristic struct {
	UUID    uint16
	Flags   CharacteristicFlags
	OnWrite func(value []byte)
}

// Service is a primary service in the GATT database.
type Service struct {
	UUID            uint16
	Characteristics []Characteristic
}

// Database is the complete set of services installed on the stack.
type Database []Service

// ManagementHandler receives stack management events. Calls are serialized.
type ManagementHandler interface {
	HandleManagementEvent(ev ManagementEvent) Result
}

// ConnectionHandler receives connection status changes. It is registered
// with the stack as the GATT callback. Calls are serialized.
type ConnectionHandler interface {
	HandleConnectionStatus(status *ConnectionStatus) GATTStatus
}

// Stack is the set of control operations the application invokes on the
// host stack.
type Stack interface {
	// SetLocalAddress programs the public device address.
	SetLocalAddress(addr Address) error
	// LocalAddress reads back the address the controller is using.
	LocalAddress() (Address, error)
	// SetPairableMode allows or refuses bonding requests.
	SetPairableMode(allow bool) error
	// SetAdvertisingData installs the static advertising payload.
	SetAdvertisingData(adv Advertisement) error
	// RegisterGATTHandler registers the callback for connection status events.
	RegisterGATTHandler(h ConnectionHandler) error
	// InstallGATTDatabase publishes the GATT database.
	InstallGATTDatabase(db Database) error
	// StartAdvertising begins undirected advertising with no target address.
	// The resulting state change is reported later as an
	// AdvertStateChangedEvent, never from inside this call.
	StartAdvertising(mode AdvertMode) error
}

// ErrUnsupported is returned by stack operations the platform cannot perform.
var ErrUnsupported = errors.New("ble: operation not supported on this platform")
