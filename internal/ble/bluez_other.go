//go:build !linux

package ble

// NewBlueZStack returns a stack whose adapter fails to enable, so the
// handler receives a failed EnabledEvent. BlueZ is only available on Linux.
func NewBlueZStack(opts PeripheralOptions) *Peripheral {
	return NewPeripheral(unsupportedAdapter{}, opts)
}

type unsupportedAdapter struct{}

func (unsupportedAdapter) Enable() error { return ErrUnsupported }

func (unsupportedAdapter) Address() (Address, error) { return Address{}, ErrUnsupported }

func (unsupportedAdapter) SetConnectHandler(func(Address, bool)) {}

func (unsupportedAdapter) AddService(Service, func(Characteristic, int, []byte)) error {
	return ErrUnsupported
}

func (unsupportedAdapter) ConfigureAdvertising(Advertisement) error { return ErrUnsupported }

func (unsupportedAdapter) StartAdvertising() error { return ErrUnsupported }

func (unsupportedAdapter) StopAdvertising() error { return ErrUnsupported }

// Compile-time check that unsupportedAdapter implements Adapter.
var _ Adapter = unsupportedAdapter{}
