//go:build linux

package ble

import (
	"log/slog"

	"tinygo.org/x/bluetooth"
)

// blueZAdapter wraps tinygo-org/bluetooth on Linux.
type blueZAdapter struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement
	logger  *slog.Logger
}

// NewBlueZStack creates a stack on the default BlueZ adapter. BlueZ owns the
// controller, so the public address cannot be programmed and connection
// parameter updates are not reported.
func NewBlueZStack(opts PeripheralOptions) *Peripheral {
	adapter := bluetooth.DefaultAdapter
	a := &blueZAdapter{
		adapter: adapter,
		adv:     adapter.DefaultAdvertisement(),
		logger:  opts.logger(),
	}
	return NewPeripheral(a, opts)
}

func (a *blueZAdapter) Enable() error {
	return a.adapter.Enable()
}

func (a *blueZAdapter) Address() (Address, error) {
	mac, err := a.adapter.Address()
	if err != nil {
		return Address{}, err
	}
	return ParseAddress(mac.String())
}

func (a *blueZAdapter) SetConnectHandler(fn func(peer Address, connected bool)) {
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		peer, err := ParseAddress(device.Address.String())
		if err != nil {
			a.logger.Warn("[BLE] unparseable peer address", "address", device.Address.String(), "error", err)
		}
		fn(peer, connected)
	})
}

func (a *blueZAdapter) AddService(svc Service, write func(c Characteristic, offset int, value []byte)) error {
	chars := make([]bluetooth.CharacteristicConfig, 0, len(svc.Characteristics))
	for _, c := range svc.Characteristics {
		chars = append(chars, bluetooth.CharacteristicConfig{
			UUID:  bluetooth.New16BitUUID(c.UUID),
			Flags: permissions(c.Flags),
			WriteEvent: func(_ bluetooth.Connection, offset int, value []byte) {
				write(c, offset, value)
			},
		})
	}
	return a.adapter.AddService(&bluetooth.Service{
		UUID:            bluetooth.New16BitUUID(svc.UUID),
		Characteristics: chars,
	})
}

func (a *blueZAdapter) ConfigureAdvertising(adv Advertisement) error {
	uuids := make([]bluetooth.UUID, 0, len(adv.ServiceUUIDs))
	for _, u := range adv.ServiceUUIDs {
		uuids = append(uuids, bluetooth.New16BitUUID(u))
	}
	opts := bluetooth.AdvertisementOptions{
		LocalName:    adv.LocalName,
		ServiceUUIDs: uuids,
	}
	if adv.Interval > 0 {
		opts.Interval = bluetooth.NewDuration(adv.Interval)
	}
	return a.adv.Configure(opts)
}

func (a *blueZAdapter) StartAdvertising() error { return a.adv.Start() }

func (a *blueZAdapter) StopAdvertising() error { return a.adv.Stop() }

func permissions(f CharacteristicFlags) bluetooth.CharacteristicPermissions {
	var p bluetooth.CharacteristicPermissions
	if f&FlagRead != 0 {
		p |= bluetooth.CharacteristicReadPermission
	}
	if f&FlagWrite != 0 {
		p |= bluetooth.CharacteristicWritePermission
	}
	if f&FlagWriteWithoutResponse != 0 {
		p |= bluetooth.CharacteristicWriteWithoutResponsePermission
	}
	if f&FlagNotify != 0 {
		p |= bluetooth.CharacteristicNotifyPermission
	}
	return p
}

// Compile-time check that blueZAdapter implements Adapter.
var _ Adapter = (*blueZAdapter)(nil)
