package ble

// Adapter abstracts the controller the Peripheral drives, for testing.
type Adapter interface {
	// Enable powers on the controller.
	Enable() error
	// Address returns the controller's public address.
	Address() (Address, error)
	// SetConnectHandler registers fn for every connect and disconnect.
	SetConnectHandler(fn func(peer Address, connected bool))
	// AddService adds svc to the GATT database. write is called for every
	// client write to one of its characteristics.
	AddService(svc Service, write func(c Characteristic, offset int, value []byte)) error
	// ConfigureAdvertising sets the advertising payload.
	ConfigureAdvertising(adv Advertisement) error
	// StartAdvertising and StopAdvertising switch the advertiser on and off.
	StartAdvertising() error
	StopAdvertising() error
}
