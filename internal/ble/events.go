package ble

import "fmt"

// Result is the status the application returns for a management event.
type Result uint8

const (
	ResultSuccess Result = iota
	ResultError
	// ResultFatal marks a failure the device cannot recover from without a
	// restart.
	ResultFatal
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultError:
		return "ERROR"
	case ResultFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("RESULT(%d)", uint8(r))
	}
}

// GATTStatus is the status the application returns for a GATT callback.
type GATTStatus uint8

const (
	GATTSuccess GATTStatus = 0x00
	GATTError   GATTStatus = 0x85
)

func (s GATTStatus) String() string {
	switch s {
	case GATTSuccess:
		return "GATT_SUCCESS"
	case GATTError:
		return "GATT_ERROR"
	default:
		return fmt.Sprintf("GATT_STATUS(0x%02X)", uint8(s))
	}
}

// EventCode identifies a management event.
type EventCode uint8

const (
	EventEnabled EventCode = iota
	EventDisabled
	EventPowerManagementStatus
	EventPairingIOCapabilitiesRequest
	EventPairingComplete
	EventEncryptionStatus
	EventSecurityRequest
	EventLocalIdentityKeysRequest
	EventLocalIdentityKeysUpdate
	EventPairedDeviceLinkKeysRequest
	EventPairedDeviceLinkKeysUpdate
	EventAdvertStateChanged
	EventScanStateChanged
	EventConnectionParamUpdate
	EventPhyUpdate
	EventDataLengthUpdate
)

var eventNames = [...]string{
	EventEnabled:                      "BTM_ENABLED_EVT",
	EventDisabled:                     "BTM_DISABLED_EVT",
	EventPowerManagementStatus:        "BTM_POWER_MANAGEMENT_STATUS_EVT",
	EventPairingIOCapabilitiesRequest: "BTM_PAIRING_IO_CAPABILITIES_BLE_REQUEST_EVT",
	EventPairingComplete:              "BTM_PAIRING_COMPLETE_EVT",
	EventEncryptionStatus:             "BTM_ENCRYPTION_STATUS_EVT",
	EventSecurityRequest:              "BTM_SECURITY_REQUEST_EVT",
	EventLocalIdentityKeysRequest:     "BTM_LOCAL_IDENTITY_KEYS_REQUEST_EVT",
	EventLocalIdentityKeysUpdate:      "BTM_LOCAL_IDENTITY_KEYS_UPDATE_EVT",
	EventPairedDeviceLinkKeysRequest:  "BTM_PAIRED_DEVICE_LINK_KEYS_REQUEST_EVT",
	EventPairedDeviceLinkKeysUpdate:   "BTM_PAIRED_DEVICE_LINK_KEYS_UPDATE_EVT",
	EventAdvertStateChanged:           "BTM_BLE_ADVERT_STATE_CHANGED_EVT",
	EventScanStateChanged:             "BTM_BLE_SCAN_STATE_CHANGED_EVT",
	EventConnectionParamUpdate:        "BTM_BLE_CONNECTION_PARAM_UPDATE",
	EventPhyUpdate:                    "BTM_BLE_PHY_UPDATE_EVT",
	EventDataLengthUpdate:             "BTM_BLE_DATA_LENGTH_UPDATE_EVENT",
}

func (c EventCode) String() string {
	if int(c) < len(eventNames) && eventNames[c] != "" {
		return eventNames[c]
	}
	return fmt.Sprintf("UNKNOWN_EVT(0x%02X)", uint8(c))
}

// AdvertMode is the advertising mode reported by the stack.
type AdvertMode uint8

const (
	AdvertOff AdvertMode = iota
	AdvertDirectedHigh
	AdvertDirectedLow
	AdvertUndirectedHigh
	AdvertUndirectedLow
	AdvertNonConnHigh
	AdvertNonConnLow
	AdvertDiscoverableHigh
	AdvertDiscoverableLow
)

var advertModeNames = [...]string{
	AdvertOff:              "BTM_BLE_ADVERT_OFF",
	AdvertDirectedHigh:     "BTM_BLE_ADVERT_DIRECTED_HIGH",
	AdvertDirectedLow:      "BTM_BLE_ADVERT_DIRECTED_LOW",
	AdvertUndirectedHigh:   "BTM_BLE_ADVERT_UNDIRECTED_HIGH",
	AdvertUndirectedLow:    "BTM_BLE_ADVERT_UNDIRECTED_LOW",
	AdvertNonConnHigh:      "BTM_BLE_ADVERT_NONCONN_HIGH",
	AdvertNonConnLow:       "BTM_BLE_ADVERT_NONCONN_LOW",
	AdvertDiscoverableHigh: "BTM_BLE_ADVERT_DISCOVERABLE_HIGH",
	AdvertDiscoverableLow:  "BTM_BLE_ADVERT_DISCOVERABLE_LOW",
}

func (m AdvertMode) String() string {
	if int(m) < len(advertModeNames) {
		return advertModeNames[m]
	}
	return fmt.Sprintf("ADVERT_MODE(%d)", uint8(m))
}

// ManagementEvent is one of EnabledEvent, AdvertStateChangedEvent,
// ConnectionParamUpdateEvent or UnknownEvent.
type ManagementEvent interface {
	Code() EventCode
}

// EnabledEvent reports the outcome of bringing up the controller and host.
type EnabledEvent struct {
	Status Result
}

func (EnabledEvent) Code() EventCode { return EventEnabled }

// AdvertStateChangedEvent reports the new advertising mode.
type AdvertStateChangedEvent struct {
	Mode AdvertMode
}

func (AdvertStateChangedEvent) Code() EventCode { return EventAdvertStateChanged }

// ConnectionParamUpdateEvent reports negotiated link parameters. Interval is
// in 1.25ms units, SupervisionTimeout in 10ms units.
type ConnectionParamUpdateEvent struct {
	Status             uint8
	Interval           uint16
	Latency            uint16
	SupervisionTimeout uint16
}

func (ConnectionParamUpdateEvent) Code() EventCode { return EventConnectionParamUpdate }

// UnknownEvent carries any event the application has no payload type for.
type UnknownEvent struct {
	EventCode EventCode
}

func (e UnknownEvent) Code() EventCode { return e.EventCode }

// ConnectionID is the stack's handle for a link. Zero means not connected.
type ConnectionID uint16

// DisconnectReason is the reason code reported with a disconnection.
type DisconnectReason uint8

const (
	ReasonUnknown            DisconnectReason = 0x00
	ReasonL2CAPFailure       DisconnectReason = 0x01
	ReasonTimeout            DisconnectReason = 0x08
	ReasonTerminatePeerUser  DisconnectReason = 0x13
	ReasonTerminateLocalHost DisconnectReason = 0x16
	ReasonLMPTimeout         DisconnectReason = 0x22
	ReasonFailEstablish      DisconnectReason = 0x3E
)

func (r DisconnectReason) String() string {
	switch r {
	case ReasonUnknown:
		return "GATT_CONN_UNKNOWN"
	case ReasonL2CAPFailure:
		return "GATT_CONN_L2C_FAILURE"
	case ReasonTimeout:
		return "GATT_CONN_TIMEOUT"
	case ReasonTerminatePeerUser:
		return "GATT_CONN_TERMINATE_PEER_USER"
	case ReasonTerminateLocalHost:
		return "GATT_CONN_TERMINATE_LOCAL_HOST"
	case ReasonLMPTimeout:
		return "GATT_CONN_LMP_TIMEOUT"
	case ReasonFailEstablish:
		return "GATT_CONN_FAIL_ESTABLISH"
	default:
		return fmt.Sprintf("GATT_CONN_REASON(0x%02X)", uint8(r))
	}
}

// ConnectionStatus is delivered on every connect and disconnect.
type ConnectionStatus struct {
	Connected bool
	PeerAddr  Address
	ConnID    ConnectionID
	// Reason is only meaningful when Connected is false.
	Reason DisconnectReason
}
