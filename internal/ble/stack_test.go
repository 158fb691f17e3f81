package ble

import (
	"strings"
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Address
		wantErr bool
	}{
		{name: "upper case", in: "00:A0:50:12:34:56", want: Address{0x00, 0xA0, 0x50, 0x12, 0x34, 0x56}},
		{name: "lower case", in: "aa:bb:cc:dd:ee:ff", want: Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}},
		{name: "surrounding space", in: " 01:02:03:04:05:06 ", want: Address{1, 2, 3, 4, 5, 6}},
		{name: "too short", in: "01:02:03:04:05", wantErr: true},
		{name: "too long", in: "01:02:03:04:05:06:07", wantErr: true},
		{name: "not hex", in: "01:02:03:04:05:GG", wantErr: true},
		{name: "single digit", in: "1:02:03:04:05:06", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAddress(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddressString(t *testing.T) {
	a := Address{0x00, 0xA0, 0x50, 0x0B, 0x1C, 0xFF}
	if got := a.String(); got != "00:A0:50:0B:1C:FF" {
		t.Errorf("String() = %q, want %q", got, "00:A0:50:0B:1C:FF")
	}

	back, err := ParseAddress(a.String())
	if err != nil || back != a {
		t.Errorf("ParseAddress(String()) = %v, %v; want %v", back, err, a)
	}
}

func TestAddressIsZero(t *testing.T) {
	if !(Address{}).IsZero() {
		t.Error("zero Address should report IsZero")
	}
	if (Address{0, 0, 0, 0, 0, 1}).IsZero() {
		t.Error("non-zero Address should not report IsZero")
	}
}

func TestAdvertModeString(t *testing.T) {
	if got := AdvertOff.String(); got != "BTM_BLE_ADVERT_OFF" {
		t.Errorf("AdvertOff.String() = %q", got)
	}
	if got := AdvertUndirectedHigh.String(); got != "BTM_BLE_ADVERT_UNDIRECTED_HIGH" {
		t.Errorf("AdvertUndirectedHigh.String() = %q", got)
	}
	if got := AdvertMode(42).String(); got != "ADVERT_MODE(42)" {
		t.Errorf("AdvertMode(42).String() = %q", got)
	}
}

func TestEventCodes(t *testing.T) {
	tests := []struct {
		ev   ManagementEvent
		want EventCode
	}{
		{EnabledEvent{}, EventEnabled},
		{AdvertStateChangedEvent{}, EventAdvertStateChanged},
		{ConnectionParamUpdateEvent{}, EventConnectionParamUpdate},
		{UnknownEvent{EventCode: EventPairingComplete}, EventPairingComplete},
	}
	for _, tt := range tests {
		if got := tt.ev.Code(); got != tt.want {
			t.Errorf("%T.Code() = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestEventCodeString(t *testing.T) {
	if got := EventEnabled.String(); got != "BTM_ENABLED_EVT" {
		t.Errorf("EventEnabled.String() = %q", got)
	}
	if got := EventCode(0xF0).String(); !strings.HasPrefix(got, "UNKNOWN_EVT") {
		t.Errorf("EventCode(0xF0).String() = %q, want UNKNOWN_EVT prefix", got)
	}
}

func TestDisconnectReasonString(t *testing.T) {
	if got := ReasonTerminatePeerUser.String(); got != "GATT_CONN_TERMINATE_PEER_USER" {
		t.Errorf("ReasonTerminatePeerUser.String() = %q", got)
	}
	if got := DisconnectReason(0x99).String(); got != "GATT_CONN_REASON(0x99)" {
		t.Errorf("DisconnectReason(0x99).String() = %q", got)
	}
}

func TestResultString(t *testing.T) {
	for r, want := range map[Result]string{
		ResultSuccess: "SUCCESS",
		ResultError:   "ERROR",
		ResultFatal:   "FATAL",
		Result(9):     "RESULT(9)",
	} {
		if got := r.String(); got != want {
			t.Errorf("Result(%d).String() = %q, want %q", r, got, want)
		}
	}
	if GATTError.String() != "GATT_ERROR" || GATTSuccess.String() != "GATT_SUCCESS" {
		t.Error("unexpected GATTStatus names")
	}
}
