package ias

import (
	"testing"

	"github.com/chaz8081/findme-target/internal/ble"
)

func TestStoreZeroValueIsLow(t *testing.T) {
	var s Store
	if got := s.Level(); got != Low {
		t.Errorf("Level() = %v, want %v", got, Low)
	}
}

func TestStoreSet(t *testing.T) {
	var s Store
	for _, l := range []AlertLevel{Mid, High, AlertLevel(200), Low} {
		s.Set(l)
		if got := s.Level(); got != l {
			t.Errorf("after Set(%v): Level() = %v", l, got)
		}
	}
}

func TestAlertLevelString(t *testing.T) {
	tests := map[AlertLevel]string{
		Low:            "low",
		Mid:            "mid",
		High:           "high",
		AlertLevel(17): "unknown(17)",
	}
	for l, want := range tests {
		if got := l.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func alertCharacteristic(t *testing.T, svc ble.Service) ble.Characteristic {
	t.Helper()
	if svc.UUID != ServiceUUID {
		t.Fatalf("service UUID = 0x%04X, want 0x%04X", svc.UUID, ServiceUUID)
	}
	if len(svc.Characteristics) != 1 {
		t.Fatalf("characteristics = %d, want 1", len(svc.Characteristics))
	}
	c := svc.Characteristics[0]
	if c.UUID != AlertLevelUUID {
		t.Fatalf("characteristic UUID = 0x%04X, want 0x%04X", c.UUID, AlertLevelUUID)
	}
	if c.Flags&ble.FlagWriteWithoutResponse == 0 {
		t.Error("alert level characteristic must allow write without response")
	}
	return c
}

func TestServiceWriteUpdatesStoreAndNotifies(t *testing.T) {
	var store Store
	var notified []AlertLevel
	svc := Service(&store, func(l AlertLevel) { notified = append(notified, l) }, nil)
	c := alertCharacteristic(t, svc)

	c.OnWrite([]byte{byte(Mid)})
	if store.Level() != Mid {
		t.Errorf("Level() = %v, want %v", store.Level(), Mid)
	}
	c.OnWrite([]byte{0x07})
	if store.Level() != AlertLevel(7) {
		t.Errorf("Level() = %v, want unknown(7)", store.Level())
	}

	if len(notified) != 2 || notified[0] != Mid || notified[1] != AlertLevel(7) {
		t.Errorf("notified = %v, want [mid unknown(7)]", notified)
	}
}

func TestServiceRejectsMalformedWrites(t *testing.T) {
	var store Store
	store.Set(High)
	calls := 0
	c := alertCharacteristic(t, Service(&store, func(AlertLevel) { calls++ }, nil))

	c.OnWrite(nil)
	c.OnWrite([]byte{0x01, 0x02})

	if store.Level() != High {
		t.Errorf("Level() = %v, want unchanged %v", store.Level(), High)
	}
	if calls != 0 {
		t.Errorf("onWrite called %d times, want 0", calls)
	}
}

func TestServiceNilCallback(t *testing.T) {
	var store Store
	c := alertCharacteristic(t, Service(&store, nil, nil))
	c.OnWrite([]byte{byte(High)})
	if store.Level() != High {
		t.Errorf("Level() = %v, want %v", store.Level(), High)
	}
}
