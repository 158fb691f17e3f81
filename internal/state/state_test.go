package state

import (
	"math/rand"
	"testing"

	"github.com/chaz8081/findme-target/internal/ble"
)

func TestNewTrackerInitialState(t *testing.T) {
	tr := NewTracker()
	if got := tr.AdvConn(); got != AdvOffConnOff {
		t.Errorf("AdvConn() = %v, want %v", got, AdvOffConnOff)
	}
	if got := tr.ConnectionID(); got != 0 {
		t.Errorf("ConnectionID() = %d, want 0", got)
	}
}

func TestTrackerTransitions(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*Tracker)
		event  func(*Tracker) AdvConn
		want   AdvConn
		wantID ble.ConnectionID
	}{
		{
			name:  "advertising started from idle",
			setup: func(*Tracker) {},
			event: (*Tracker).AdvertisingStarted,
			want:  AdvOnConnOff,
		},
		{
			name:  "advertising stopped without connection",
			setup: func(tr *Tracker) { tr.AdvertisingStarted() },
			event: (*Tracker).AdvertisingStopped,
			want:  AdvOffConnOff,
		},
		{
			name:   "connected while advertising",
			setup:  func(tr *Tracker) { tr.AdvertisingStarted() },
			event:  func(tr *Tracker) AdvConn { return tr.Connected(7) },
			want:   AdvOffConnOn,
			wantID: 7,
		},
		{
			name:  "disconnected",
			setup: func(tr *Tracker) { tr.AdvertisingStarted(); tr.Connected(7) },
			event: (*Tracker).Disconnected,
			want:  AdvOnConnOff,
		},
		{
			name:   "advertising stopped while connected re-affirms connected",
			setup:  func(tr *Tracker) { tr.Connected(3) },
			event:  (*Tracker).AdvertisingStopped,
			want:   AdvOffConnOn,
			wantID: 3,
		},
		{
			name:   "double connect overwrites id",
			setup:  func(tr *Tracker) { tr.Connected(3) },
			event:  func(tr *Tracker) AdvConn { return tr.Connected(9) },
			want:   AdvOffConnOn,
			wantID: 9,
		},
		{
			name:   "advertising started while connected",
			setup:  func(tr *Tracker) { tr.Connected(3) },
			event:  (*Tracker).AdvertisingStarted,
			want:   AdvOnConnOff,
			wantID: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tt.setup(tr)
			got := tt.event(tr)
			if got != tt.want {
				t.Errorf("returned state = %v, want %v", got, tt.want)
			}
			if tr.AdvConn() != tt.want {
				t.Errorf("AdvConn() = %v, want %v", tr.AdvConn(), tt.want)
			}
			if tr.ConnectionID() != tt.wantID {
				t.Errorf("ConnectionID() = %d, want %d", tr.ConnectionID(), tt.wantID)
			}
		})
	}
}

func TestTrackerRepeatedAdvertisingStoppedIsStable(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		if got := tr.AdvertisingStopped(); got != AdvOffConnOff {
			t.Fatalf("iteration %d: AdvertisingStopped() = %v, want %v", i, got, AdvOffConnOff)
		}
	}
}

// TestTrackerRandomSequences checks arbitrary event sequences against the
// transition table written out independently.
func TestTrackerRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for run := 0; run < 200; run++ {
		tr := NewTracker()
		want := AdvOffConnOff
		var wantID ble.ConnectionID

		for step := 0; step < 50; step++ {
			switch rng.Intn(4) {
			case 0:
				tr.AdvertisingStarted()
				want = AdvOnConnOff
			case 1:
				tr.AdvertisingStopped()
				if wantID == 0 {
					want = AdvOffConnOff
				} else {
					want = AdvOffConnOn
				}
			case 2:
				id := ble.ConnectionID(rng.Intn(0xFFFF) + 1)
				tr.Connected(id)
				want, wantID = AdvOffConnOn, id
			case 3:
				tr.Disconnected()
				want, wantID = AdvOnConnOff, 0
			}

			if tr.AdvConn() != want || tr.ConnectionID() != wantID {
				t.Fatalf("run %d step %d: state = %v/%d, want %v/%d",
					run, step, tr.AdvConn(), tr.ConnectionID(), want, wantID)
			}
		}
	}
}

func TestAdvConnString(t *testing.T) {
	tests := map[AdvConn]string{
		AdvOffConnOff: "AdvOff_ConnOff",
		AdvOnConnOff:  "AdvOn_ConnOff",
		AdvOffConnOn:  "AdvOff_ConnOn",
		AdvConn(7):    "AdvConn(7)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestTrackerImplementsReader(t *testing.T) {
	var _ Reader = (*Tracker)(nil)
}
