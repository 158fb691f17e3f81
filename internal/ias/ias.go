// Package ias implements the Immediate Alert Service alert level: the value
// a "Find Me" locator writes to make the target signal.
package ias

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/chaz8081/findme-target/internal/ble"
)

// Bluetooth SIG assigned numbers.
const (
	ServiceUUID    uint16 = 0x1802 // Immediate Alert
	AlertLevelUUID uint16 = 0x2A06 // Alert Level
)

// AlertLevel is the value of the Alert Level characteristic. Values above
// High are kept as written; consumers treat them as High.
type AlertLevel uint8

const (
	Low  AlertLevel = 0 // "No Alert"
	Mid  AlertLevel = 1 // "Mild Alert"
	High AlertLevel = 2 // "High Alert"
)

func (l AlertLevel) String() string {
	switch l {
	case Low:
		return "low"
	case Mid:
		return "mid"
	case High:
		return "high"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(l))
	}
}

// Source is the read side of the alert level.
type Source interface {
	Level() AlertLevel
}

// Store holds the current alert level. The zero value is Low.
type Store struct {
	level atomic.Uint32
}

// Level returns the last written level.
func (s *Store) Level() AlertLevel { return AlertLevel(s.level.Load()) }

// Set stores a new level.
func (s *Store) Set(l AlertLevel) { s.level.Store(uint32(l)) }

// Service returns the GATT service definition. Accepted writes update store
// and then call onWrite (which may be nil).
func Service(store *Store, onWrite func(AlertLevel), logger *slog.Logger) ble.Service {
	if logger == nil {
		logger = slog.Default()
	}
	return ble.Service{
		UUID: ServiceUUID,
		Characteristics: []ble.Characteristic{
			{
				UUID:  AlertLevelUUID,
				Flags: ble.FlagWriteWithoutResponse,
				OnWrite: func(value []byte) {
					if len(value) != 1 {
						logger.Warn("[IAS] ignoring alert level write", "length", len(value))
						return
					}
					level := AlertLevel(value[0])
					store.Set(level)
					logger.Info("[IAS] alert level written", "level", level)
					if onWrite != nil {
						onWrite(level)
					}
				},
			},
		},
	}
}
