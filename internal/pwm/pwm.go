// Package pwm provides the pulse-output channels the indicators drive: a
// hardware channel on a periph.io GPIO pin and a log-only channel for hosts
// without one.
package pwm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// Alignment is where the active part of each period sits.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignRight:
		return "right"
	case AlignCenter:
		return "center"
	default:
		return fmt.Sprintf("Alignment(%d)", uint8(a))
	}
}

// ParseAlignment parses "left", "right" or "center".
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return AlignLeft, nil
	case "right":
		return AlignRight, nil
	case "center":
		return AlignCenter, nil
	default:
		return 0, fmt.Errorf("pwm: invalid alignment %q (allowed: left, right, center)", s)
	}
}

// Config is applied once when a channel is initialized.
type Config struct {
	Frequency physic.Frequency
	// Inverted drives the output low for the active part of the period.
	Inverted  bool
	Alignment Alignment
}

// Channel is a pulse output with a configurable duty cycle.
type Channel interface {
	// Init configures the channel. It must be called before anything else.
	Init(cfg Config) error
	// Stop halts the output.
	Stop() error
	// SetDutyCycle stages a duty cycle in percent at frequency f. It takes
	// effect on the next Start.
	SetDutyCycle(percent uint8, f physic.Frequency) error
	// Start (re)starts the output with the staged duty cycle.
	Start() error
}

var (
	ErrNotInitialized = errors.New("pwm: channel not initialized")
	ErrInvalidDuty    = errors.New("pwm: duty cycle out of range")
)

func checkDuty(percent uint8, f physic.Frequency) error {
	if percent > 100 {
		return fmt.Errorf("%w: %d%%", ErrInvalidDuty, percent)
	}
	if f <= 0 {
		return fmt.Errorf("pwm: invalid frequency %s", f)
	}
	return nil
}

// Drivers accepted by Open.
const (
	DriverGPIO = "gpio"
	DriverLog  = "log"
)

// Open returns a channel for pin on the named driver. The log driver uses
// pin only as a label.
func Open(driver, pin string, logger *slog.Logger) (Channel, error) {
	switch driver {
	case DriverGPIO:
		g, err := OpenGPIO(pin, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	case DriverLog:
		return NewLog(pin, logger), nil
	default:
		return nil, fmt.Errorf("pwm: unknown driver %q", driver)
	}
}
