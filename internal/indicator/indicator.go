// Package indicator maps the advertising/connection state and the alert level
// onto duty cycles and commits them to pulse-output channels.
//
// A nil *Status or *Alert is a valid, absent indicator: Init and Refresh on
// it do nothing, so callers never need to check whether a board has the LED.
package indicator

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"

	"github.com/chaz8081/findme-target/internal/pwm"
)

// DutyCycle is what gets committed to a channel.
type DutyCycle struct {
	Percent   uint8
	Frequency physic.Frequency
}

func (d DutyCycle) String() string {
	return fmt.Sprintf("%d%%@%s", d.Percent, d.Frequency)
}

// commit runs the stop, set, start sequence. Every step is attempted even if
// an earlier one failed so the channel is never left stopped.
func commit(ch pwm.Channel, d DutyCycle) error {
	var errs []error
	if err := ch.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop: %w", err))
	}
	if err := ch.SetDutyCycle(d.Percent, d.Frequency); err != nil {
		errs = append(errs, fmt.Errorf("set duty cycle: %w", err))
	}
	if err := ch.Start(); err != nil {
		errs = append(errs, fmt.Errorf("start: %w", err))
	}
	return errors.Join(errs...)
}
