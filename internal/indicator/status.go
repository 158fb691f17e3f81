package indicator

import (
	"fmt"

	"github.com/chaz8081/findme-target/internal/pwm"
	"github.com/chaz8081/findme-target/internal/state"
)

// Status duty cycles: off when idle, blinking while advertising, solid while
// connected.
const (
	statusOff   uint8 = 0
	statusBlink uint8 = 50
	statusSolid uint8 = 100
)

// StatusDuty returns the status indicator duty cycle for s. Unexpected
// values turn the indicator off.
func StatusDuty(s state.AdvConn) uint8 {
	switch s {
	case state.AdvOffConnOff:
		return statusOff
	case state.AdvOnConnOff:
		return statusBlink
	case state.AdvOffConnOn:
		return statusSolid
	default:
		return statusOff
	}
}

// Status drives the advertising/connection status LED.
type Status struct {
	ch    pwm.Channel
	cfg   pwm.Config
	state state.Reader
}

// NewStatus creates a status indicator on ch reading st.
func NewStatus(ch pwm.Channel, cfg pwm.Config, st state.Reader) *Status {
	return &Status{ch: ch, cfg: cfg, state: st}
}

// Init configures the channel.
func (s *Status) Init() error {
	if s == nil {
		return nil
	}
	if err := s.ch.Init(s.cfg); err != nil {
		return fmt.Errorf("indicator: status: %w", err)
	}
	return nil
}

// Refresh commits the duty cycle for the current state and returns it.
// Calling it again without a state change commits the same value.
func (s *Status) Refresh() (DutyCycle, error) {
	if s == nil {
		return DutyCycle{}, nil
	}
	d := DutyCycle{Percent: StatusDuty(s.state.AdvConn()), Frequency: s.cfg.Frequency}
	if err := commit(s.ch, d); err != nil {
		return d, fmt.Errorf("indicator: status: %w", err)
	}
	return d, nil
}
