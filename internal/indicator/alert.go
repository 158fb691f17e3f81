package indicator

import (
	"fmt"

	"github.com/chaz8081/findme-target/internal/ias"
	"github.com/chaz8081/findme-target/internal/pwm"
	"github.com/chaz8081/findme-target/internal/state"
)

// Alert duty cycles. The alert LED is wired active low.
const (
	alertOn    uint8 = 0
	alertBlink uint8 = 50
	alertOff   uint8 = 100
)

// AlertDuty returns the alert indicator duty cycle. The indicator is off
// unless connected; while connected unknown levels count as High.
func AlertDuty(s state.AdvConn, level ias.AlertLevel) uint8 {
	if s != state.AdvOffConnOn {
		return alertOff
	}
	switch level {
	case ias.Low:
		return alertOff
	case ias.Mid:
		return alertBlink
	default:
		return alertOn
	}
}

// Alert drives the Immediate Alert LED.
type Alert struct {
	ch    pwm.Channel
	cfg   pwm.Config
	state state.Reader
	level ias.Source
}

// NewAlert creates an alert indicator on ch reading st and level.
func NewAlert(ch pwm.Channel, cfg pwm.Config, st state.Reader, level ias.Source) *Alert {
	return &Alert{ch: ch, cfg: cfg, state: st, level: level}
}

// Init configures the channel.
func (a *Alert) Init() error {
	if a == nil {
		return nil
	}
	if err := a.ch.Init(a.cfg); err != nil {
		return fmt.Errorf("indicator: alert: %w", err)
	}
	return nil
}

// Refresh commits the duty cycle for the current state and alert level.
func (a *Alert) Refresh() (DutyCycle, error) {
	if a == nil {
		return DutyCycle{}, nil
	}
	d := DutyCycle{
		Percent:   AlertDuty(a.state.AdvConn(), a.level.Level()),
		Frequency: a.cfg.Frequency,
	}
	if err := commit(a.ch, d); err != nil {
		return d, fmt.Errorf("indicator: alert: %w", err)
	}
	return d, nil
}
