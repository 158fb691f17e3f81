package pwm

import (
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var hostInit = sync.OnceValues(host.Init)

// GPIO is a Channel on a periph.io pin. Alignment is recorded but periph
// drivers only produce left-aligned waveforms.
type GPIO struct {
	name   string
	pin    gpio.PinIO
	logger *slog.Logger

	mu     sync.Mutex
	cfg    Config
	inited bool
	duty   gpio.Duty
	freq   physic.Frequency
}

// OpenGPIO initializes the periph host drivers and looks up the named pin
// (e.g. "GPIO18").
func OpenGPIO(name string, logger *slog.Logger) (*GPIO, error) {
	if _, err := hostInit(); err != nil {
		return nil, fmt.Errorf("pwm: host init: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("pwm: pin %q not found", name)
	}
	return newGPIO(name, pin, logger), nil
}

func newGPIO(name string, pin gpio.PinIO, logger *slog.Logger) *GPIO {
	if logger == nil {
		logger = slog.Default()
	}
	return &GPIO{name: name, pin: pin, logger: logger}
}

func (g *GPIO) Init(cfg Config) error {
	if cfg.Frequency <= 0 {
		return fmt.Errorf("pwm: %s: invalid frequency %s", g.name, cfg.Frequency)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.pin.Out(idleLevel(cfg.Inverted)); err != nil {
		return fmt.Errorf("pwm: %s: drive idle level: %w", g.name, err)
	}
	g.cfg = cfg
	g.freq = cfg.Frequency
	g.duty = dutyFor(0, cfg.Inverted)
	g.inited = true
	if cfg.Alignment != AlignLeft {
		g.logger.Debug("[PWM] alignment not supported by pin driver", "pin", g.name, "alignment", cfg.Alignment)
	}
	return nil
}

func (g *GPIO) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inited {
		return ErrNotInitialized
	}
	if err := g.pin.Halt(); err != nil {
		return fmt.Errorf("pwm: %s: halt: %w", g.name, err)
	}
	return nil
}

func (g *GPIO) SetDutyCycle(percent uint8, f physic.Frequency) error {
	if err := checkDuty(percent, f); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inited {
		return ErrNotInitialized
	}
	g.duty = dutyFor(percent, g.cfg.Inverted)
	g.freq = f
	return nil
}

func (g *GPIO) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inited {
		return ErrNotInitialized
	}
	if err := g.pin.PWM(g.duty, g.freq); err != nil {
		return fmt.Errorf("pwm: %s: start: %w", g.name, err)
	}
	return nil
}

// dutyFor converts a percentage to a periph duty, flipping it for inverted
// outputs.
func dutyFor(percent uint8, inverted bool) gpio.Duty {
	d := gpio.Duty(int64(gpio.DutyMax) * int64(percent) / 100)
	if inverted {
		d = gpio.DutyMax - d
	}
	return d
}

func idleLevel(inverted bool) gpio.Level {
	if inverted {
		return gpio.High
	}
	return gpio.Low
}

// Compile-time check that GPIO implements Channel.
var _ Channel = (*GPIO)(nil)
