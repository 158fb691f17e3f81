package pwm

import (
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/physic"
)

// Log is a Channel that only logs what it would output.
type Log struct {
	name   string
	logger *slog.Logger

	mu      sync.Mutex
	inited  bool
	running bool
	percent uint8
	freq    physic.Frequency
}

// NewLog creates a log-only channel.
func NewLog(name string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{name: name, logger: logger}
}

func (l *Log) Init(cfg Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inited = true
	l.freq = cfg.Frequency
	l.logger.Info("[PWM] channel initialized",
		"channel", l.name,
		"frequency", cfg.Frequency.String(),
		"inverted", cfg.Inverted,
		"alignment", cfg.Alignment.String(),
	)
	return nil
}

func (l *Log) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.inited {
		return ErrNotInitialized
	}
	l.running = false
	return nil
}

func (l *Log) SetDutyCycle(percent uint8, f physic.Frequency) error {
	if err := checkDuty(percent, f); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.inited {
		return ErrNotInitialized
	}
	l.percent = percent
	l.freq = f
	return nil
}

func (l *Log) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.inited {
		return ErrNotInitialized
	}
	l.running = true
	l.logger.Info("[PWM] output", "channel", l.name, "duty_pct", l.percent, "frequency", l.freq.String())
	return nil
}

// Output returns the staged duty cycle and whether the channel is running.
func (l *Log) Output() (percent uint8, running bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.percent, l.running
}

// Compile-time check that Log implements Channel.
var _ Channel = (*Log)(nil)
