package pwm

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// fakePin records the calls GPIO makes. Methods GPIO never uses are left to
// the embedded nil interface.
type fakePin struct {
	gpio.PinIO
	level  gpio.Level
	duty   gpio.Duty
	freq   physic.Frequency
	halts  int
	pwms   int
	pwmErr error
}

func (p *fakePin) Out(l gpio.Level) error { p.level = l; return nil }
func (p *fakePin) Halt() error            { p.halts++; return nil }
func (p *fakePin) PWM(d gpio.Duty, f physic.Frequency) error {
	if p.pwmErr != nil {
		return p.pwmErr
	}
	p.pwms++
	p.duty, p.freq = d, f
	return nil
}

func TestDutyFor(t *testing.T) {
	tests := []struct {
		percent  uint8
		inverted bool
		want     gpio.Duty
	}{
		{0, false, 0},
		{50, false, gpio.DutyHalf},
		{100, false, gpio.DutyMax},
		{0, true, gpio.DutyMax},
		{50, true, gpio.DutyHalf},
		{100, true, 0},
	}
	for _, tt := range tests {
		if got := dutyFor(tt.percent, tt.inverted); got != tt.want {
			t.Errorf("dutyFor(%d, %v) = %v, want %v", tt.percent, tt.inverted, got, tt.want)
		}
	}
}

func TestGPIORequiresInit(t *testing.T) {
	g := newGPIO("GPIO18", &fakePin{}, nil)
	if err := g.Stop(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Stop() error = %v, want ErrNotInitialized", err)
	}
	if err := g.SetDutyCycle(50, physic.Hertz); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetDutyCycle() error = %v, want ErrNotInitialized", err)
	}
	if err := g.Start(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Start() error = %v, want ErrNotInitialized", err)
	}
}

func TestGPIOInitRejectsZeroFrequency(t *testing.T) {
	g := newGPIO("GPIO18", &fakePin{}, nil)
	if err := g.Init(Config{}); err == nil {
		t.Error("Init() with zero frequency should fail")
	}
}

func TestGPIOStopSetStart(t *testing.T) {
	pin := &fakePin{}
	g := newGPIO("GPIO18", pin, nil)
	if err := g.Init(Config{Frequency: physic.Hertz, Inverted: true, Alignment: AlignRight}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if pin.level != gpio.High {
		t.Errorf("idle level for inverted output = %v, want High", pin.level)
	}

	if err := g.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := g.SetDutyCycle(100, 2*physic.Hertz); err != nil {
		t.Fatalf("SetDutyCycle() error = %v", err)
	}
	if pin.pwms != 0 {
		t.Error("SetDutyCycle() should not start the output")
	}
	if err := g.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if pin.halts != 1 {
		t.Errorf("halts = %d, want 1", pin.halts)
	}
	if pin.duty != 0 {
		t.Errorf("duty = %v, want 0 (100%% inverted)", pin.duty)
	}
	if pin.freq != 2*physic.Hertz {
		t.Errorf("freq = %v, want 2Hz", pin.freq)
	}
}

func TestGPIOStartError(t *testing.T) {
	pin := &fakePin{pwmErr: errors.New("no pwm on this pin")}
	g := newGPIO("GPIO4", pin, nil)
	if err := g.Init(Config{Frequency: physic.Hertz}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := g.Start(); err == nil {
		t.Error("Start() should surface the pin error")
	}
}

func TestSetDutyCycleValidation(t *testing.T) {
	channels := map[string]Channel{
		"gpio": newGPIO("GPIO18", &fakePin{}, nil),
		"log":  NewLog("status", nil),
	}
	for name, ch := range channels {
		t.Run(name, func(t *testing.T) {
			if err := ch.Init(Config{Frequency: physic.Hertz}); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			if err := ch.SetDutyCycle(101, physic.Hertz); !errors.Is(err, ErrInvalidDuty) {
				t.Errorf("SetDutyCycle(101) error = %v, want ErrInvalidDuty", err)
			}
			if err := ch.SetDutyCycle(50, 0); err == nil {
				t.Error("SetDutyCycle() with zero frequency should fail")
			}
		})
	}
}

func TestLogChannel(t *testing.T) {
	l := NewLog("alert", nil)
	if err := l.Start(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Start() before Init error = %v, want ErrNotInitialized", err)
	}
	if err := l.Init(Config{Frequency: physic.Hertz}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_ = l.Stop()
	_ = l.SetDutyCycle(50, physic.Hertz)
	if _, running := l.Output(); running {
		t.Error("channel should not run before Start")
	}
	_ = l.Start()

	percent, running := l.Output()
	if percent != 50 || !running {
		t.Errorf("Output() = %d, %v; want 50, true", percent, running)
	}
}

func TestParseAlignment(t *testing.T) {
	tests := []struct {
		in      string
		want    Alignment
		wantErr bool
	}{
		{"left", AlignLeft, false},
		{"Right", AlignRight, false},
		{" center ", AlignCenter, false},
		{"diagonal", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAlignment(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAlignment(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAlignment(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	ch, err := Open(DriverLog, "status", nil)
	if err != nil {
		t.Fatalf("Open(log) error = %v", err)
	}
	if _, ok := ch.(*Log); !ok {
		t.Errorf("Open(log) = %T, want *Log", ch)
	}

	if _, err := Open("spi", "status", nil); err == nil {
		t.Error("Open() should reject unknown drivers")
	}
}
