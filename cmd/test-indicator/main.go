// Command test-indicator is a manual test for LED wiring and polarity.
// It steps one configured channel through off, blinking and solid,
// holding each for a few seconds.
//
// Usage:
//
//	go run ./cmd/test-indicator [--config path] [--led status|alert] [--hold 3s]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chaz8081/findme-target/internal/config"
	"github.com/chaz8081/findme-target/internal/logging"
	"github.com/chaz8081/findme-target/internal/pwm"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: built-in defaults)")
	led := flag.String("led", "status", "indicator to drive: status or alert")
	hold := flag.Duration("hold", 3*time.Second, "how long to hold each step")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	var cc config.ChannelConfig
	switch *led {
	case "status":
		cc = cfg.Indicators.Status
	case "alert":
		cc = cfg.Indicators.Alert
	default:
		fmt.Printf("Error: unknown led %q\n", *led)
		os.Exit(1)
	}
	if !cc.Enabled() {
		fmt.Printf("The %s indicator has no pin configured.\n", *led)
		os.Exit(1)
	}

	logger, _ := logging.New(os.Stderr, slog.LevelDebug, logging.FormatText)

	pc, err := cc.PWM()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	ch, err := pwm.Open(cc.Driver, cc.Pin, logger)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := ch.Init(pc); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Driving %s LED on %s %s (%s, inverted=%v)\n", *led, cc.Driver, cc.Pin, pc.Frequency, pc.Inverted)

	for _, step := range []struct {
		label   string
		percent uint8
	}{
		{"0%", 0},
		{"50% (blinking)", 50},
		{"100%", 100},
		{"0%", 0},
	} {
		fmt.Printf("Duty cycle %s...\n", step.label)
		if err := ch.Stop(); err != nil {
			fmt.Printf("Error: stop: %v\n", err)
		}
		if err := ch.SetDutyCycle(step.percent, pc.Frequency); err != nil {
			fmt.Printf("Error: set duty cycle: %v\n", err)
			continue
		}
		if err := ch.Start(); err != nil {
			fmt.Printf("Error: start: %v\n", err)
		}
		time.Sleep(*hold)
	}

	if err := ch.Stop(); err != nil {
		fmt.Printf("Error: stop: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nDone!")
}
