package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaz8081/findme-target/internal/app"
	"github.com/chaz8081/findme-target/internal/ble"
	"github.com/chaz8081/findme-target/internal/config"
	"github.com/chaz8081/findme-target/internal/ias"
	"github.com/chaz8081/findme-target/internal/indicator"
	"github.com/chaz8081/findme-target/internal/logging"
	"github.com/chaz8081/findme-target/internal/pwm"
	"github.com/chaz8081/findme-target/internal/state"
	"github.com/chaz8081/findme-target/internal/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/findme-target/config.yaml)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger, err := logging.New(os.Stderr, level, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	slog.SetDefault(logger)

	printBanner(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
	logger.Info("Goodbye!")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker := state.NewTracker()
	alerts := &ias.Store{}

	// Indicators
	status, err := newStatus(cfg.Indicators.Status, tracker, logger)
	if err != nil {
		return fmt.Errorf("status indicator: %w", err)
	}
	alert, err := newAlert(cfg.Indicators.Alert, tracker, alerts, logger)
	if err != nil {
		return fmt.Errorf("alert indicator: %w", err)
	}

	// Telemetry
	var observer app.Observer
	if cfg.Telemetry.Enabled {
		pub := telemetry.New(telemetry.Config{
			Broker:      cfg.Telemetry.Broker,
			Port:        cfg.Telemetry.Port,
			ClientID:    cfg.Telemetry.ClientID,
			TopicPrefix: cfg.Telemetry.TopicPrefix,
		}, logger)
		defer pub.Disconnect()

		// Connect retries until the broker is up; the radio starts regardless.
		go func() {
			if err := pub.Connect(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("[MQTT] connect failed", "error", err)
			}
		}()
		go pub.Run(ctx)

		observer = pub
		logger.Info("[MQTT] telemetry enabled", "broker", cfg.Telemetry.Broker, "boot_id", pub.BootID())
	}

	// Bluetooth
	addr, _ := cfg.Address()
	stack := ble.NewBlueZStack(ble.PeripheralOptions{
		AdvertisingTimeout: cfg.Advertising.Timeout,
		Logger:             logger,
	})

	fatalCh := make(chan error, 1)
	dispatcher, err := app.NewDispatcher(app.Options{
		Stack:   stack,
		Status:  status,
		Alert:   alert,
		Tracker: tracker,
		Alerts:  alerts,
		Address: addr,
		Advertisement: ble.Advertisement{
			LocalName:    cfg.Device.Name,
			ServiceUUIDs: []uint16{ias.ServiceUUID},
			Interval:     cfg.Advertising.Interval,
		},
		OnFatal: func(err error) {
			select {
			case fatalCh <- err:
			default:
			}
		},
		Observer: observer,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stackErr := make(chan error, 1)
	go func() { stackErr <- stack.Run(runCtx, dispatcher) }()

	logger.Info("Ready! Ctrl+C to quit.")

	select {
	case err := <-fatalCh:
		cancel()
		<-stackErr
		return err
	case err := <-stackErr:
		// A failed radio enable reports through OnFatal first.
		select {
		case fatal := <-fatalCh:
			return fatal
		default:
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("bluetooth stack: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received signal, shutting down...")
		cancel()
		<-stackErr
		return nil
	}
}

func newStatus(c config.ChannelConfig, st state.Reader, logger *slog.Logger) (*indicator.Status, error) {
	if !c.Enabled() {
		logger.Info("[LED] status indicator disabled")
		return nil, nil
	}
	ch, pc, err := openChannel(c, logger)
	if err != nil {
		return nil, err
	}
	return indicator.NewStatus(ch, pc, st), nil
}

func newAlert(c config.ChannelConfig, st state.Reader, level ias.Source, logger *slog.Logger) (*indicator.Alert, error) {
	if !c.Enabled() {
		logger.Info("[LED] alert indicator disabled")
		return nil, nil
	}
	ch, pc, err := openChannel(c, logger)
	if err != nil {
		return nil, err
	}
	return indicator.NewAlert(ch, pc, st, level), nil
}

func openChannel(c config.ChannelConfig, logger *slog.Logger) (pwm.Channel, pwm.Config, error) {
	pc, err := c.PWM()
	if err != nil {
		return nil, pwm.Config{}, err
	}
	ch, err := pwm.Open(c.Driver, c.Pin, logger)
	if err != nil {
		return nil, pwm.Config{}, err
	}
	return ch, pc, nil
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	// No config file, use defaults
	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	addr := cfg.Device.Address
	if addr == "" {
		addr = "(controller default)"
	}
	telem := "off"
	if cfg.Telemetry.Enabled {
		telem = fmt.Sprintf("%s:%d", cfg.Telemetry.Broker, cfg.Telemetry.Port)
	}

	fmt.Println("=== findme-target ===")
	fmt.Printf("  Name:       %s\n", cfg.Device.Name)
	fmt.Printf("  Address:    %s\n", addr)
	fmt.Printf("  Status LED: %s\n", describeChannel(cfg.Indicators.Status))
	fmt.Printf("  Alert LED:  %s\n", describeChannel(cfg.Indicators.Alert))
	fmt.Printf("  Telemetry:  %s\n", telem)
	fmt.Printf("  Log:        %s (%s)\n", cfg.LogLevel, cfg.LogFormat)
	fmt.Println("=====================")
}

func describeChannel(c config.ChannelConfig) string {
	if !c.Enabled() {
		return "disabled"
	}
	return fmt.Sprintf("%s %s @ %s", c.Driver, c.Pin, c.Frequency)
}
