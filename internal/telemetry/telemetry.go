// Package telemetry publishes application snapshots to an MQTT broker.
//
// Every snapshot is published retained to <prefix>/<client_id>/state so a
// dashboard subscribing late still sees the current state. A retained
// online/offline marker lives at <prefix>/<client_id>/status, with the
// broker publishing "offline" as the will if the process dies.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/chaz8081/findme-target/internal/app"
)

const (
	publishTimeout = 5 * time.Second
	queueSize      = 16
)

// ErrStopped is returned once Disconnect has been called.
var ErrStopped = errors.New("telemetry: publisher stopped")

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("telemetry: not connected")

// Config holds the broker settings.
type Config struct {
	Broker      string
	Port        int
	ClientID    string
	TopicPrefix string
}

// State is the JSON document published for each snapshot.
type State struct {
	Device     string    `json:"device"`
	BootID     string    `json:"boot_id"`
	Sequence   uint64    `json:"sequence"`
	State      string    `json:"state"`
	ConnID     uint16    `json:"conn_id"`
	AlertLevel string    `json:"alert_level"`
	StatusDuty string    `json:"status_duty"`
	AlertDuty  string    `json:"alert_duty"`
	Timestamp  time.Time `json:"timestamp"`
}

// mqttClient is the part of mqtt.Client the publisher uses.
type mqttClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher implements app.Observer. Observe only queues the snapshot; Run
// does the publishing. The latest snapshot is kept and republished whenever
// the broker connection comes up, so state seen while offline is not lost.
type Publisher struct {
	client mqttClient
	cfg    Config
	bootID string
	logger *slog.Logger
	queue  chan app.Snapshot

	mu        sync.RWMutex
	connected bool
	seq       uint64

	// pubMu orders retained publishes so an older state never overwrites
	// a newer one.
	pubMu sync.Mutex
	last  *app.Snapshot

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a publisher backed by a paho client. Call Connect and Run to
// start publishing.
func New(cfg Config, logger *slog.Logger) *Publisher {
	p := newPublisher(nil, cfg, logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetWill(p.statusTopic(), "offline", 1, true)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		p.logger.Warn("[MQTT] connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

func newPublisher(client mqttClient, cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client: client,
		cfg:    cfg,
		bootID: uuid.NewString(),
		logger: logger,
		queue:  make(chan app.Snapshot, queueSize),
		stopCh: make(chan struct{}),
	}
}

// BootID identifies this process run in every published document.
func (p *Publisher) BootID() string { return p.bootID }

func (p *Publisher) stateTopic() string {
	return fmt.Sprintf("%s/%s/state", p.cfg.TopicPrefix, p.cfg.ClientID)
}

func (p *Publisher) statusTopic() string {
	return fmt.Sprintf("%s/%s/status", p.cfg.TopicPrefix, p.cfg.ClientID)
}

// Connect waits for the initial broker connection, respecting ctx and
// Disconnect. The online marker is published by the connect handler, which
// also runs on every automatic reconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return ErrStopped
	default:
	}
	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("telemetry: connect: %w", err)
			}
			p.setConnected(true)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return ErrStopped
		default:
		}
	}
}

// handleConnect runs on every (re)connect. The paho connect handler must
// not block on publishes.
func (p *Publisher) handleConnect() {
	p.setConnected(true)
	p.logger.Info("[MQTT] connected", "broker", p.cfg.Broker, "port", p.cfg.Port)
	go p.announce()
}

// announce replaces the retained "offline" will with "online" and
// republishes the latest state.
func (p *Publisher) announce() {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	select {
	case <-p.stopCh:
		return
	default:
	}

	if err := p.publish(p.statusTopic(), []byte("online")); err != nil {
		p.logger.Warn("[MQTT] failed to publish online status", "error", err)
		return
	}
	if p.last == nil {
		return
	}
	if err := p.publishState(*p.last); err != nil {
		p.logger.Warn("[MQTT] failed to republish state", "error", err)
	}
}

// Observe implements app.Observer. Snapshots are dropped when the queue is
// full.
func (p *Publisher) Observe(s app.Snapshot) {
	select {
	case p.queue <- s:
	default:
		p.logger.Warn("[MQTT] telemetry queue full, dropping snapshot", "state", s.State)
	}
}

// Run publishes queued snapshots until ctx is cancelled or Disconnect is
// called.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return ErrStopped
		case s := <-p.queue:
			err := p.PublishSnapshot(s)
			switch {
			case errors.Is(err, ErrNotConnected):
				p.logger.Debug("[MQTT] broker not connected, state kept for reconnect", "state", s.State)
			case err != nil:
				p.logger.Warn("[MQTT] failed to publish state", "error", err)
			}
		}
	}
}

// PublishSnapshot publishes s as a retained State document. s is remembered
// even when the broker is unreachable and is published on the next connect.
func (p *Publisher) PublishSnapshot(s app.Snapshot) error {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.last = &s
	if !p.IsConnected() {
		return ErrNotConnected
	}
	return p.publishState(s)
}

// publishState encodes and publishes s. Caller holds pubMu.
func (p *Publisher) publishState(s app.Snapshot) error {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	doc := State{
		Device:     p.cfg.ClientID,
		BootID:     p.bootID,
		Sequence:   seq,
		State:      s.State.String(),
		ConnID:     uint16(s.ConnID),
		AlertLevel: s.AlertLevel.String(),
		StatusDuty: s.StatusDuty.String(),
		AlertDuty:  s.AlertDuty.String(),
		Timestamp:  s.Time,
	}
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now()
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("telemetry: marshal state: %w", err)
	}
	if err := p.publish(p.stateTopic(), data); err != nil {
		return err
	}
	p.logger.Debug("[MQTT] published state", "topic", p.stateTopic(), "state", doc.State, "sequence", seq)
	return nil
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("telemetry: publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: publish %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect marks the device offline and closes the connection. Safe to
// call more than once.
func (p *Publisher) Disconnect() {
	first := false
	p.stopOnce.Do(func() {
		close(p.stopCh)
		first = true
	})
	if !first {
		return
	}

	p.pubMu.Lock()
	if p.IsConnected() {
		if err := p.publish(p.statusTopic(), []byte("offline")); err != nil {
			p.logger.Warn("[MQTT] failed to publish offline status", "error", err)
		}
	}
	p.pubMu.Unlock()
	p.client.Disconnect(250)
	p.setConnected(false)
	p.logger.Info("[MQTT] disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// Compile-time check that Publisher implements app.Observer.
var _ app.Observer = (*Publisher)(nil)
