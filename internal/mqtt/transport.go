package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/gas-meter/internal/report"
)

// ErrClosed is returned by operations on a closed transport.
var ErrClosed = errors.New("mqtt: transport closed")

// Config configures a RealTransport.
type Config struct {
	Broker         string
	ClientID       string
	Topics         Topics
	SystemTopic    string
	BootID         string
	OutboxSize     int
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// client is the subset of paho.Client the transport uses.
type client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// RealTransport talks to an actual MQTT broker.
//
// Publishes made while the broker is unreachable go to an outbox and are
// replayed in order on the next connect. Disable disconnects; the next
// Submit or Request connects again.
type RealTransport struct {
	cfg    Config
	client client
	msgs   chan report.Message

	mu       sync.Mutex
	out      *outbox
	disabled bool
	closed   bool
}

// NewRealTransport connects to the broker. A broker that is down at
// startup is not fatal: paho keeps retrying and reports go to the outbox.
func NewRealTransport(cfg Config) (*RealTransport, error) {
	cfg = withDefaults(cfg)
	t := newTransport(cfg, nil)

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
		BootID:    cfg.BootID,
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(cfg.SystemTopic, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { t.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	t.client = paho.NewClient(opts)
	if err := t.connect(); err != nil {
		log.Printf("mqtt: %v, retrying in background", err)
	}
	return t, nil
}

func withDefaults(cfg Config) Config {
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("gas-meter-%d", cfg.Topics.Node)
	}
	if cfg.Topics.Out == "" {
		cfg.Topics.Out = DefaultOutPrefix
	}
	if cfg.Topics.In == "" {
		cfg.Topics.In = DefaultInPrefix
	}
	if cfg.SystemTopic == "" {
		cfg.SystemTopic = DefaultSystemTopic
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = 64
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return cfg
}

func newTransport(cfg Config, c client) *RealTransport {
	return &RealTransport{
		cfg:    cfg,
		client: c,
		msgs:   make(chan report.Message, 16),
		out:    newOutbox(cfg.OutboxSize),
	}
}

func (t *RealTransport) connect() error {
	token := t.client.Connect()
	if !token.WaitTimeout(t.cfg.ConnectTimeout) {
		return fmt.Errorf("connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

// onConnect subscribes to controller commands and replays the outbox.
// paho calls it on its own goroutine after every (re)connect.
func (t *RealTransport) onConnect() {
	sub := t.cfg.Topics.Subscription()
	token := t.client.Subscribe(sub, 1, t.onMessage)
	if !token.WaitTimeout(t.cfg.PublishTimeout) {
		log.Printf("mqtt: subscribe %s timeout", sub)
	} else if err := token.Error(); err != nil {
		log.Printf("mqtt: subscribe %s: %v", sub, err)
	}
	t.flush()
}

func (t *RealTransport) flush() {
	t.mu.Lock()
	msgs := t.out.drain()
	t.mu.Unlock()
	if len(msgs) == 0 {
		return
	}

	for i, m := range msgs {
		if err := t.publish(m); err != nil {
			log.Printf("mqtt: replay stopped after %d of %d: %v", i, len(msgs), err)
			t.mu.Lock()
			t.out.requeue(msgs[i:])
			t.mu.Unlock()
			return
		}
	}
	log.Printf("mqtt: replayed %d buffered messages", len(msgs))
}

func (t *RealTransport) onMessage(_ paho.Client, m paho.Message) {
	msg, err := t.cfg.Topics.Parse(m.Topic(), m.Payload())
	if err != nil {
		log.Printf("mqtt: %v", err)
		return
	}
	select {
	case t.msgs <- msg:
	default:
		log.Printf("mqtt: inbound queue full, dropping %s", m.Topic())
	}
}

func (t *RealTransport) publish(m outMsg) error {
	token := t.client.Publish(m.topic, m.qos, false, m.payload)
	if !token.WaitTimeout(t.cfg.PublishTimeout) {
		return fmt.Errorf("publish %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// send wakes the transport if needed and publishes m, buffering it when
// the broker cannot take it.
func (t *RealTransport) send(m outMsg) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	wake := t.disabled
	t.disabled = false
	t.mu.Unlock()

	if wake {
		if err := t.connect(); err != nil {
			log.Printf("mqtt: wake: %v", err)
		}
	}

	if !t.client.IsConnectionOpen() {
		t.mu.Lock()
		t.out.push(m)
		t.mu.Unlock()
		return nil
	}
	if err := t.publish(m); err != nil {
		t.mu.Lock()
		t.out.push(m)
		t.mu.Unlock()
		return err
	}
	return nil
}

// Submit publishes one report value.
func (t *RealTransport) Submit(r report.Report) error {
	return t.send(outMsg{topic: t.cfg.Topics.Report(r), payload: []byte(r.Payload()), qos: 1})
}

// Request asks the controller to send the value named by p.
func (t *RealTransport) Request(p report.Param) error {
	return t.send(outMsg{topic: t.cfg.Topics.Request(p), payload: []byte{}, qos: 1})
}

// IsReady reports whether the node can go idle without losing a publish.
// Connected, that means the outbox has been replayed. While the broker is
// unreachable the outbox absorbs new publishes, so the transport is ready
// until it fills up.
func (t *RealTransport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disabled || t.closed {
		return true
	}
	if !t.client.IsConnectionOpen() {
		return !t.out.full()
	}
	return t.out.len() == 0
}

// Enable connects to the broker. It is a no-op when already enabled.
func (t *RealTransport) Enable() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if !t.disabled {
		t.mu.Unlock()
		return nil
	}
	t.disabled = false
	t.mu.Unlock()
	return t.connect()
}

// Disable disconnects from the broker. It is a no-op when already disabled.
func (t *RealTransport) Disable() error {
	t.mu.Lock()
	if t.closed || t.disabled {
		t.mu.Unlock()
		return nil
	}
	t.disabled = true
	t.mu.Unlock()
	t.client.Disconnect(250)
	return nil
}

// Messages returns inbound controller messages.
func (t *RealTransport) Messages() <-chan report.Message {
	return t.msgs
}

// PublishSystem sends a lifecycle event, waking the transport if needed.
func (t *RealTransport) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	if err := t.Enable(); err != nil {
		return err
	}
	token := t.client.Publish(t.cfg.SystemTopic, 1, event.Retained, payload)
	if !token.WaitTimeout(t.cfg.PublishTimeout) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (t *RealTransport) IsConnected() bool {
	return t.client.IsConnectionOpen()
}

// Pending returns the number of buffered publishes.
func (t *RealTransport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.len()
}

// Close disconnects from the broker.
func (t *RealTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	n := t.out.len()
	t.mu.Unlock()
	if n > 0 {
		log.Printf("mqtt: closing with %d unsent messages", n)
	}
	t.client.Disconnect(1000)
	return nil
}
