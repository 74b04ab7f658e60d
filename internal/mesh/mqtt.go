package mesh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const DefaultTopic = "aura/mesh"

type MQTTConfig struct {
	Broker   string
	Port     int
	ClientID string
	Topic    string
}

// MQTTTransport uses one broker topic as the broadcast medium. Publishes are
// QoS 0 and never wait for the broker. The broker echoes a node's own frames
// back to it; receivers drop them by origin.
type MQTTTransport struct {
	client    mqtt.Client
	cfg       MQTTConfig
	logger    *slog.Logger
	inbox     *Inbox
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewMQTT(cfg MQTTConfig, inbox *Inbox, logger *slog.Logger) *MQTTTransport {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	t := &MQTTTransport{
		cfg:    cfg,
		logger: logger,
		inbox:  inbox,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(15 * time.Second)
	opts.SetPingTimeout(5 * time.Second)

	// Subscribing here covers reconnects as well as the first connect.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		t.setConnected(true)
		logger.Info("mesh peer link up", "broker", cfg.Broker, "port", cfg.Port, "topic", cfg.Topic)
		token := c.Subscribe(cfg.Topic, 0, t.onMessage)
		go func() {
			if !token.WaitTimeout(5 * time.Second) {
				logger.Warn("mesh subscribe timeout", "topic", cfg.Topic)
				return
			}
			if err := token.Error(); err != nil {
				logger.Error("mesh subscribe failed", "topic", cfg.Topic, "error", err)
			}
		}()
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		t.setConnected(false)
		logger.Warn("mesh peer link lost", "error", err)
	})

	t.client = mqtt.NewClient(opts)
	return t
}

func (t *MQTTTransport) onMessage(_ mqtt.Client, m mqtt.Message) {
	if t.inbox.Push(Frame{From: m.Topic(), Payload: append([]byte(nil), m.Payload()...)}) {
		t.logger.Debug("mesh inbox full, dropped oldest frame", "dropped_total", t.inbox.Dropped())
	}
}

// Connect waits for the first broker connection while honouring ctx and Close.
func (t *MQTTTransport) Connect(ctx context.Context) error {
	select {
	case <-t.stopCh:
		return errors.New("mesh transport closed")
	default:
	}

	if t.IsConnected() {
		return nil
	}

	token := t.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.stopCh:
			return errors.New("mesh transport closed")
		default:
		}
	}
}

func (t *MQTTTransport) Broadcast(payload []byte) error {
	if !t.IsConnected() {
		return ErrNotConnected
	}
	token := t.client.Publish(t.cfg.Topic, 0, false, payload)
	go func() {
		if token.WaitTimeout(time.Second) && token.Error() != nil {
			t.logger.Debug("mesh publish failed", "topic", t.cfg.Topic, "error", token.Error())
		}
	}()
	return nil
}

func (t *MQTTTransport) IsConnected() bool {
	t.mu.RLock()
	connected := t.connected
	t.mu.RUnlock()
	return connected && t.client.IsConnected()
}

// Close is idempotent. After Close, Connect fails.
func (t *MQTTTransport) Close() error {
	t.stopOnce.Do(func() { close(t.stopCh) })
	if t.client != nil {
		t.client.Disconnect(250)
	}
	t.setConnected(false)
	t.logger.Info("mesh disconnected")
	return nil
}

func (t *MQTTTransport) setConnected(v bool) {
	t.mu.Lock()
	t.connected = v
	t.mu.Unlock()
}
