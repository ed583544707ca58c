package mqtt

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/oshokin/pv-alarm/internal/telemetry"
)

const (
	// DefaultConnectTimeout bounds the initial broker connection.
	DefaultConnectTimeout = 10 * time.Second

	// disconnectQuiesce is how long Close waits for in-flight work, in milliseconds.
	disconnectQuiesce = 250
)

var (
	// ErrConnectTimeout is returned when the broker does not answer in time.
	ErrConnectTimeout = errors.New("mqtt connect timeout")
	// ErrClosed is returned when opening a source on a closed factory.
	ErrClosed = errors.New("mqtt factory is closed")
)

// Config describes the broker connection.
type Config struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string
	// ClientID identifies this process on the broker.
	ClientID string
	// Username is optional broker credentials.
	Username string
	// Password is optional broker credentials.
	Password string
	// TopicPrefix is prepended to PV names to form topics.
	TopicPrefix string
	// QoS is used for subscriptions and publications.
	QoS byte
	// ConnectTimeout bounds the initial connection and every token wait.
	ConnectTimeout time.Duration
	// DeviceTime stamps samples with the payload timestamp instead of receive time.
	// Debounce compares sample times with the local clock, so enable it only when
	// publishers are synchronized with this host.
	DeviceTime bool
}

// Factory opens MQTT backed telemetry sources over one shared connection.
type Factory struct {
	// client is the shared broker connection.
	client paho.Client
	// cfg is the effective configuration.
	cfg Config
	// log receives connection and decoding diagnostics.
	log *zap.SugaredLogger
	// now is the receive clock.
	now func() time.Time

	// mu guards subscribers and closed.
	mu sync.Mutex
	// subscribers maps a topic to every source listening on it.
	subscribers map[string][]*source
	// closed is set by Close.
	closed bool
}

// Dial connects to the broker and returns a ready factory.
func Dial(cfg Config, log *zap.SugaredLogger) (*Factory, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetResumeSubs(true).
		SetOrderMatters(false).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnw("MQTT connection lost", "broker", cfg.Broker, "error", err)
		}).
		SetOnConnectHandler(func(_ paho.Client) {
			log.Infow("MQTT connected", "broker", cfg.Broker)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := paho.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("%w after %s", ErrConnectTimeout, cfg.ConnectTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}

	return newFactory(client, cfg, log), nil
}

// newFactory wraps an already connected client.
func newFactory(client paho.Client, cfg Config, log *zap.SugaredLogger) *Factory {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Factory{
		client:      client,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
		subscribers: make(map[string][]*source),
	}
}

// Topic returns the topic carrying pvName.
func (f *Factory) Topic(pvName string) string {
	prefix := strings.TrimSuffix(f.cfg.TopicPrefix, "/")
	if prefix == "" {
		return pvName
	}

	return prefix + "/" + pvName
}

// Open subscribes to the PV topic. Sources sharing a PV share one subscription.
func (f *Factory) Open(pvName string, onSample telemetry.SampleHandler) (telemetry.Source, error) {
	pvName, err := telemetry.NormalizePVName(pvName)
	if err != nil {
		return nil, err
	}

	s := &source{
		name:     pvName,
		topic:    f.Topic(pvName),
		onSample: onSample,
		isOpen:   f.client.IsConnectionOpen,
		release:  f.release,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	if len(f.subscribers[s.topic]) == 0 {
		token := f.client.Subscribe(s.topic, f.cfg.QoS, f.route)
		if err := f.wait(token); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", s.topic, err)
		}
	}

	f.subscribers[s.topic] = append(f.subscribers[s.topic], s)

	return s, nil
}

// Publish sends payload to topic with the configured QoS.
func (f *Factory) Publish(topic string, payload []byte) error {
	token := f.client.Publish(topic, f.cfg.QoS, false, payload)
	if err := f.wait(token); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	return nil
}

// Close drops every subscription and disconnects from the broker.
func (f *Factory) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}

	f.closed = true
	f.subscribers = make(map[string][]*source)
	f.mu.Unlock()

	f.client.Disconnect(disconnectQuiesce)

	return nil
}

// route fans an incoming message out to the sources of its topic.
func (f *Factory) route(_ paho.Client, msg paho.Message) {
	received := f.now()

	value, at, err := decodePayload(msg.Payload(), received)
	if err != nil {
		f.log.Warnw("Dropping malformed sample", "topic", msg.Topic(), "error", err)
		return
	}

	if !f.cfg.DeviceTime {
		at = received
	}

	f.mu.Lock()
	targets := slices.Clone(f.subscribers[msg.Topic()])
	f.mu.Unlock()

	for _, s := range targets {
		s.deliver(value, at)
	}
}

// release detaches s and unsubscribes the topic once nobody listens to it.
func (f *Factory) release(s *source) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	remaining := slices.DeleteFunc(f.subscribers[s.topic], func(other *source) bool {
		return other == s
	})

	if len(remaining) > 0 {
		f.subscribers[s.topic] = remaining
		return nil
	}

	delete(f.subscribers, s.topic)

	if f.closed {
		return nil
	}

	if err := f.wait(f.client.Unsubscribe(s.topic)); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", s.topic, err)
	}

	return nil
}

// wait blocks on token for at most the configured timeout.
func (f *Factory) wait(token paho.Token) error {
	if !token.WaitTimeout(f.cfg.ConnectTimeout) {
		return ErrConnectTimeout
	}

	return token.Error()
}
