package mqtt

import (
	"fmt"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClient records subscriptions; unimplemented methods panic through the nil embed.
type fakeClient struct {
	paho.Client

	mu           sync.Mutex
	open         bool
	handlers     map[string]paho.MessageHandler
	subscribes   int
	unsubscribed []string
	published    map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		open:      true,
		handlers:  make(map[string]paho.MessageHandler),
		published: make(map[string][]byte),
	}
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.open
}

func (c *fakeClient) Subscribe(topic string, _ byte, callback paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subscribes++
	c.handlers[topic] = callback

	return new(paho.DummyToken)
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, topic := range topics {
		delete(c.handlers, topic)
		c.unsubscribed = append(c.unsubscribed, topic)
	}

	return new(paho.DummyToken)
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload any) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.published[topic], _ = payload.([]byte)

	return new(paho.DummyToken)
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = false
}

// emit delivers payload as if the broker had sent it.
func (c *fakeClient) emit(topic, payload string) {
	c.mu.Lock()
	handler := c.handlers[topic]
	c.mu.Unlock()

	if handler != nil {
		handler(c, &fakeMessage{topic: topic, payload: []byte(payload)})
	}
}

// fakeMessage carries only a topic and a payload.
type fakeMessage struct {
	paho.Message

	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

// sampleRecorder collects samples from a source callback.
type sampleRecorder struct {
	mu     sync.Mutex
	values []float64
}

func (r *sampleRecorder) handle(value float64, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values = append(r.values, value)
}

func (r *sampleRecorder) snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]float64(nil), r.values...)
}

// TestFactory_Topic checks prefix joining.
func TestFactory_Topic(t *testing.T) {
	t.Parallel()

	f := newFactory(newFakeClient(), Config{TopicPrefix: "epics/"}, zap.NewNop().Sugar())
	require.Equal(t, "epics/SI-13C4:DI-DCCT:Current-Mon", f.Topic("SI-13C4:DI-DCCT:Current-Mon"))

	f = newFactory(newFakeClient(), Config{}, zap.NewNop().Sugar())
	require.Equal(t, "BO-Fam:PS-QD", f.Topic("BO-Fam:PS-QD"))
}

// TestFactory_SharedSubscription verifies sources of one PV share a subscription
// and that the topic is released with the last of them.
func TestFactory_SharedSubscription(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	f := newFactory(client, Config{TopicPrefix: "pv"}, zap.NewNop().Sugar())

	var first, second sampleRecorder

	a, err := f.Open(" TS-01:PS-CH ", first.handle)
	require.NoError(t, err)
	b, err := f.Open("TS-01:PS-CH", second.handle)
	require.NoError(t, err)
	require.Equal(t, 1, client.subscribes)
	require.True(t, a.Connected())

	_, ok := a.Value()
	require.False(t, ok)

	client.emit("pv/TS-01:PS-CH", "3.5")
	client.emit("pv/TS-01:PS-CH", "not a number")

	require.Equal(t, []float64{3.5}, first.snapshot())
	require.Equal(t, []float64{3.5}, second.snapshot())

	value, ok := b.Value()
	require.True(t, ok)
	require.InDelta(t, 3.5, value, 0)

	require.NoError(t, a.Close())
	require.False(t, a.Connected())
	require.Empty(t, client.unsubscribed)

	client.emit("pv/TS-01:PS-CH", `{"value": 4}`)
	require.Equal(t, []float64{3.5}, first.snapshot())
	require.Equal(t, []float64{3.5, 4}, second.snapshot())

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	require.Equal(t, []string{"pv/TS-01:PS-CH"}, client.unsubscribed)
}

// TestFactory_ConnectionState verifies sources follow the broker connection.
func TestFactory_ConnectionState(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	f := newFactory(client, Config{}, nil)

	s, err := f.Open("LA-CN:H1MPS-1:A1Current", func(float64, time.Time) {})
	require.NoError(t, err)
	require.True(t, s.Connected())

	require.NoError(t, f.Close())
	require.False(t, s.Connected())

	_, err = f.Open("LA-CN:H1MPS-1:A1Current", func(float64, time.Time) {})
	require.ErrorIs(t, err, ErrClosed)
}

// TestFactory_Publish checks payloads reach the client unchanged.
func TestFactory_Publish(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	f := newFactory(client, Config{}, zap.NewNop().Sugar())

	require.NoError(t, f.Publish("pv-alarm/events", []byte(`{"id":"1"}`)))
	require.Equal(t, []byte(`{"id":"1"}`), client.published["pv-alarm/events"])
}

// TestFactory_SampleTime verifies samples are stamped with receive time unless
// device time is trusted.
func TestFactory_SampleTime(t *testing.T) {
	t.Parallel()

	received := time.Date(2026, time.October, 17, 9, 30, 0, 0, time.UTC)
	lagging := received.Add(-2 * time.Hour)
	payload := fmt.Sprintf(`{"value": 7, "timestamp": %d}`, lagging.Unix())

	for _, tc := range []struct {
		name       string
		deviceTime bool
		want       time.Time
	}{
		{name: "receive time", deviceTime: false, want: received},
		{name: "device time", deviceTime: true, want: lagging},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newFakeClient()
			f := newFactory(client, Config{DeviceTime: tc.deviceTime}, nil)
			f.now = func() time.Time { return received }

			var got []time.Time

			_, err := f.Open("SI-13C4:DI-DCCT:Current-Mon", func(_ float64, at time.Time) {
				got = append(got, at)
			})
			require.NoError(t, err)

			client.emit("SI-13C4:DI-DCCT:Current-Mon", payload)

			require.Len(t, got, 1)
			require.True(t, tc.want.Equal(got[0]), "got %s", got[0])
		})
	}
}
