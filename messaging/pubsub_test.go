package messaging

import (
	"io"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeMQTTClient struct {
	connected     bool
	subscriptions []string
	published     []fakePublished
}

type fakePublished struct {
	topic   string
	payload []byte
}

func (c *fakeMQTTClient) IsConnected() bool      { return c.connected }
func (c *fakeMQTTClient) IsConnectionOpen() bool { return c.connected }
func (c *fakeMQTTClient) Connect() mqtt.Token {
	c.connected = true
	return &fakeToken{}
}
func (c *fakeMQTTClient) Disconnect(quiesce uint) { c.connected = false }

func (c *fakeMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, fakePublished{topic, payload.([]byte)})
	return &fakeToken{}
}

func (c *fakeMQTTClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.subscriptions = append(c.subscriptions, topic)
	return &fakeToken{}
}

func (c *fakeMQTTClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	for topic := range filters {
		c.subscriptions = append(c.subscriptions, topic)
	}
	return &fakeToken{}
}

func (c *fakeMQTTClient) Unsubscribe(topics ...string) mqtt.Token             { return &fakeToken{} }
func (c *fakeMQTTClient) AddRoute(topic string, callback mqtt.MessageHandler) {}
func (c *fakeMQTTClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func newTestPubSub() (*PubSubClient, *fakeMQTTClient) {
	fake := &fakeMQTTClient{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newPubSubClientWith(fake, logger), fake
}

func TestPubSubDispatch(t *testing.T) {
	t.Run("routes by topic filter", func(t *testing.T) {
		c, _ := newTestPubSub()

		var gotTopic string
		var gotPayload []byte
		c.Subscribe("robots/+/heartbeat", func(topic string, payload []byte) {
			gotTopic = topic
			gotPayload = payload
		})

		c.dispatch(nil, &fakeMessage{topic: "robots/r1/heartbeat", payload: []byte(`{"status":"online"}`)})

		if gotTopic != "robots/r1/heartbeat" {
			t.Errorf("topic = %q", gotTopic)
		}
		if string(gotPayload) != `{"status":"online"}` {
			t.Errorf("payload = %s", gotPayload)
		}
	})

	t.Run("non-matching topic is ignored", func(t *testing.T) {
		c, _ := newTestPubSub()

		called := false
		c.Subscribe("robots/+/heartbeat", func(string, []byte) { called = true })

		c.dispatch(nil, &fakeMessage{topic: "robots/r1/telemetry", payload: []byte(`{}`)})
		if called {
			t.Error("handler must not fire for a non-matching topic")
		}
	})

	t.Run("malformed JSON is dropped before handlers", func(t *testing.T) {
		c, _ := newTestPubSub()

		called := false
		c.Subscribe("robots/+/heartbeat", func(string, []byte) { called = true })

		c.dispatch(nil, &fakeMessage{topic: "robots/r1/heartbeat", payload: []byte(`{"status":`)})
		if called {
			t.Error("handler must not see invalid JSON")
		}
	})

	t.Run("panicking handler does not stop the others", func(t *testing.T) {
		c, _ := newTestPubSub()

		secondRan := false
		c.Subscribe("robots/+/heartbeat", func(string, []byte) { panic("boom") })
		c.Subscribe("robots/+/heartbeat", func(string, []byte) { secondRan = true })

		c.dispatch(nil, &fakeMessage{topic: "robots/r1/heartbeat", payload: []byte(`{}`)})
		if !secondRan {
			t.Error("second handler should run after the first panics")
		}
	})

	t.Run("stopped client dispatches nothing", func(t *testing.T) {
		c, _ := newTestPubSub()

		called := false
		c.Subscribe("robots/+/heartbeat", func(string, []byte) { called = true })
		c.Stop()

		c.dispatch(nil, &fakeMessage{topic: "robots/r1/heartbeat", payload: []byte(`{}`)})
		if called {
			t.Error("no dispatch after Stop")
		}
	})
}

func TestPubSubResubscribeOnReconnect(t *testing.T) {
	c, fake := newTestPubSub()

	c.Subscribe("robots/+/heartbeat", func(string, []byte) {})
	c.Subscribe("robots/+/step", func(string, []byte) {})

	// Simulate the broker coming back: the connect callback must restore
	// every registered subscription.
	fake.connected = true
	c.onConnect(fake)

	if len(fake.subscriptions) != 2 {
		t.Fatalf("got %d subscriptions, want 2", len(fake.subscriptions))
	}
	if fake.subscriptions[0] != "robots/+/heartbeat" || fake.subscriptions[1] != "robots/+/step" {
		t.Errorf("subscriptions restored out of order: %v", fake.subscriptions)
	}
}

func TestPubSubDeliveryAfterReconnect(t *testing.T) {
	c, fake := newTestPubSub()

	delivered := 0
	c.Subscribe("robots/+/heartbeat", func(string, []byte) { delivered++ })

	// Connection drops and comes back.
	fake.connected = false
	c.onConnectionLost(fake, io.EOF)
	fake.connected = true
	c.onConnect(fake)

	c.dispatch(nil, &fakeMessage{topic: "robots/r1/heartbeat", payload: []byte(`{}`)})
	if delivered != 1 {
		t.Errorf("handler ran %d times after reconnect, want 1", delivered)
	}
}

func TestPubSubPublish(t *testing.T) {
	t.Run("fails fast while disconnected", func(t *testing.T) {
		c, _ := newTestPubSub()
		if err := c.Publish("robots/r1/heartbeat/ack", map[string]bool{"ok": true}); err == nil {
			t.Error("expected an error while disconnected")
		}
	})

	t.Run("marshals and publishes when connected", func(t *testing.T) {
		c, fake := newTestPubSub()
		fake.connected = true

		if err := c.Publish("robots/r1/heartbeat/ack", map[string]bool{"ok": true}); err != nil {
			t.Fatal(err)
		}
		if len(fake.published) != 1 {
			t.Fatalf("got %d published messages", len(fake.published))
		}
		if fake.published[0].topic != "robots/r1/heartbeat/ack" {
			t.Errorf("topic = %s", fake.published[0].topic)
		}
		if string(fake.published[0].payload) != `{"ok":true}` {
			t.Errorf("payload = %s", fake.published[0].payload)
		}
	})
}
