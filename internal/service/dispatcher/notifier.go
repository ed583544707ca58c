package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/oshokin/pv-alarm/internal/domain/alarm"
)

// LogNotifier writes every event to the log.
type LogNotifier struct {
	// log receives the events.
	log *zap.SugaredLogger
}

// NewLogNotifier creates a notifier writing to log.
func NewLogNotifier(log *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Name implements Notifier.
func (n *LogNotifier) Name() string {
	return "log"
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, event domain.Event) error {
	n.log.Warnw("Alarm",
		"event_id", event.ID,
		"pvname", event.PVName,
		"value", event.ValueMeasured,
		"unit", event.Unit,
		"specified", event.SpecifiedValueMessage,
		"condition", event.ConditionName,
		"subject", event.Subject,
		"recipients", event.Recipients,
		"timestamp", event.Timestamp,
	)

	return nil
}

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MQTTNotifier publishes events as JSON.
type MQTTNotifier struct {
	// publisher is the broker connection.
	publisher Publisher
	// topic receives every event.
	topic string
}

// NewMQTTNotifier creates a notifier publishing to topic.
func NewMQTTNotifier(publisher Publisher, topic string) *MQTTNotifier {
	return &MQTTNotifier{
		publisher: publisher,
		topic:     topic,
	}
}

// Name implements Notifier.
func (n *MQTTNotifier) Name() string {
	return "mqtt"
}

// Notify implements Notifier.
func (n *MQTTNotifier) Notify(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err = n.publisher.Publish(n.topic, payload); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}

	return nil
}
