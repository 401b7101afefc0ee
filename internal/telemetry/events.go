package telemetry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"account-service/internal/models"
	"account-service/internal/observability"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Broadcaster fans events out to live subscribers.
type Broadcaster interface {
	Broadcast(event models.Event)
}

// EventEmitter publishes domain events over AMQP and to websocket subscribers.
type EventEmitter struct {
	publisher   Publisher
	broadcaster Broadcaster
	service     string
	environment string
	log         logrus.FieldLogger
}

type EventEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	Payload       models.Event `json:"payload"`
}

func NewEventEmitter(publisher Publisher, broadcaster Broadcaster, service, environment string, log logrus.FieldLogger) *EventEmitter {
	return &EventEmitter{
		publisher:   publisher,
		broadcaster: broadcaster,
		service:     service,
		environment: environment,
		log:         log,
	}
}

// Emit delivers event. Publish failures are logged and counted, never
// returned: the mutation that produced the event has already committed.
func (e *EventEmitter) Emit(ctx context.Context, requestID string, event models.Event) {
	if e == nil {
		return
	}

	if e.broadcaster != nil {
		e.broadcaster.Broadcast(event)
	}
	if e.publisher == nil {
		return
	}

	envelope := EventEnvelope{
		SchemaVersion: 1,
		EventType:     event.Type,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		Payload:       event,
	}
	if err := e.publisher.Publish(ctx, event.Type, envelope); err != nil {
		observability.IncAMQPPublishError()
		if e.log != nil {
			e.log.WithFields(logrus.Fields{
				"event_type": event.Type,
				"request_id": requestID,
			}).WithError(err).Warn("event publish failed")
		}
	}
}
