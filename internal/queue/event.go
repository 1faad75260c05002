// Package queue defines the event envelope exchanged over the message
// broker together with the RabbitMQ and Kafka publishers and the RabbitMQ
// report consumer.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is bumped when the envelope layout changes.
const EnvelopeVersion = 1

// Envelope wraps every event published by the service.  Consumers switch
// on EventType and decode Payload into the matching type.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually the reservation id
	Payload       json.RawMessage `json:"payload"`
}

// correlated is implemented by payloads that know their correlation id.
type correlated interface {
	CorrelationKey() string
}

// NewEnvelope marshals payload and wraps it with a fresh event id.
func NewEnvelope(eventType, producer string, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: EnvelopeVersion,
		OccurredAt:   time.Now().UTC(),
		Producer:     producer,
		Payload:      body,
	}
	if c, ok := payload.(correlated); ok {
		env.CorrelationID = c.CorrelationKey()
	}
	return env, nil
}

// UnwrapPayload decodes the payload of an envelope into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
