package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/shorty/internal/app/model"
)

// VisitPublisher hands visit events to the event pipeline.
type VisitPublisher interface {
	Publish(ctx context.Context, event *model.VisitEvent) error
}

// JetStreamPublisher is the part of nats.JetStreamContext used for publishing.
type JetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSVisitPublisher publishes visit events to NATS JetStream.
type NATSVisitPublisher struct {
	js JetStreamPublisher
}

// NewNATSVisitPublisher creates a new visit event publisher.
func NewNATSVisitPublisher(js JetStreamPublisher) *NATSVisitPublisher {
	return &NATSVisitPublisher{js: js}
}

// Publish fills in ID and timestamp when missing and publishes the event.
// The ID doubles as the JetStream message id so retries are de-duplicated.
func (p *NATSVisitPublisher) Publish(ctx context.Context, event *model.VisitEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.VisitStreamSubject, data, nats.Context(ctx), nats.MsgId(event.ID))
	return err
}
