package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/shorty/internal/app/model"
	apprepository "github.com/sifan077/shorty/internal/app/repository"
	"go.uber.org/zap"
)

var errMalformedEvent = errors.New("malformed visit event")

const (
	fetchBatch   = 10
	fetchMaxWait = 5 * time.Second

	defaultFetchRetryDelay = time.Second
	maxFetchRetryDelay     = 30 * time.Second
)

// pullSubscription is the part of *nats.Subscription the consume loop uses.
type pullSubscription interface {
	Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error)
	Unsubscribe() error
}

// VisitConsumer consumes visit events from NATS JetStream and stores them.
type VisitConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.VisitRepository
	done   chan struct{}

	// retryDelay is the first pause after a failed fetch; it doubles up to
	// maxFetchRetryDelay while fetches keep failing.
	retryDelay time.Duration
}

// NewVisitConsumer creates a new visit event consumer.
func NewVisitConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.VisitRepository) *VisitConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitConsumer{
		js:         js,
		logger:     logger,
		repo:       repo,
		done:       make(chan struct{}),
		retryDelay: defaultFetchRetryDelay,
	}
}

// Start makes sure the stream and durable consumer exist, then consumes in
// the background until ctx is cancelled.
func (c *VisitConsumer) Start(ctx context.Context) error {
	// Create stream if not exists
	if _, err := c.js.StreamInfo(model.VisitStreamName); err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.VisitStreamName,
			Subjects: []string{model.VisitStreamSubject},
			MaxBytes: model.VisitStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	// Create consumer if not exists
	if _, err := c.js.ConsumerInfo(model.VisitStreamName, model.VisitConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.VisitStreamName, &nats.ConsumerConfig{
			Durable:   model.VisitConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.VisitStreamSubject, model.VisitConsumerName,
		nats.Bind(model.VisitStreamName, model.VisitConsumerName))
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(ctx, sub)
	return nil
}

// Done is closed once the consume loop has exited.
func (c *VisitConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *VisitConsumer) consume(ctx context.Context, sub pullSubscription) {
	defer close(c.done)
	defer func() { _ = sub.Unsubscribe() }()

	delay := c.retryDelay
	for {
		if ctx.Err() != nil {
			c.logger.Info("visit consumer stopped")
			return
		}

		msgs, err := sub.Fetch(fetchBatch, nats.MaxWait(fetchMaxWait))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			c.logger.Error("failed to fetch visit events", zap.Error(err), zap.Duration("retry_in", delay))
			if !sleepCtx(ctx, delay) {
				c.logger.Info("visit consumer stopped")
				return
			}
			delay = min(delay*2, maxFetchRetryDelay)
			continue
		}
		delay = c.retryDelay

		for _, msg := range msgs {
			switch err := c.store(ctx, msg.Data); {
			case err == nil:
				_ = msg.Ack()
			case errors.Is(err, errMalformedEvent):
				c.logger.Error("dropping visit event", zap.Error(err))
				_ = msg.Term()
			default:
				c.logger.Error("failed to store visit event", zap.Error(err))
				_ = msg.Nak()
			}
		}
	}
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *VisitConsumer) store(ctx context.Context, data []byte) error {
	var event model.VisitEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: %w", errMalformedEvent, err)
	}
	if event.ID == "" || event.ShortCode == "" {
		return fmt.Errorf("%w: missing id or short code", errMalformedEvent)
	}

	if err := c.repo.Create(ctx, &event); err != nil {
		return fmt.Errorf("store visit %s: %w", event.ID, err)
	}

	c.logger.Debug("visit event stored",
		zap.String("id", event.ID),
		zap.String("code", event.ShortCode),
		zap.String("ip", event.IP),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}
