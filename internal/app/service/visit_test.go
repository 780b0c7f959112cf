package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/shorty/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJetStream struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeJetStream) Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	f.subject = subj
	f.data = data
	if f.err != nil {
		return nil, f.err
	}
	return &nats.PubAck{Stream: model.VisitStreamName, Sequence: 1}, nil
}

func TestNATSVisitPublisher_Publish(t *testing.T) {
	js := &fakeJetStream{}
	pub := NewNATSVisitPublisher(js)

	event := &model.VisitEvent{ShortCode: "ab12cd34", IP: "127.0.0.1"}
	require.NoError(t, pub.Publish(context.Background(), event))

	assert.Equal(t, model.VisitStreamSubject, js.subject)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	var decoded model.VisitEvent
	require.NoError(t, json.Unmarshal(js.data, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "ab12cd34", decoded.ShortCode)
}

func TestNATSVisitPublisher_PublishError(t *testing.T) {
	pub := NewNATSVisitPublisher(&fakeJetStream{err: nats.ErrNoResponders})
	assert.ErrorIs(t, pub.Publish(context.Background(), &model.VisitEvent{ShortCode: "x"}), nats.ErrNoResponders)
}

func TestVisitConsumer_Store(t *testing.T) {
	var stored *model.VisitEvent
	repo := &mockVisitRepository{
		createFn: func(ctx context.Context, event *model.VisitEvent) error {
			stored = event
			return nil
		},
	}
	c := NewVisitConsumer(nil, nil, repo)

	data, err := json.Marshal(model.VisitEvent{ID: "id-1", ShortCode: "ab12cd34", Timestamp: time.Now()})
	require.NoError(t, err)

	require.NoError(t, c.store(context.Background(), data))
	require.NotNil(t, stored)
	assert.Equal(t, "id-1", stored.ID)
}

func TestVisitConsumer_StoreRejectsMalformed(t *testing.T) {
	c := NewVisitConsumer(nil, nil, &mockVisitRepository{})

	assert.ErrorIs(t, c.store(context.Background(), []byte("{not json")), errMalformedEvent)
	assert.ErrorIs(t, c.store(context.Background(), []byte(`{"id":"x"}`)), errMalformedEvent)
}

func TestVisitConsumer_StoreRepositoryError(t *testing.T) {
	repo := &mockVisitRepository{
		createFn: func(ctx context.Context, event *model.VisitEvent) error {
			return errors.New("db down")
		},
	}
	c := NewVisitConsumer(nil, nil, repo)

	err := c.store(context.Background(), []byte(`{"id":"x","short_code":"ab12cd34"}`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errMalformedEvent)
}

type brokenSubscription struct {
	fetches      atomic.Int32
	unsubscribed atomic.Bool
}

func (s *brokenSubscription) Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error) {
	s.fetches.Add(1)
	return nil, nats.ErrConnectionClosed
}

func (s *brokenSubscription) Unsubscribe() error {
	s.unsubscribed.Store(true)
	return nil
}

func TestVisitConsumer_BacksOffOnFetchErrors(t *testing.T) {
	c := NewVisitConsumer(nil, nil, &mockVisitRepository{})
	c.retryDelay = 20 * time.Millisecond
	sub := &brokenSubscription{}

	ctx, cancel := context.WithCancel(context.Background())
	go c.consume(ctx, sub)

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancel")
	}

	// Delays of 20, 40 and 80ms allow only a handful of fetches in 150ms.
	fetches := sub.fetches.Load()
	assert.GreaterOrEqual(t, fetches, int32(2))
	assert.LessOrEqual(t, fetches, int32(5))
	assert.True(t, sub.unsubscribed.Load())
}
