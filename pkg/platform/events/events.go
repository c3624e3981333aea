// Package events publishes door decisions to Kafka so turnstile displays
// and downstream reporting can follow entries in near real time. Publishing
// is fire-and-forget: the door critical path never blocks on the broker.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// DoorEvent is the wire payload for one decided check-in.
type DoorEvent struct {
	CheckInID    uuid.UUID `json:"checkin_id"`
	MemberCardID string    `json:"member_card_id"`
	Granted      bool      `json:"granted"`
	Reason       *string   `json:"reason,omitempty"`
	At           time.Time `json:"at"`
}

const inboxSize = 256

// Publisher consumes door events from a channel and produces them to a
// Kafka topic. A nil Publisher is valid and drops everything, which is how
// deployments without brokers run.
type Publisher struct {
	client *kgo.Client
	topic  string
	inbox  chan DoorEvent
	logger *slog.Logger
}

// NewPublisher connects to the given brokers. It returns (nil, nil) when no
// brokers are configured.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		client: client,
		topic:  topic,
		inbox:  make(chan DoorEvent, inboxSize),
		logger: logger,
	}, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (p *Publisher) EnsureTopic(ctx context.Context) error {
	if p == nil {
		return nil
	}
	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopics(ctx, 1, 1, nil, p.topic)
	if err != nil {
		return err
	}
	for _, topicResp := range resp {
		if topicResp.Err != nil && topicResp.Err != kerr.TopicAlreadyExists {
			return topicResp.Err
		}
	}
	return nil
}

// Emit enqueues an event without blocking. When the inbox is full the event
// is dropped; door decisions must not wait on the broker.
func (p *Publisher) Emit(event DoorEvent) {
	if p == nil {
		return
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("door event dropped, inbox full",
			"checkin_id", event.CheckInID,
		)
	}
}

// Run drains the inbox and produces to Kafka until the context is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	if p == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.inbox:
			payload, err := json.Marshal(event)
			if err != nil {
				p.logger.Error("door event marshal failed", "error", err)
				continue
			}
			record := &kgo.Record{
				Topic: p.topic,
				Key:   []byte(event.MemberCardID),
				Value: payload,
			}
			p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
				if err != nil {
					p.logger.Error("door event produce failed",
						"checkin_id", event.CheckInID,
						"error", err,
					)
				}
			})
		}
	}
}

// Close flushes outstanding produces and releases the client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
