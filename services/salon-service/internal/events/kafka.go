package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers    []string
	BufferSize int
}

// KafkaPublisher queues events in memory and writes them from a single
// goroutine started with Run. A full queue drops the event.
type KafkaPublisher struct {
	writer MessageWriter
	logger *slog.Logger
	queue  chan kafka.Message
	now    func() time.Time
	newID  func() string
}

func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  cfg.Brokers,
		Balancer: &kafka.Hash{},
	})
	return newKafkaPublisher(writer, cfg.BufferSize, logger)
}

func newKafkaPublisher(writer MessageWriter, buffer int, logger *slog.Logger) *KafkaPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &KafkaPublisher{
		writer: writer,
		logger: logger,
		queue:  make(chan kafka.Message, buffer),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) {
	msg, err := p.message(ctx, evt)
	if err != nil {
		p.logger.Error("event encode failed", "event_type", evt.Type, "err", err)
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.logger.Warn("event dropped, publish queue full", "event_type", evt.Type, "key", evt.Key)
	}
}

func (p *KafkaPublisher) message(ctx context.Context, evt Event) (kafka.Message, error) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = p.now().UTC()
	}
	payload, err := json.Marshal(envelope{
		EventType:  evt.Type,
		OccurredAt: evt.OccurredAt,
		Data:       evt.Payload,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	headers := kafkax.MetaHeaders(kafkax.EventMeta{EventID: p.newID(), EventType: evt.Type})
	return kafka.Message{
		Topic:   evt.Type,
		Key:     []byte(evt.Key),
		Value:   payload,
		Headers: kafkax.InjectTraceHeaders(ctx, headers),
	}, nil
}

type envelope struct {
	EventType  string    `json:"eventType"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Run drains the queue until ctx is done, then flushes what is left with a
// short grace period and closes the writer.
func (p *KafkaPublisher) Run(ctx context.Context) {
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.logger.Warn("kafka writer close failed", "err", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return
		case msg := <-p.queue:
			p.write(ctx, msg)
		}
	}
}

func (p *KafkaPublisher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case msg := <-p.queue:
			p.write(ctx, msg)
		default:
			return
		}
	}
}

func (p *KafkaPublisher) write(ctx context.Context, msg kafka.Message) {
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("event publish failed", "topic", msg.Topic, "key", string(msg.Key), "err", err)
	}
}
