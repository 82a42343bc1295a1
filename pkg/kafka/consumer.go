package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerRetries is the number of handler attempts before a message is
// committed and skipped.
const maxHandlerRetries = 3

var (
	// retryBackoff is the base delay between handler attempts.
	retryBackoff = 100 * time.Millisecond
	// fetchBackoff is the pause after a failed fetch.
	fetchBackoff = 500 * time.Millisecond
)

// Handler is a function that processes a Kafka event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// messageReader is the subset of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer wraps the kafka-go reader for consuming events.
type Consumer struct {
	reader    messageReader
	topic     string
	group     string
	logger    *slog.Logger
	handler   Handler
	closeOnce sync.Once
}

// NewConsumer creates a new Kafka consumer for a specific topic and group.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return newConsumer(r, cfg.Topic, cfg.GroupID, handler, logger)
}

func newConsumer(r messageReader, topic, group string, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		reader:  r,
		topic:   topic,
		group:   group,
		logger:  logger,
		handler: handler,
	}
}

// Topic returns the topic the consumer reads.
func (c *Consumer) Topic() string {
	return c.topic
}

// Start consumes until ctx is canceled, then closes the reader. Fetch errors
// are logged and retried after fetchBackoff.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.topic),
		slog.String("group", c.group),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		switch {
		case ctx.Err() != nil:
			c.logger.Info("consumer stopping", slog.String("topic", c.topic))
			return c.Close()
		case err != nil:
			c.logger.Error("failed to fetch message",
				slog.String("topic", c.topic),
				slog.String("error", err.Error()),
			)
			sleep(ctx, fetchBackoff)
			continue
		}
		recordFetched(c.topic, c.group)

		if !c.process(ctx, msg) {
			return c.Close()
		}
	}
}

// process handles one message and commits it, including malformed and
// poison messages so the partition keeps moving. It returns false when ctx
// was canceled between attempts; the message is then left uncommitted.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		recordHandled(c.topic, c.group, resultMalformed, 0)
		c.logger.Error("failed to unmarshal event",
			append(position(msg), slog.String("error", err.Error()))...,
		)
		c.commit(ctx, msg, "malformed")
		return true
	}

	msgCtx := extractTrace(ctx, &msg)
	start := time.Now()
	completed, err := c.handle(ctx, msgCtx, msg, event)
	if !completed {
		return false
	}
	took := time.Since(start)

	if err != nil {
		recordHandled(c.topic, c.group, resultFailed, took)
		c.logger.ErrorContext(msgCtx, "handler failed after all retries, skipping poison message",
			append(describe(msg, event),
				slog.String("error", err.Error()),
				slog.Int("retries", maxHandlerRetries),
			)...,
		)
		c.commit(ctx, msg, "poison")
		return true
	}

	recordHandled(c.topic, c.group, resultProcessed, took)
	c.commit(ctx, msg, "")
	return true
}

// handle runs the handler up to maxHandlerRetries times with linear backoff.
// completed is false when ctx ended during a backoff.
func (c *Consumer) handle(ctx, msgCtx context.Context, msg kafka.Message, event *Event) (completed bool, err error) {
	for attempt := 1; ; attempt++ {
		if err = c.handler(msgCtx, event); err == nil {
			return true, nil
		}
		c.logger.WarnContext(msgCtx, "handler failed, will retry",
			append(describe(msg, event),
				slog.String("error", err.Error()),
				slog.Int("attempt", attempt),
				slog.Int("max_retries", maxHandlerRetries),
			)...,
		)
		if attempt == maxHandlerRetries {
			return true, err
		}
		if !sleep(ctx, time.Duration(attempt)*retryBackoff) {
			return false, err
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message, kind string) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		text := "failed to commit message"
		if kind != "" {
			text = "failed to commit " + kind + " message"
		}
		c.logger.Error(text, append(position(msg), slog.String("error", err.Error()))...)
	}
}

// Close closes the consumer. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

func position(msg kafka.Message) []any {
	return []any{
		slog.String("topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	}
}

func describe(msg kafka.Message, event *Event) []any {
	return append(position(msg),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID),
	)
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
