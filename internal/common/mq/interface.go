package mq

import (
	"context"
	"time"
)

// MessageQueue is a topic-based queue with at-least-once delivery.
type MessageQueue interface {
	Producer
	Consumer

	Ping(ctx context.Context) error
	Close() error
}

// Producer publishes messages.
type Producer interface {
	Publish(ctx context.Context, topic string, message *Message) error
}

// Consumer delivers messages of subscribed topics to handlers once started.
type Consumer interface {
	// Subscribe registers handler for topic; a handler error triggers redelivery
	// until MaxRetries is exhausted.
	Subscribe(ctx context.Context, topic string, handler HandlerFunc, opts *SubscribeOptions) error

	Start() error
	Stop() error
}

// Message represents a message in the queue
type Message struct {
	ID         string            `json:"id"`
	Body       []byte            `json:"body"`
	Headers    map[string]string `json:"headers"`
	Timestamp  time.Time         `json:"timestamp"`
	RetryCount int               `json:"retry_count"`
	MaxRetries int               `json:"max_retries"`
}

// HandlerFunc processes one message.
type HandlerFunc func(ctx context.Context, message *Message) error

// SubscribeOptions defines options for subscribing to a topic
type SubscribeOptions struct {
	// ConsumerGroup is the Kafka consumer group name
	ConsumerGroup string

	// Concurrency sets the number of concurrent workers. Default: 1
	Concurrency int

	// MaxRetries sets the maximum number of redeliveries for failed messages. Default: 3
	MaxRetries int

	// RetryDelay sets the delay between redeliveries. Default: 1 second
	RetryDelay time.Duration

	// DeadLetterTopic receives messages after max retries
	DeadLetterTopic string
}

// SetDefaults sets default values for subscribe options
func (o *SubscribeOptions) SetDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = time.Second
	}
}

// NewMessage creates a new message with the given id and body
func NewMessage(id string, body []byte) *Message {
	return &Message{
		ID:        id,
		Body:      body,
		Headers:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// SetHeader sets a header value
func (m *Message) SetHeader(key, value string) {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[key] = value
}

// GetHeader retrieves a header value
func (m *Message) GetHeader(key string) (string, bool) {
	if m.Headers == nil {
		return "", false
	}
	val, ok := m.Headers[key]
	return val, ok
}

// deliver runs handler with the redelivery policy shared by queue implementations.
// It reports whether the message was handled, false meaning it was dead-lettered or dropped.
func deliver(ctx context.Context, handler HandlerFunc, m *Message, opts SubscribeOptions, deadLetter func(*Message)) bool {
	if m.MaxRetries == 0 {
		m.MaxRetries = opts.MaxRetries
	}
	for {
		if err := handler(ctx, m); err == nil {
			return true
		}
		m.RetryCount++
		if m.RetryCount > m.MaxRetries {
			if deadLetter != nil && opts.DeadLetterTopic != "" {
				deadLetter(m)
			}
			return false
		}
		timer := time.NewTimer(opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}
