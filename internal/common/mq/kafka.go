package mq

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

// Delivery metadata travels in these headers; everything else in
// Message.Headers is passed through untouched.
const (
	headerID         = "x-message-id"
	headerTimestamp  = "x-message-ts"
	headerRetryCount = "x-message-retry"
	headerMaxRetries = "x-message-max-retries"

	fetchBackoff = 100 * time.Millisecond
)

// KafkaConfig is shared by the producer and every consumer of one queue.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	ClientID     string        `yaml:"clientID"`
	BatchSize    int           `yaml:"batchSize"`
	BatchTimeout time.Duration `yaml:"batchTimeout"`
	MinBytes     int           `yaml:"minBytes"`
	MaxBytes     int           `yaml:"maxBytes"`
	MaxWait      time.Duration `yaml:"maxWait"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
}

// WithDefaults fills zero producer and consumer settings.
func (c KafkaConfig) WithDefaults() KafkaConfig {
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 50 * time.Millisecond
	}
	if c.MinBytes == 0 {
		c.MinBytes = 1
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = 10 << 20
	}
	if c.MaxWait == 0 {
		c.MaxWait = time.Second
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	return c
}

// KafkaQueue implements MessageQueue on segmentio/kafka-go. Each subscription
// owns a group reader; a handler error is retried in place before the offset is
// committed, so a crash mid-retry redelivers to the group.
type KafkaQueue struct {
	cfg    KafkaConfig
	writer *kafka.Writer
	dialer *kafka.Dialer

	mu      sync.Mutex
	subs    []*kafkaSubscription
	running bool
	closed  bool
}

type kafkaSubscription struct {
	topic   string
	handler HandlerFunc
	opts    SubscribeOptions
	parent  context.Context

	cancel context.CancelFunc
	group  *errgroup.Group
	reader *kafka.Reader
}

var _ MessageQueue = (*KafkaQueue)(nil)

func NewKafkaQueue(cfg KafkaConfig) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	cfg = cfg.WithDefaults()

	dialer := &kafka.Dialer{ClientID: cfg.ClientID, Timeout: cfg.DialTimeout, DualStack: true}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				return dialer.DialContext(ctx, network, address)
			},
		},
	}
	return &KafkaQueue{cfg: cfg, writer: writer, dialer: dialer}, nil
}

// Publish writes message keyed by its id, so retries of one job land on one partition.
func (k *KafkaQueue) Publish(ctx context.Context, topic string, message *Message) error {
	switch {
	case message == nil:
		return errors.New("message is nil")
	case topic == "":
		return errors.New("topic is required")
	}
	return k.writer.WriteMessages(ctx, toKafkaMessage(topic, message))
}

// Subscribe registers handler. Consumption begins on Start, or immediately when
// the queue is already running.
func (k *KafkaQueue) Subscribe(ctx context.Context, topic string, handler HandlerFunc, opts *SubscribeOptions) error {
	if topic == "" || handler == nil {
		return errors.New("topic and handler are required")
	}
	var options SubscribeOptions
	if opts != nil {
		options = *opts
	}
	options.SetDefaults()
	if options.ConsumerGroup == "" {
		options.ConsumerGroup = "mockinterview-" + topic
	}
	if ctx == nil {
		ctx = context.Background()
	}
	sub := &kafkaSubscription{topic: topic, handler: handler, opts: options, parent: ctx}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errors.New("message queue is closed")
	}
	k.subs = append(k.subs, sub)
	if k.running {
		k.run(sub)
	}
	return nil
}

func (k *KafkaQueue) Start() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errors.New("message queue is closed")
	}
	if !k.running {
		for _, sub := range k.subs {
			k.run(sub)
		}
		k.running = true
	}
	return nil
}

// Stop cancels every consumer and waits for in-flight handlers.
func (k *KafkaQueue) Stop() error {
	k.mu.Lock()
	subs := k.subs
	k.running = false
	k.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if sub.cancel == nil {
			continue
		}
		sub.cancel()
		_ = sub.group.Wait()
		if err := sub.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reader for %s: %w", sub.topic, err))
		}
		sub.cancel, sub.group, sub.reader = nil, nil, nil
	}
	return errors.Join(errs...)
}

// Ping dials the first broker.
func (k *KafkaQueue) Ping(ctx context.Context) error {
	conn, err := k.dialer.DialContext(ctx, "tcp", k.cfg.Brokers[0])
	if err != nil {
		return err
	}
	return conn.Close()
}

func (k *KafkaQueue) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	k.mu.Unlock()

	return errors.Join(k.Stop(), k.writer.Close())
}

// run starts one fetch loop and opts.Concurrency handlers. Callers hold k.mu.
func (k *KafkaQueue) run(sub *kafkaSubscription) {
	sub.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     k.cfg.Brokers,
		Topic:       sub.topic,
		GroupID:     sub.opts.ConsumerGroup,
		MinBytes:    k.cfg.MinBytes,
		MaxBytes:    k.cfg.MaxBytes,
		MaxWait:     k.cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
		Dialer:      k.dialer,
	})
	ctx, cancel := context.WithCancel(sub.parent)
	sub.cancel = cancel
	sub.group, ctx = errgroup.WithContext(ctx)

	fetched := make(chan kafka.Message, sub.opts.Concurrency)
	reader := sub.reader
	sub.group.Go(func() error {
		defer close(fetched)
		for {
			msg, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(fetchBackoff):
				}
				continue
			}
			select {
			case fetched <- msg:
			case <-ctx.Done():
				return nil
			}
		}
	})
	for i := 0; i < sub.opts.Concurrency; i++ {
		sub.group.Go(func() error {
			for msg := range fetched {
				k.handle(ctx, sub, reader, msg)
			}
			return nil
		})
	}
}

func (k *KafkaQueue) handle(ctx context.Context, sub *kafkaSubscription, reader *kafka.Reader, msg kafka.Message) {
	deliver(ctx, sub.handler, fromKafkaMessage(msg), sub.opts, func(dead *Message) {
		_ = k.Publish(ctx, sub.opts.DeadLetterTopic, dead)
	})
	if ctx.Err() != nil {
		// Uncommitted on shutdown; the group redelivers after restart.
		return
	}
	_ = reader.CommitMessages(ctx, msg)
}

func toKafkaMessage(topic string, m *Message) kafka.Message {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	meta := map[string]string{headerTimestamp: m.Timestamp.Format(time.RFC3339Nano)}
	if m.ID != "" {
		meta[headerID] = m.ID
	}
	if m.RetryCount != 0 {
		meta[headerRetryCount] = strconv.Itoa(m.RetryCount)
	}
	if m.MaxRetries != 0 {
		meta[headerMaxRetries] = strconv.Itoa(m.MaxRetries)
	}

	headers := make([]kafka.Header, 0, len(m.Headers)+len(meta))
	for _, set := range []map[string]string{m.Headers, meta} {
		for key, value := range set {
			headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
		}
	}
	return kafka.Message{Topic: topic, Key: []byte(m.ID), Value: m.Body, Headers: headers, Time: m.Timestamp}
}

func fromKafkaMessage(msg kafka.Message) *Message {
	m := &Message{Body: msg.Value, Headers: make(map[string]string), Timestamp: msg.Time}
	atoi := func(b []byte) int {
		n, err := strconv.Atoi(string(b))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	for _, h := range msg.Headers {
		switch h.Key {
		case headerID:
			m.ID = string(h.Value)
		case headerTimestamp:
			if ts, err := time.Parse(time.RFC3339Nano, string(h.Value)); err == nil {
				m.Timestamp = ts
			}
		case headerRetryCount:
			m.RetryCount = atoi(h.Value)
		case headerMaxRetries:
			m.MaxRetries = atoi(h.Value)
		default:
			m.Headers[h.Key] = string(h.Value)
		}
	}
	if m.ID == "" {
		m.ID = string(msg.Key)
	}
	return m
}
