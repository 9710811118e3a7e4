package mq

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestKafkaMessageHeadersRoundTrip(t *testing.T) {
	in := NewMessage("job-1", []byte(`{"userId":1}`))
	in.SetHeader("kind", "resume-analysis")
	in.RetryCount = 2
	in.MaxRetries = 5

	km := toKafkaMessage("analysis", in)
	if km.Topic != "analysis" || string(km.Key) != "job-1" {
		t.Fatalf("unexpected kafka message: topic=%s key=%s", km.Topic, km.Key)
	}

	out := fromKafkaMessage(kafka.Message{Key: km.Key, Value: km.Value, Headers: km.Headers, Time: km.Time})
	if out.ID != "job-1" || string(out.Body) != `{"userId":1}` {
		t.Fatalf("unexpected message: %+v", out)
	}
	if v, _ := out.GetHeader("kind"); v != "resume-analysis" {
		t.Fatalf("kind header = %q", v)
	}
	if out.RetryCount != 2 || out.MaxRetries != 5 {
		t.Fatalf("retry info lost: %d/%d", out.RetryCount, out.MaxRetries)
	}
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", out.Timestamp, in.Timestamp)
	}
}

func TestMemoryQueueDeliversAndRetries(t *testing.T) {
	q := NewMemoryQueue(4)
	defer q.Close()

	var attempts atomic.Int32
	done := make(chan string, 1)
	err := q.Subscribe(context.Background(), "jobs", func(ctx context.Context, m *Message) error {
		if attempts.Add(1) < 2 {
			return errors.New("transient")
		}
		done <- m.ID
		return nil
	}, &SubscribeOptions{RetryDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := q.Publish(context.Background(), "jobs", NewMessage("a", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := q.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case id := <-done:
		if id != "a" {
			t.Fatalf("id = %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
	if attempts.Load() != 2 {
		t.Fatalf("attempts = %d", attempts.Load())
	}
}

func TestMemoryQueueDeadLetter(t *testing.T) {
	q := NewMemoryQueue(4)
	defer q.Close()

	dead := make(chan *Message, 1)
	_ = q.Subscribe(context.Background(), "jobs", func(context.Context, *Message) error {
		return errors.New("permanent")
	}, &SubscribeOptions{MaxRetries: 1, RetryDelay: time.Millisecond, DeadLetterTopic: "jobs.dlq"})
	_ = q.Subscribe(context.Background(), "jobs.dlq", func(_ context.Context, m *Message) error {
		dead <- m
		return nil
	}, nil)
	_ = q.Start()
	_ = q.Publish(context.Background(), "jobs", NewMessage("b", nil))

	select {
	case m := <-dead:
		if m.ID != "b" || m.RetryCount != 2 {
			t.Fatalf("dead letter = %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message was not dead-lettered")
	}
}

func TestKafkaConfigDefaults(t *testing.T) {
	cfg := KafkaConfig{Brokers: []string{"127.0.0.1:9092"}, BatchSize: 10}.WithDefaults()
	if cfg.BatchSize != 10 {
		t.Fatalf("explicit batch size overwritten: %d", cfg.BatchSize)
	}
	if cfg.MaxBytes != 10<<20 || cfg.MaxWait != time.Second || cfg.DialTimeout != 10*time.Second {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if _, err := NewKafkaQueue(KafkaConfig{}); err == nil {
		t.Fatal("missing brokers must fail")
	}
}

func TestKafkaSubscribeBeforeStart(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"127.0.0.1:1"}})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	noop := func(context.Context, *Message) error { return nil }
	if err := q.Subscribe(context.Background(), "", noop, nil); err == nil {
		t.Fatal("empty topic must fail")
	}
	if err := q.Subscribe(context.Background(), "analysis", noop, nil); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if got := q.subs[0].opts.ConsumerGroup; got != "mockinterview-analysis" {
		t.Fatalf("group = %q", got)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Subscribe(context.Background(), "analysis", noop, nil); err == nil {
		t.Fatal("subscribe after close must fail")
	}
}
