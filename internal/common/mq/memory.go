package mq

import (
	"context"
	"errors"
	"sync"
)

// MemoryQueue is an in-process MessageQueue for single-node deployments and tests.
// Messages published before Start are buffered up to the queue capacity.
type MemoryQueue struct {
	mu       sync.Mutex
	topics   map[string]chan *Message
	subs     []*memorySubscription
	capacity int
	started  bool
	closed   bool
}

type memorySubscription struct {
	topic   string
	handler HandlerFunc
	opts    SubscribeOptions
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ MessageQueue = (*MemoryQueue)(nil)

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &MemoryQueue{topics: make(map[string]chan *Message), capacity: capacity}
}

func (q *MemoryQueue) channel(topic string) chan *Message {
	ch, ok := q.topics[topic]
	if !ok {
		ch = make(chan *Message, q.capacity)
		q.topics[topic] = ch
	}
	return ch
}

func (q *MemoryQueue) Publish(ctx context.Context, topic string, message *Message) error {
	if message == nil {
		return errors.New("message is nil")
	}
	if topic == "" {
		return errors.New("topic is required")
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.New("message queue is closed")
	}
	ch := q.channel(topic)
	q.mu.Unlock()

	select {
	case ch <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Subscribe(ctx context.Context, topic string, handler HandlerFunc, opts *SubscribeOptions) error {
	if topic == "" {
		return errors.New("topic is required")
	}
	if handler == nil {
		return errors.New("handler is required")
	}
	var options SubscribeOptions
	if opts != nil {
		options = *opts
	}
	options.SetDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	sub := &memorySubscription{topic: topic, handler: handler, opts: options, baseCtx: ctx}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("message queue is closed")
	}
	q.subs = append(q.subs, sub)
	if q.started {
		q.startSubscription(sub)
	}
	return nil
}

func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("message queue is closed")
	}
	if q.started {
		return nil
	}
	for _, sub := range q.subs {
		q.startSubscription(sub)
	}
	q.started = true
	return nil
}

func (q *MemoryQueue) startSubscription(sub *memorySubscription) {
	ch := q.channel(sub.topic)
	ctx, cancel := context.WithCancel(sub.baseCtx)
	sub.cancel = cancel
	for i := 0; i < sub.opts.Concurrency; i++ {
		sub.wg.Add(1)
		go func() {
			defer sub.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case m := <-ch:
					deliver(ctx, sub.handler, m, sub.opts, func(dead *Message) {
						_ = q.Publish(ctx, sub.opts.DeadLetterTopic, dead)
					})
				}
			}
		}()
	}
}

func (q *MemoryQueue) Stop() error {
	q.mu.Lock()
	subs := append([]*memorySubscription(nil), q.subs...)
	q.started = false
	q.mu.Unlock()
	for _, sub := range subs {
		if sub.cancel != nil {
			sub.cancel()
		}
		sub.wg.Wait()
	}
	return nil
}

func (q *MemoryQueue) Ping(context.Context) error { return nil }

func (q *MemoryQueue) Close() error {
	_ = q.Stop()
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return nil
}
