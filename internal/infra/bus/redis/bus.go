package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository"
)

// RedisBus implements the cross-instance sync bus on Redis pub/sub.
// Each panel has its own channel (<prefix>panel:<CODE>); the process-wide
// subscription is a single PSUBSCRIBE on <prefix>panel:*. Redis pub/sub
// gives best-effort delivery only, which is the contract here: clients
// repair missed events by re-fetching the post list.
type RedisBus struct {
	client    *redis.Client
	keyPrefix string

	mu     sync.Mutex
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisBus(client *redis.Client, keyPrefix string) *RedisBus {
	if client == nil {
		panic("redis client cannot be nil for RedisBus")
	}
	if keyPrefix == "" {
		keyPrefix = "sn:"
	}
	return &RedisBus{client: client, keyPrefix: keyPrefix}
}

func (b *RedisBus) channel(panelCode string) string {
	return fmt.Sprintf("%spanel:%s", b.keyPrefix, panelCode)
}

func (b *RedisBus) Publish(ctx context.Context, panelCode string, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("bus: marshal event for panel '%s': %w", panelCode, err)
	}
	if err := b.client.Publish(ctx, b.channel(panelCode), payload).Err(); err != nil {
		return fmt.Errorf("bus: publish to panel '%s': %w", panelCode, err)
	}
	return nil
}

// SubscribeAll starts the wildcard subscription and pumps messages to the
// handler from a dedicated goroutine until Close is called. Only one
// subscription may be active per bus instance.
func (b *RedisBus) SubscribeAll(handler repository.EventHandler) error {
	if handler == nil {
		panic("handler cannot be nil for RedisBus.SubscribeAll")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub != nil {
		return fmt.Errorf("bus: SubscribeAll called twice")
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.PSubscribe(ctx, b.channel("*"))
	b.pubsub = pubsub
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.pump(pubsub, handler)
	return nil
}

func (b *RedisBus) pump(pubsub *redis.PubSub, handler repository.EventHandler) {
	log := logrus.WithField("component", "sync_bus")
	defer close(b.done)

	prefix := b.channel("")
	for msg := range pubsub.Channel() {
		code := strings.TrimPrefix(msg.Channel, prefix)
		var event domain.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.WithError(err).WithField("channel", msg.Channel).Warn("Dropping undecodable bus message")
			continue
		}
		handler(code, event)
	}
	log.Info("Bus subscription loop exited")
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub == nil {
		return nil
	}
	b.cancel()
	err := b.pubsub.Close()
	<-b.done
	b.pubsub = nil
	return err
}
