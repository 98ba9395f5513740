package realtime

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Broker carries published frames across processes. Every process feeds the
// frames it receives into its local hub; the broker is the single point of
// fan-out coordination between nodes.
type Broker interface {
	Publish(ctx context.Context, scope string, payload []byte) error
	Close() error
}

const channelPrefix = "fanout:"

// RedisBroker bridges scopes onto Redis pub/sub channels. One pattern
// subscription covers all scopes; received frames are replayed into the hub.
type RedisBroker struct {
	client *redis.Client
	hub    *Hub
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

func NewRedisBroker(client *redis.Client, hub *Hub) *RedisBroker {
	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisBroker{client: client, hub: hub, cancel: cancel}

	b.pubsub = client.PSubscribe(ctx, channelPrefix+"*")
	go b.receiveLoop(ctx)
	return b
}

func (b *RedisBroker) Publish(ctx context.Context, scope string, payload []byte) error {
	return b.client.Publish(ctx, channelPrefix+scope, payload).Err()
}

func (b *RedisBroker) receiveLoop(ctx context.Context) {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			scope := strings.TrimPrefix(msg.Channel, channelPrefix)
			b.hub.Broadcast(scope, []byte(msg.Payload))
		}
	}
}

func (b *RedisBroker) Close() error {
	b.cancel()
	if err := b.pubsub.Close(); err != nil {
		log.Printf("Error closing pubsub: %v", err)
	}
	return nil
}

// MemoryBroker short-circuits publishes into the local hub. Used when the
// deployment is a single process and in tests.
type MemoryBroker struct {
	hub *Hub
}

func NewMemoryBroker(hub *Hub) *MemoryBroker {
	return &MemoryBroker{hub: hub}
}

func (b *MemoryBroker) Publish(_ context.Context, scope string, payload []byte) error {
	b.hub.Broadcast(scope, payload)
	return nil
}

func (b *MemoryBroker) Close() error { return nil }
