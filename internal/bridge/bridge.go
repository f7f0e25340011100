// Package bridge is the pub/sub transport between the Discord process and the
// game server. Subscribers declare the channels they care about; the bridge
// holds one Redis subscription per distinct channel and fans each inbound event
// out to every interested subscriber in registration order.
package bridge

import (
	"context"
	"fmt"
	"log"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Subscriber handles inbound events on one or more named channels.
type Subscriber interface {
	Channels() []string
	Handle(ctx context.Context, channel, payload string) error
}

type Bridge struct {
	rdb *redis.Client

	// handlers is an explicit multimap: channel -> subscribers in registration
	// order. Built before Run; not mutated afterwards.
	handlers map[string][]Subscriber
	channels []string
}

func New(addr, password string) *Bridge {
	return &Bridge{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		handlers: make(map[string][]Subscriber),
	}
}

// Register binds a subscriber to each of its declared channels. Must be called
// before Run.
func (b *Bridge) Register(sub Subscriber) {
	for _, channel := range sub.Channels() {
		if _, seen := b.handlers[channel]; !seen {
			b.channels = append(b.channels, channel)
		}
		b.handlers[channel] = append(b.handlers[channel], sub)
	}
}

// SubscribedChannels returns the distinct channels the bridge subscribes to,
// in first-registration order.
func (b *Bridge) SubscribedChannels() []string {
	out := make([]string, len(b.channels))
	copy(out, b.channels)
	return out
}

// Run subscribes once per distinct declared channel and dispatches inbound
// events until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if len(b.channels) == 0 {
		<-ctx.Done()
		return nil
	}

	sub := b.rdb.Subscribe(ctx, b.channels...)
	defer sub.Close()

	// Force the subscription before declaring readiness.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %v: %w", b.channels, err)
	}
	log.Printf("[INFO] Subscribed to %d channels: %v", len(b.channels), b.channels)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.dispatch(ctx, msg.Channel, msg.Payload)
		}
	}
}

// dispatch runs every subscriber bound to the channel. A failing or panicking
// subscriber must not prevent the remaining ones from running.
func (b *Bridge) dispatch(ctx context.Context, channel, payload string) {
	for _, sub := range b.handlers[channel] {
		b.invoke(ctx, sub, channel, payload)
	}
}

func (b *Bridge) invoke(ctx context.Context, sub Subscriber, channel, payload string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] Subscriber panic on channel %s: %v", channel, r)
		}
	}()
	if err := sub.Handle(ctx, channel, payload); err != nil {
		log.Printf("[ERR] Subscriber error on channel %s: %v", channel, err)
	}
}

// Publish sends a raw payload on a named channel.
func (b *Bridge) Publish(ctx context.Context, channel, payload string) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

// PublishJSON encodes v and sends it on a named channel.
func (b *Bridge) PublishJSON(ctx context.Context, channel string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode payload for %s: %w", channel, err)
	}
	return b.Publish(ctx, channel, string(raw))
}

func (b *Bridge) Close() error {
	return b.rdb.Close()
}
