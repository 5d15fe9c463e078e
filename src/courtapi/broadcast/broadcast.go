// Package broadcast is the ephemeral low-latency channel between the two
// participants of a case. It carries typing indicators only: no durable
// state, no delivery guarantee, and dropped messages have no correctness
// impact. Durable coordination goes through the case record store.
package broadcast

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const topicPrefix = "court.live."

// Message is one ephemeral event on a channel.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Channel is a handle on one case's live topic.
type Channel struct {
	rdb   *redis.Client
	topic string
	sub   *redis.PubSub
}

// Open attaches to the live topic for a case.
func Open(rdb *redis.Client, caseID string) *Channel {
	return &Channel{rdb: rdb, topic: topicPrefix + caseID}
}

// Send publishes an event. Best effort: errors are logged and dropped.
func (ch *Channel) Send(ctx context.Context, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("broadcast %s: marshal %s: %v", ch.topic, event, err)
		return
	}
	body, _ := json.Marshal(Message{Event: event, Payload: raw})
	if err := ch.rdb.Publish(ctx, ch.topic, body).Err(); err != nil {
		log.Printf("broadcast %s: publish %s: %v", ch.topic, event, err)
	}
}

// OnEvent delivers incoming events to fn until the context is cancelled.
// Malformed messages are skipped.
func (ch *Channel) OnEvent(ctx context.Context, fn func(Message)) {
	ch.sub = ch.rdb.Subscribe(ctx, ch.topic)
	go func() {
		defer ch.sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch.sub.Channel():
				if !ok {
					return
				}
				var m Message
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					continue
				}
				fn(m)
			}
		}
	}()
}

// Close releases the subscription, if any.
func (ch *Channel) Close() {
	if ch.sub != nil {
		_ = ch.sub.Close()
	}
}
