// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package eventbus is the Event Bus Publisher/Consumer. It generalizes
// the plain Redis List queue (internal/queue) into Redis Streams:
// XADD gives every entity's changes a total order within the stream,
// XREADGROUP with a consumer group gives the indexing worker's batched
// poll and at-least-once delivery, and XACK/XAUTOCLAIM give it crash
// recovery without a separate dead-letter mechanism.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/the-hive/internal/retry"
)

// Op is the change-event operation discriminator (spec's Change event
// "op" field: c=create, u=update, d=delete).
type Op string

const (
	OpCreate Op = "c"
	OpUpdate Op = "u"
	OpDelete Op = "d"
)

// Event is the wire shape published for every Document/Source mutation.
type Event struct {
	Op         Op              `json:"op"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	OwnerID    string          `json:"owner_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Message pairs a delivered Event with the stream entry id needed to Ack it.
type Message struct {
	ID    string
	Event Event
}

// Publisher publishes change events with a 10s publish deadline and up
// to 5 attempts with backoff capped at 60s; failures are logged and do not block the
// caller's request path.
type Publisher struct {
	client *redis.Client
	stream string
}

// NewPublisher wraps an existing Redis client for the given stream key.
func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// Publish appends ev to the stream, maintaining per-entity ordering
// because appends within a single stream are strictly ordered. Publish
// failures are retried per the bus policy and, on final failure,
// logged rather than propagated — the caller's mutation already
// committed and must not roll back because the bus is down.
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("eventbus: failed to marshal event for %s/%s: %v", ev.EntityType, ev.EntityID, err)
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = retry.Do(publishCtx, retry.Bus, func() error {
		return p.client.XAdd(publishCtx, &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]interface{}{
				"entity_id": ev.EntityID,
				"data":      data,
			},
		}).Err()
	})
	if err != nil {
		log.Printf("eventbus: publish failed for %s/%s after retries: %v", ev.EntityType, ev.EntityID, err)
	}
}

// Consumer reads batches of events via a Redis Streams consumer group.
type Consumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
}

// NewConsumer creates the consumer group, and the stream with it, if
// absent and returns a Consumer bound to it.
func NewConsumer(ctx context.Context, client *redis.Client, stream, group, consumerName string) (*Consumer, error) {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !alreadyExists(err) {
		return nil, fmt.Errorf("failed to create consumer group %s on %s: %w", group, stream, err)
	}
	return &Consumer{client: client, stream: stream, group: group, consumer: consumerName}, nil
}

// ReadBatch polls up to count new messages, blocking up to block for
// at least one. It first claims any pending messages left unacked for
// at least 5 minutes (e.g. by a crashed consumer instance) and returns
// those instead when there are any, giving the worker loop
// crash recovery without a separate redelivery path.
func (c *Consumer) ReadBatch(ctx context.Context, count int64, block time.Duration) ([]Message, error) {
	if msgs, err := c.claimStale(ctx, count); err != nil {
		log.Printf("eventbus: stale claim failed: %v", err)
	} else if len(msgs) > 0 {
		return msgs, nil
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("eventbus: read failed: %w", err)
	}

	var out []Message
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			ev, err := decodeEntry(entry.Values)
			if err != nil {
				log.Printf("eventbus: skipping malformed entry %s: %v", entry.ID, err)
				continue
			}
			out = append(out, Message{ID: entry.ID, Event: ev})
		}
	}
	return out, nil
}

func (c *Consumer) claimStale(ctx context.Context, count int64) ([]Message, error) {
	entries, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: c.consumer,
		MinIdle:  5 * time.Minute,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var out []Message
	for _, entry := range entries {
		ev, err := decodeEntry(entry.Values)
		if err != nil {
			continue
		}
		out = append(out, Message{ID: entry.ID, Event: ev})
	}
	return out, nil
}

// Ack acknowledges successfully processed messages so they are not redelivered.
func (c *Consumer) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.client.XAck(ctx, c.stream, c.group, ids...).Err()
}

func decodeEntry(values map[string]interface{}) (Event, error) {
	raw, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("entry missing data field")
	}
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func alreadyExists(err error) bool {
	return err != nil && (err.Error() == "BUSYGROUP Consumer Group name already exists")
}
