// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package indexer is the Indexing Worker: a batched consumer over the
// Event Bus that fetches, extracts, chunks, embeds, and upserts the
// content behind a Document or url/text Source, generalizing
// internal/worker's goroutine-pool/queue.Queue model into a
// bounded-concurrency consumer-group loop.
package indexer

import (
	"context"
	"log"
	"sync"

	"github.com/the-hive/internal/config"
	"github.com/the-hive/internal/eventbus"
)

// Dispatcher handles a single delivered event to completion.
type Dispatcher interface {
	Handle(ctx context.Context, ev eventbus.Event) error
}

// Worker drains a Consumer in batches, running up to BatchSize tasks
// concurrently, each bounded by TaskTimeout. A task that errors or
// times out is not acknowledged, so it is redelivered under
// at-least-once semantics — idempotent upsert keying (4.E.6) makes
// that safe.
type Worker struct {
	consumer *eventbus.Consumer
	dispatch Dispatcher
	cfg      config.WorkerConfig
}

// NewWorker wires the dependencies the indexing loop needs.
func NewWorker(consumer *eventbus.Consumer, dispatch Dispatcher, cfg config.WorkerConfig) *Worker {
	return &Worker{consumer: consumer, dispatch: dispatch, cfg: cfg}
}

// Run polls for batches until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	sem := make(chan struct{}, w.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msgs, err := w.consumer.ReadBatch(ctx, int64(w.cfg.BatchSize), w.cfg.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("indexer: read batch failed: %v", err)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		var wg sync.WaitGroup
		for _, m := range msgs {
			sem <- struct{}{}
			wg.Add(1)
			go func(m eventbus.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				w.runTask(ctx, m)
			}(m)
		}
		wg.Wait()
	}
}

func (w *Worker) runTask(ctx context.Context, m eventbus.Message) {
	taskCtx, cancel := context.WithTimeout(ctx, w.cfg.TaskTimeout)
	defer cancel()

	if err := w.dispatch.Handle(taskCtx, m.Event); err != nil {
		log.Printf("indexer: task failed for %s/%s: %v", m.Event.EntityType, m.Event.EntityID, err)
		return
	}

	if err := w.consumer.Ack(ctx, m.ID); err != nil {
		log.Printf("indexer: ack failed for message %s: %v", m.ID, err)
	}
}
