// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package retry implements the exponential-backoff wrapper the blob
// and bus gateways wrap their external calls in. Grounded on
// the original Python service's core/retry_utils.py decorator, which
// every store gateway there used the same way.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes one gateway's retry budget.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// Blob matches the Object Store Gateway contract: 3 attempts, 1s base, x2, 10s cap.
var Blob = Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 10 * time.Second}

// Bus matches the Event Bus Publisher contract: 5 attempts, 1s base, x2, 60s cap.
var Bus = Policy{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 60 * time.Second}

// DB is a conservative default for relational-store contention retries.
var DB = Policy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, Multiplier: 2, MaxDelay: 2 * time.Second}

// Do calls fn until it succeeds, ctx is cancelled, or the policy's
// attempt budget is exhausted. It returns the last error on exhaustion.
func Do(ctx context.Context, p Policy, fn func() error) error {
	var err error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		jitter := time.Duration(rand.Int63n(int64(delay) / 2))
		wait := delay + jitter
		if wait > p.MaxDelay {
			wait = p.MaxDelay
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}
