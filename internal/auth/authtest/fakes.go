// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/holomush/accounts/internal/auth"
)

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock stopped at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time. Pass it to auth.WithClock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Notifier records every message it is asked to send.
type Notifier struct {
	mu       sync.Mutex
	messages []auth.Message

	// Err is returned from Send after recording the message.
	Err error

	// Stall makes Send block until its context is done, like a broker that
	// stopped acknowledging publishes.
	Stall bool
}

// Send implements auth.Notifier.
func (n *Notifier) Send(ctx context.Context, msg auth.Message) error {
	n.mu.Lock()
	n.messages = append(n.messages, msg)
	stall, err := n.Stall, n.Err
	n.mu.Unlock()

	if stall {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

// Messages returns the messages sent so far.
func (n *Notifier) Messages() []auth.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]auth.Message, len(n.messages))
	copy(out, n.messages)
	return out
}

// Recorder counts outcomes per operation.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]int
}

// RecordOutcome implements auth.Recorder.
func (r *Recorder) RecordOutcome(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[operation+"/"+outcome]++
}

// Count returns how many times operation finished with outcome.
func (r *Recorder) Count(operation, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[operation+"/"+outcome]
}
