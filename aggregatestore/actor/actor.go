// Copyright (c) 2014 - The Event Horizon authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package actor implements the Aggregate Actor: one goroutine per
// (AggregateType, UUID) pair, owning its aggregate's domain state and
// serializing every command that targets it through a single inbox
// channel, in the manner of eventbus/local's per-handler goroutine loop
// adapted here to per-aggregate instead of per-handler.
package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

// DefaultTimeout is used when a caller of Execute does not override it.
const DefaultTimeout = 5000 * time.Millisecond

// job is one command's trip through the actor's inbox.
type job struct {
	ctx     context.Context
	cmd     cc.Command
	handler cc.AggregateHandler
	timeout time.Duration
	reply   chan error
}

// Actor owns a single aggregate's domain state and an inbox goroutine that
// processes commands for it one at a time. It is created and exclusively
// owned by a Registry; nothing outside the registry package should
// construct one directly.
type Actor struct {
	aggregateType cc.AggregateType
	id            uuid.UUID
	store         cc.EventStore

	inbox chan job
	done  chan struct{}

	ready chan struct{}
	initErr error
}

// newActor creates an actor and starts its inbox loop. The actor does not
// accept commands until its initial load from store completes; jobs sent
// before that are queued in the (buffered) inbox and processed in order
// once ready.
func newActor(aggregateType cc.AggregateType, id uuid.UUID, store cc.EventStore) *Actor {
	a := &Actor{
		aggregateType: aggregateType,
		id:            id,
		store:         store,
		inbox:         make(chan job, 64),
		done:          make(chan struct{}),
		ready:         make(chan struct{}),
	}
	go a.loop()
	return a
}

// Execute submits a command to the actor's inbox and blocks for the
// result, bounded by timeout. If the actor does not reply within timeout,
// ErrAggregateExecutionTimeout is returned to the caller; the command may
// still be processed by the actor's own goroutine to completion, but since
// only that goroutine ever commits state, no inconsistent result is ever
// exposed to a later caller (see cqrscore.ErrAggregateExecutionTimeout).
func (a *Actor) Execute(ctx context.Context, cmd cc.Command, handler cc.AggregateHandler, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	j := job{
		ctx:     ctx,
		cmd:     cmd,
		handler: handler,
		timeout: timeout,
		reply:   make(chan error, 1),
	}

	select {
	case a.inbox <- j:
	case <-a.done:
		return fmt.Errorf("cqrscore: actor for %s %s has stopped", a.aggregateType, a.id)
	case <-ctx.Done():
		return ctx.Err()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-j.reply:
		return err
	case <-timer.C:
		return cc.ErrAggregateExecutionTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop is the actor's single-threaded cooperative execution: load once,
// then process exactly one job at a time to completion before reading the
// next. No preemption mid-job.
func (a *Actor) loop() {
	defer close(a.done)

	agg, err := a.load(context.Background())
	a.initErr = err
	close(a.ready)

	if err != nil {
		return
	}

	for j := range a.inbox {
		err := a.execute(j, agg)
		if errors.Is(err, cc.ErrWrongExpectedVersion) {
			// Another writer advanced the stream; reload so the next
			// command (a retry of this one, say) sees its current version.
			if reloaded, loadErr := a.load(context.Background()); loadErr == nil {
				agg = reloaded
			}
		}
		j.reply <- err
	}
}

// load rebuilds the aggregate's domain state by reading its stream in
// batches of cqrscore.LoadBatchSize and replaying every event in order. A
// fresh aggregate is created on cqrscore.ErrStreamNotFound.
func (a *Actor) load(ctx context.Context) (cc.Aggregate, error) {
	agg, err := cc.CreateAggregate(a.aggregateType, a.id)
	if err != nil {
		return nil, err
	}

	version := 0
	for {
		events, err := a.store.ReadStreamForward(ctx, a.id, version, cc.LoadBatchSize)
		if err == cc.ErrStreamNotFound {
			return agg, nil
		}
		if err != nil {
			return nil, err
		}

		for _, e := range events {
			if err := agg.ApplyEvent(ctx, e); err != nil {
				return nil, err
			}
			agg.IncrementVersion()
			version++
		}

		if len(events) < cc.LoadBatchSize {
			break
		}
	}

	agg.ClearEvents()
	return agg, nil
}

// execute implements the execute operation of the Aggregate Actor: capture
// expected_version, call the handler, and on success with pending events
// append them atomically before committing the new state.
func (a *Actor) execute(j job, agg cc.Aggregate) error {
	ctx := j.ctx
	expectedVersion := agg.Version()

	if err := j.handler.HandleCommand(ctx, agg, j.cmd); err != nil {
		agg.ClearEvents()
		return err
	}

	pending := agg.Events()
	if len(pending) == 0 {
		return nil
	}

	if err := a.store.AppendToStream(ctx, a.id, expectedVersion, pending); err != nil {
		agg.ClearEvents()
		return err
	}

	for _, e := range pending {
		if err := agg.ApplyEvent(ctx, e); err != nil {
			return err
		}
		agg.IncrementVersion()
	}
	agg.ClearEvents()

	return nil
}
