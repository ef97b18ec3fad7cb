// Copyright (c) 2017 - The Event Horizon authors.
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

// Package runtime drives a cqrscore.EventHandler against an EventStore's
// all-stream subscription: strict event-ID ordering, skip-but-ack for
// events the subscription has already seen, and halt-without-advancing on
// a handler error.
package runtime

import (
	"context"
	"errors"
	"fmt"

	cc "github.com/arcflux/cqrscore"
)

// ErrCursorNotFound is returned by CursorStore.LoadCursor when the named
// subscription has never recorded a cursor. Subscription.Start treats it
// the same as a cursor of 0, i.e. replay from the beginning of the log.
var ErrCursorNotFound = errors.New("cursor not found")

// CursorStore persists the last acknowledged global event ID for a named
// subscription, so a restarted Subscription resumes where it left off
// instead of redelivering the whole log.
type CursorStore interface {
	LoadCursor(ctx context.Context, name string) (int64, error)
	SaveCursor(ctx context.Context, name string, eventID int64) error
}

// Error reports a failure of a named subscription's handler. It is sent on
// Subscription.Errors and ends delivery: the subscription halts without
// advancing its cursor past the offending event.
type Error struct {
	Err          error
	Subscription string
	Event        cc.Event
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Event != nil {
		return fmt.Sprintf("runtime subscription %q: %s (event %s)", e.Subscription, e.Err, e.Event.EventType())
	}
	return fmt.Sprintf("runtime subscription %q: %s", e.Subscription, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *Error) Unwrap() error { return e.Err }

// Subscription runs a single cqrscore.EventHandler against an EventStore's
// all-stream feed, deduplicating by global event ID via a CursorStore.
// Handlers observing event types they don't care about must ignore them
// and return nil; the subscription still acknowledges those events.
type Subscription struct {
	name     string
	store    cc.EventStore
	handler  cc.EventHandler
	cursors  CursorStore
	lastSeen int64

	errCh chan error
	done  chan struct{}
}

// NewSubscription creates a Subscription. name identifies the cursor
// persisted in cursors and is independent of handler.HandlerType(), since
// one handler implementation may be run under several subscription names
// (e.g. in tests).
func NewSubscription(name string, store cc.EventStore, handler cc.EventHandler, cursors CursorStore) *Subscription {
	return &Subscription{
		name:    name,
		store:   store,
		handler: handler,
		cursors: cursors,
		errCh:   make(chan error, 1),
		done:    make(chan struct{}),
	}
}

// Start loads the persisted cursor, subscribes to the store from that
// point, and begins delivering events to the handler on a new goroutine.
func (s *Subscription) Start(ctx context.Context) error {
	lastSeen, err := s.cursors.LoadCursor(ctx, s.name)
	if errors.Is(err, ErrCursorNotFound) {
		lastSeen = 0
	} else if err != nil {
		return fmt.Errorf("could not load cursor: %w", err)
	}
	s.lastSeen = lastSeen

	sub, err := s.store.SubscribeAll(ctx, lastSeen)
	if err != nil {
		return fmt.Errorf("could not subscribe: %w", err)
	}

	go s.run(ctx, sub)

	return nil
}

func (s *Subscription) run(ctx context.Context, sub cc.Subscription) {
	defer close(s.done)

	for batch := range sub.Batches() {
		if err := s.processBatch(ctx, batch); err != nil {
			sub.Close()
			s.errCh <- err

			return
		}
	}

	if err := sub.Err(); err != nil {
		s.errCh <- fmt.Errorf("subscription closed: %w", err)
	}
}

func (s *Subscription) processBatch(ctx context.Context, batch cc.EventBatch) error {
	for _, event := range batch.Events {
		eventID := event.Metadata().EventID

		if eventID <= s.lastSeen {
			continue
		}

		if err := s.handler.HandleEvent(ctx, event); err != nil {
			return &Error{Err: err, Subscription: s.name, Event: event}
		}

		if err := s.cursors.SaveCursor(ctx, s.name, eventID); err != nil {
			return &Error{Err: fmt.Errorf("could not save cursor: %w", err), Subscription: s.name, Event: event}
		}

		s.lastSeen = eventID
	}

	if batch.Ack != nil {
		if err := batch.Ack(ctx, s.lastSeen); err != nil {
			return &Error{Err: fmt.Errorf("could not ack batch: %w", err), Subscription: s.name}
		}
	}

	return nil
}

// Errors returns the channel a handler or cursor failure is reported on.
// It receives at most one value: the subscription halts after the first
// error.
func (s *Subscription) Errors() <-chan error { return s.errCh }

// Done is closed once the subscription's delivery goroutine has returned,
// whether because of an error or a closed upstream subscription.
func (s *Subscription) Done() <-chan struct{} { return s.done }
