// Copyright (c) 2018 - The Event Horizon authors.
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

// Package local implements a local, in-process EventBus: one goroutine per
// registered handler, each with its own bounded queue, so a slow handler
// never blocks publishing to the others.
package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/jinzhu/copier"

	cc "github.com/arcflux/cqrscore"
)

// DefaultQueueSize is the default queue size per handler for publishing events.
var DefaultQueueSize = 10

// EventBus is a local event bus that delegates handling of published events
// to all matching registered handlers. Each handler has its own queue and
// goroutine, so handlers run concurrently, in no fixed order.
type EventBus struct {
	handlers   map[cc.EventHandlerType]chan evt
	handlersMu sync.RWMutex
	errCh      chan cc.EventBusError
	wg         sync.WaitGroup
}

// NewEventBus creates an EventBus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: map[cc.EventHandlerType]chan evt{},
		errCh:    make(chan cc.EventBusError, 100),
	}
}

type evt struct {
	ctx   context.Context
	event cc.Event
}

// PublishEvent implements the PublishEvent method of the cqrscore.EventBus
// interface. Every handler gets its own deep copy of the event's data, so
// one handler mutating it cannot affect another.
func (b *EventBus) PublishEvent(ctx context.Context, event cc.Event) error {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()

	for _, ch := range b.handlers {
		toPublish, err := copyEvent(event)
		if err != nil {
			return err
		}

		select {
		case ch <- evt{ctx, toPublish}:
		default:
			return fmt.Errorf("cqrscore: event bus queue full for event %s", event)
		}
	}

	return nil
}

func copyEvent(event cc.Event) (cc.Event, error) {
	var data cc.EventData
	if event.Data() != nil {
		var err error
		if data, err = cc.CreateEventData(event.EventType()); err != nil {
			return nil, fmt.Errorf("could not create event data: %w", err)
		}
		if err := copier.Copy(data, event.Data()); err != nil {
			return nil, fmt.Errorf("could not copy event data: %w", err)
		}
	}

	return cc.NewEvent(
		event.EventType(),
		data,
		event.CreatedAt(),
		cc.ForAggregate(event.AggregateType(), event.AggregateID(), event.Version()),
		cc.WithMetadata(event.Metadata()),
	), nil
}

// AddHandler implements the AddHandler method of the cqrscore.EventBus interface.
func (b *EventBus) AddHandler(m cc.EventMatcher, h cc.EventHandler) error {
	if m == nil {
		return cc.ErrMissingMatcher
	}
	if h == nil {
		return cc.ErrMissingHandler
	}

	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()

	if _, ok := b.handlers[h.HandlerType()]; ok {
		return cc.ErrHandlerAlreadyAdded
	}

	ch := make(chan evt, DefaultQueueSize)
	b.handlers[h.HandlerType()] = ch

	b.wg.Add(1)
	go b.handle(m, h, ch)

	return nil
}

// Errors implements the Errors method of the cqrscore.EventBus interface.
func (b *EventBus) Errors() <-chan cc.EventBusError {
	return b.errCh
}

// handle processes every event sent to one handler's channel, in order,
// for as long as the channel is open.
func (b *EventBus) handle(m cc.EventMatcher, h cc.EventHandler, ch <-chan evt) {
	defer b.wg.Done()

	for e := range ch {
		if !m.Match(e.event) {
			continue
		}
		if err := h.HandleEvent(e.ctx, e.event); err != nil {
			select {
			case b.errCh <- cc.EventBusError{
				Err:   fmt.Errorf("could not handle event (%s): %w", h.HandlerType(), err),
				Ctx:   e.ctx,
				Event: e.event,
			}:
			default:
			}
		}
	}
}

// Close implements the Close method of the cqrscore.EventBus interface. It
// closes every handler's channel and waits for their goroutines to drain.
func (b *EventBus) Close() error {
	b.handlersMu.Lock()
	for _, ch := range b.handlers {
		close(ch)
	}
	b.handlers = map[cc.EventHandlerType]chan evt{}
	b.handlersMu.Unlock()

	b.wg.Wait()
	close(b.errCh)
	return nil
}
