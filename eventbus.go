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

package cqrscore

import (
	"context"
	"errors"
)

// EventHandlerType identifies a registered EventHandler so the bus can
// reject a second registration under the same name.
type EventHandlerType string

// EventHandler is a handler of events delivered through an EventBus.
type EventHandler interface {
	// HandlerType returns the handler's unique name.
	HandlerType() EventHandlerType
	// HandleEvent handles one event.
	HandleEvent(ctx context.Context, event Event) error
}

// EventMatcher decides whether an EventBus handler is interested in a
// given event.
type EventMatcher interface {
	Match(Event) bool
}

// MatchAll matches every event.
type MatchAll struct{}

// Match implements the EventMatcher interface.
func (MatchAll) Match(Event) bool { return true }

// MatchEventType matches only events of the given type.
type MatchEventType EventType

// Match implements the EventMatcher interface.
func (t MatchEventType) Match(e Event) bool { return e.EventType() == EventType(t) }

// ErrMissingMatcher is returned by EventBus.AddHandler when m is nil.
var ErrMissingMatcher = errors.New("missing matcher")

// ErrMissingHandler is returned by EventBus.AddHandler when h is nil.
var ErrMissingHandler = errors.New("missing handler")

// ErrHandlerAlreadyAdded is returned by EventBus.AddHandler when a handler
// with the same HandlerType is already registered.
var ErrHandlerAlreadyAdded = errors.New("handler already added")

// EventBusError is delivered on an EventBus's error channel when a handler
// fails to process an event.
type EventBusError struct {
	Err   error
	Ctx   context.Context
	Event Event
}

// Error implements the error interface.
func (e EventBusError) Error() string {
	return e.Err.Error()
}

// EventBus fans committed events out to every registered handler whose
// matcher accepts them, decoupling the Aggregate Actor's commit path from
// the Event Handler Runtime and Process Router that react to events.
type EventBus interface {
	// PublishEvent publishes an event to all matching handlers.
	PublishEvent(ctx context.Context, event Event) error
	// AddHandler registers a handler to receive events matched by m. Each
	// HandlerType may only be registered once.
	AddHandler(m EventMatcher, h EventHandler) error
	// Errors returns the channel handler failures are reported on.
	Errors() <-chan EventBusError
	// Close stops delivery to all handlers and releases resources.
	Close() error
}
