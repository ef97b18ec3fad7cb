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
	"fmt"
	"sync"

	"github.com/arcflux/cqrscore/uuid"
)

// AggregateType is the type of an aggregate.
type AggregateType string

// Aggregate is a versioned data entity rebuilt from its event stream. It
// receives commands through a CommandHandler and records the resulting
// events as pending, uncommitted, until the owning actor appends them.
//
// Domain aggregates commonly embed *aggregate.Base (package
// github.com/arcflux/cqrscore/aggregate) to get Version/Events/ClearEvents
// bookkeeping for free, implementing only ApplyEvent's event-type switch.
type Aggregate interface {
	// AggregateType returns the type name of the aggregate.
	AggregateType() AggregateType
	// EntityID returns the ID of the aggregate.
	EntityID() uuid.UUID
	// Version returns the number of events applied from the store.
	Version() int
	// IncrementVersion increments the version after an event has been
	// successfully applied.
	IncrementVersion()
	// Events returns the events recorded by the last command but not yet
	// appended to the store.
	Events() []Event
	// ClearEvents clears the pending events after they have been appended.
	ClearEvents()
	// ApplyEvent applies a recorded event to the aggregate's domain state.
	// It must not increment the version; the caller does that on success.
	ApplyEvent(ctx context.Context, event Event) error
}

var aggregates = make(map[AggregateType]func(uuid.UUID) Aggregate)
var aggregatesMu sync.RWMutex

// ErrAggregateNotRegistered is returned by CreateAggregate when no factory
// was registered for the given type.
var ErrAggregateNotRegistered = errors.New("aggregate not registered")

// ErrAggregateNotFound is returned by an AggregateStore when Load produces
// a nil aggregate for an otherwise valid type.
var ErrAggregateNotFound = errors.New("aggregate not found")

// RegisterAggregate registers an aggregate factory for a type, used to
// create concrete aggregate instances when loading from the event store.
//
//	RegisterAggregate(func(id uuid.UUID) Aggregate { return NewMyAggregate(id) })
func RegisterAggregate(factory func(uuid.UUID) Aggregate) {
	agg := factory(uuid.New())
	if agg == nil {
		panic("cqrscore: created aggregate is nil")
	}

	t := agg.AggregateType()
	if t == AggregateType("") {
		panic("cqrscore: attempt to register empty aggregate type")
	}

	aggregatesMu.Lock()
	defer aggregatesMu.Unlock()
	if _, ok := aggregates[t]; ok {
		panic(fmt.Sprintf("cqrscore: registering duplicate types for %q", t))
	}
	aggregates[t] = factory
}

// CreateAggregate creates an aggregate of a type with an ID using the
// factory registered with RegisterAggregate.
func CreateAggregate(t AggregateType, id uuid.UUID) (Aggregate, error) {
	aggregatesMu.RLock()
	defer aggregatesMu.RUnlock()
	if factory, ok := aggregates[t]; ok {
		return factory(id), nil
	}
	return nil, ErrAggregateNotRegistered
}

// AggregateStore loads and saves aggregates by replaying and appending to
// their event stream. It is the collaborator the Aggregate Actor (package
// aggregatestore/actor) uses to do the actual I/O; the actor supplies the
// concurrency, ordering and timeout guarantees on top of it.
type AggregateStore interface {
	Load(ctx context.Context, t AggregateType, id uuid.UUID) (Aggregate, error)
	Save(ctx context.Context, agg Aggregate) error
}
