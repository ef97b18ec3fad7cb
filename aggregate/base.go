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

// Package aggregate provides a base to embed in domain specific aggregates.
package aggregate

import (
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

// Base is an event sourced aggregate base to embed in a domain aggregate.
//
// A typical example:
//
//	type Account struct {
//	    *aggregate.Base
//
//	    balance int
//	}
//
// Using a constructor to set up the base is recommended:
//
//	func NewAccount(id uuid.UUID) *Account {
//	    return &Account{Base: aggregate.NewBase(AccountAggregateType, id)}
//	}
//
// The aggregate must also be registered:
//
//	func init() {
//	    cc.RegisterAggregate(func(id uuid.UUID) cc.Aggregate {
//	        return NewAccount(id)
//	    })
//	}
//
// A domain aggregate implements its own ApplyEvent that switches on event
// type to mutate its own fields; Base tracks version and pending events.
type Base struct {
	id      uuid.UUID
	t       cc.AggregateType
	version int
	events  []cc.Event
}

// NewBase creates an aggregate base.
func NewBase(t cc.AggregateType, id uuid.UUID) *Base {
	return &Base{id: id, t: t}
}

// EntityID implements the EntityID method of the cqrscore.Aggregate interface.
func (a *Base) EntityID() uuid.UUID { return a.id }

// AggregateType implements the AggregateType method of the cqrscore.Aggregate interface.
func (a *Base) AggregateType() cc.AggregateType { return a.t }

// Version implements the Version method of the cqrscore.Aggregate interface.
func (a *Base) Version() int { return a.version }

// IncrementVersion implements the IncrementVersion method of the
// cqrscore.Aggregate interface.
func (a *Base) IncrementVersion() { a.version++ }

// Events implements the Events method of the cqrscore.Aggregate interface.
func (a *Base) Events() []cc.Event { return a.events }

// ClearEvents implements the ClearEvents method of the cqrscore.Aggregate interface.
func (a *Base) ClearEvents() { a.events = nil }

// AppendEvent appends a new event to the aggregate's pending events, for
// later retrieval by Events(). The event is stamped with the aggregate's
// type, ID, and the version it would occupy once all pending events are
// applied; it is not applied to domain state here — ApplyEvent does that
// once the actor has successfully persisted it.
func (a *Base) AppendEvent(t cc.EventType, data cc.EventData, createdAt time.Time, options ...cc.EventOption) cc.Event {
	options = append(options, cc.ForAggregate(
		a.AggregateType(),
		a.EntityID(),
		a.Version()+len(a.events)+1,
	))
	e := cc.NewEvent(t, data, createdAt, options...)
	a.events = append(a.events, e)
	return e
}
