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

// Package cqrscore is a CQRS/event-sourcing toolkit.
package cqrscore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arcflux/cqrscore/uuid"
)

// EventType is the type of an event, used as its unique identifier and wire
// tag.
type EventType string

// EventData is the domain specific data carried by an Event. A concrete
// event type implements no methods of its own; it is identified purely by
// the EventType it is registered under.
type EventData interface{}

// Event is a domain event describing a change that has happened to an
// aggregate. It pairs domain data with the metadata assigned by the event
// store when the event was recorded.
//
// An event struct and type name should:
//  1. Be in past tense (CustomerMoved)
//  2. Contain the intent (CustomerMoved vs CustomerAddressCorrected)
//
// The event should contain all the data needed when applying/handling it.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType
	// Data returns the event data.
	Data() EventData
	// AggregateType returns the type of the aggregate that the event can be
	// applied to.
	AggregateType() AggregateType
	// AggregateID returns the ID of the aggregate that the event should be
	// applied to.
	AggregateID() uuid.UUID
	// Version returns the stream version the event was stored at (1-based).
	Version() int
	// Metadata returns the metadata assigned by the store on append.
	Metadata() Metadata
	// CreatedAt returns the time the event was created, before it was
	// necessarily recorded.
	CreatedAt() time.Time

	fmt.Stringer
}

// Metadata carries the attributes an event is tagged with once it has been
// recorded: its position in the global log, its correlation with the
// command that produced it, and when the store accepted it. A zero
// Metadata means the event has not been through the store yet.
type Metadata struct {
	EventID       int64
	CorrelationID uuid.UUID
	RecordedAt    time.Time
}

type event struct {
	eventType     EventType
	data          EventData
	aggregateType AggregateType
	aggregateID   uuid.UUID
	version       int
	metadata      Metadata
	createdAt     time.Time
}

// EventOption mutates an event at construction time.
type EventOption func(*event)

// ForAggregate sets the aggregate type, ID and stream version of the event.
func ForAggregate(t AggregateType, id uuid.UUID, version int) EventOption {
	return func(e *event) {
		e.aggregateType = t
		e.aggregateID = id
		e.version = version
	}
}

// WithMetadata sets the metadata assigned by the store.
func WithMetadata(m Metadata) EventOption {
	return func(e *event) {
		e.metadata = m
	}
}

// NewEvent creates a new Event with a data payload and the given options.
func NewEvent(t EventType, data EventData, createdAt time.Time, options ...EventOption) Event {
	e := &event{
		eventType: t,
		data:      data,
		createdAt: createdAt,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

func (e *event) EventType() EventType           { return e.eventType }
func (e *event) Data() EventData                { return e.data }
func (e *event) AggregateType() AggregateType    { return e.aggregateType }
func (e *event) AggregateID() uuid.UUID          { return e.aggregateID }
func (e *event) Version() int                    { return e.version }
func (e *event) Metadata() Metadata              { return e.metadata }
func (e *event) CreatedAt() time.Time            { return e.createdAt }

func (e *event) String() string {
	str := fmt.Sprintf("%s@%d", e.eventType, e.version)
	if e.aggregateID != uuid.Nil {
		str += fmt.Sprintf("(%s, %s)", e.aggregateType, e.aggregateID)
	}
	return str
}

var eventData = make(map[EventType]func() EventData)
var eventDataMu sync.RWMutex

// ErrEventDataNotRegistered is returned by CreateEventData, and by an
// EventCodec when decoding, when a tag has no registered factory. It is
// the UnknownEventType failure named in the event mapper contract.
var ErrEventDataNotRegistered = errors.New("event data not registered")

// RegisterEventData registers a factory for an event's data payload, used
// to create concrete, typed values when decoding from the store.
//
//	RegisterEventData(MyEventType, func() EventData { return &MyEventData{} })
func RegisterEventData(t EventType, factory func() EventData) {
	if t == EventType("") {
		panic("cqrscore: attempt to register empty event type")
	}

	eventDataMu.Lock()
	defer eventDataMu.Unlock()
	if _, ok := eventData[t]; ok {
		panic(fmt.Sprintf("cqrscore: registering duplicate event data factory for %q", t))
	}
	eventData[t] = factory
}

// CreateEventData creates event data of a type using the factory registered
// with RegisterEventData.
func CreateEventData(t EventType) (EventData, error) {
	eventDataMu.RLock()
	defer eventDataMu.RUnlock()
	if factory, ok := eventData[t]; ok {
		return factory(), nil
	}
	return nil, ErrEventDataNotRegistered
}
