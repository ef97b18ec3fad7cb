// Copyright (c) 2021 - The Event Horizon authors.
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

// Package bson implements the Event Mapper: translating domain Event
// values to and from the byte payload an EventStore actually persists, in
// BSON format.
package bson

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

// EventCodec is a codec for marshaling and unmarshaling events to and from
// bytes in BSON format. decode(encode(e)) round-trips e's type, data,
// aggregate identity and version; store-assigned metadata travels
// alongside.
type EventCodec struct{}

// MarshalEvent marshals an event into bytes in BSON format.
func (c *EventCodec) MarshalEvent(ctx context.Context, event cc.Event) ([]byte, error) {
	e := evt{
		EventType:     event.EventType(),
		CreatedAt:     event.CreatedAt(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID().String(),
		Version:       event.Version(),
		EventID:       event.Metadata().EventID,
		CorrelationID: event.Metadata().CorrelationID.String(),
		RecordedAt:    event.Metadata().RecordedAt,
	}

	if event.Data() != nil {
		var err error
		if e.RawData, err = marshalWithRegistry(Registry, event.Data()); err != nil {
			return nil, fmt.Errorf("could not marshal event data: %w", err)
		}
	}

	b, err := marshalWithRegistry(Registry, e)
	if err != nil {
		return nil, fmt.Errorf("could not marshal event: %w", err)
	}

	return b, nil
}

// UnmarshalEvent unmarshals an event from bytes in BSON format. Returns
// cqrscore.ErrEventDataNotRegistered (the UnknownEventType failure) if the
// stored type tag has no registered data factory.
func (c *EventCodec) UnmarshalEvent(ctx context.Context, b []byte) (cc.Event, error) {
	var e evt
	if err := unmarshalWithRegistry(Registry, b, &e); err != nil {
		return nil, fmt.Errorf("could not unmarshal event: %w", err)
	}

	var data cc.EventData
	if len(e.RawData) > 0 {
		var err error
		if data, err = cc.CreateEventData(e.EventType); err != nil {
			return nil, fmt.Errorf("could not create event data: %w", err)
		}

		if err := unmarshalWithRegistry(Registry, e.RawData, data); err != nil {
			return nil, fmt.Errorf("could not unmarshal event data: %w", err)
		}
	}

	aggregateID, err := uuid.Parse(e.AggregateID)
	if err != nil {
		aggregateID = uuid.Nil
	}

	correlationID, err := uuid.Parse(e.CorrelationID)
	if err != nil {
		correlationID = uuid.Nil
	}

	event := cc.NewEvent(
		e.EventType,
		data,
		e.CreatedAt,
		cc.ForAggregate(e.AggregateType, aggregateID, e.Version),
		cc.WithMetadata(cc.Metadata{
			EventID:       e.EventID,
			CorrelationID: correlationID,
			RecordedAt:    e.RecordedAt,
		}),
	)

	return event, nil
}

// evt is the internal event used on the wire only.
type evt struct {
	EventType     cc.EventType     `bson:"event_type"`
	RawData       bson.Raw         `bson:"data,omitempty"`
	CreatedAt     time.Time        `bson:"created_at"`
	AggregateType cc.AggregateType `bson:"aggregate_type"`
	AggregateID   string           `bson:"_id"`
	Version       int              `bson:"version"`
	EventID       int64            `bson:"event_id"`
	CorrelationID string           `bson:"correlation_id"`
	RecordedAt    time.Time        `bson:"recorded_at"`
}
