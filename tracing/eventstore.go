// Copyright (c) 2020 - The Event Horizon authors.
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

package tracing

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

// EventStore wraps a cqrscore.EventStore, adding a span around every
// append and read.
type EventStore struct {
	cc.EventStore
}

// NewEventStore wraps store with tracing. Returns nil if store is nil.
func NewEventStore(store cc.EventStore) *EventStore {
	if store == nil {
		return nil
	}
	return &EventStore{EventStore: store}
}

// AppendToStream implements cqrscore.EventStore.
func (s *EventStore) AppendToStream(ctx context.Context, streamID uuid.UUID, expectedVersion int, events []cc.Event) error {
	sp, ctx := opentracing.StartSpanFromContext(ctx, "EventStore.AppendToStream")
	defer sp.Finish()

	err := s.EventStore.AppendToStream(ctx, streamID, expectedVersion, events)

	sp.SetTag("cqrscore.stream_id", streamID.String())
	sp.SetTag("cqrscore.expected_version", expectedVersion)
	sp.SetTag("cqrscore.event_count", len(events))
	if err != nil {
		ext.LogError(sp, err)
	}

	return err
}

// ReadStreamForward implements cqrscore.EventStore.
func (s *EventStore) ReadStreamForward(ctx context.Context, streamID uuid.UUID, fromVersion, maxCount int) ([]cc.Event, error) {
	sp, ctx := opentracing.StartSpanFromContext(ctx, "EventStore.ReadStreamForward")
	defer sp.Finish()

	events, err := s.EventStore.ReadStreamForward(ctx, streamID, fromVersion, maxCount)

	sp.SetTag("cqrscore.stream_id", streamID.String())
	sp.SetTag("cqrscore.from_version", fromVersion)
	if err != nil {
		ext.LogError(sp, err)
	}

	return events, err
}
