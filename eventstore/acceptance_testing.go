// Copyright (c) 2016 - The Event Horizon authors.
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

// Package eventstore holds the acceptance suite shared by every
// cqrscore.EventStore implementation, and the error/constant surface
// implementations build on.
package eventstore

import (
	"context"
	"testing"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEventType cc.EventType = "acceptance:test"

type testEventData struct {
	Content string
}

// RunAcceptanceTest exercises every cqrscore.EventStore guarantee: per
// stream versioning, optimistic concurrency, and ordered, ack-gated
// all-stream subscription. Every EventStore implementation should call it
// from its own test file:
//
//	func TestEventStore(t *testing.T) {
//	    eventstore.RunAcceptanceTest(t, NewEventStore())
//	}
func RunAcceptanceTest(t *testing.T, store cc.EventStore) {
	t.Helper()
	ctx := context.Background()
	timestamp := time.Date(2009, time.November, 10, 23, 0, 0, 0, time.UTC)

	t.Run("read missing stream", func(t *testing.T) {
		_, err := store.ReadStreamForward(ctx, uuid.New(), 0, 100)
		assert.ErrorIs(t, err, cc.ErrStreamNotFound)
	})

	t.Run("append and read forward", func(t *testing.T) {
		id := uuid.New()

		event1 := cc.NewEvent(testEventType, &testEventData{Content: "one"}, timestamp,
			cc.ForAggregate("acceptance", id, 1))
		event2 := cc.NewEvent(testEventType, &testEventData{Content: "two"}, timestamp,
			cc.ForAggregate("acceptance", id, 2))

		require.NoError(t, store.AppendToStream(ctx, id, 0, []cc.Event{event1}))
		require.NoError(t, store.AppendToStream(ctx, id, 1, []cc.Event{event2}))

		events, err := store.ReadStreamForward(ctx, id, 0, 100)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, testEventType, events[0].EventType())
		assert.Equal(t, testEventType, events[1].EventType())

		events, err = store.ReadStreamForward(ctx, id, 1, 100)
		require.NoError(t, err)
		require.Len(t, events, 1)
	})

	t.Run("append rejects no events", func(t *testing.T) {
		err := store.AppendToStream(ctx, uuid.New(), 0, nil)
		assert.ErrorIs(t, err, cc.ErrNoEventsToAppend)
	})

	t.Run("wrong expected version", func(t *testing.T) {
		id := uuid.New()
		event := cc.NewEvent(testEventType, &testEventData{Content: "one"}, timestamp,
			cc.ForAggregate("acceptance", id, 1))

		require.NoError(t, store.AppendToStream(ctx, id, 0, []cc.Event{event}))

		err := store.AppendToStream(ctx, id, 0, []cc.Event{event})
		assert.ErrorIs(t, err, cc.ErrWrongExpectedVersion)
	})

	t.Run("subscribe all delivers in order and acks gate redelivery", func(t *testing.T) {
		// Earlier subtests have already appended to store; subscribe from
		// the global position of a freshly appended marker event so only
		// this subtest's events are delivered.
		markerID := uuid.New()
		marker := cc.NewEvent(testEventType, &testEventData{Content: "marker"}, timestamp,
			cc.ForAggregate("acceptance", markerID, 1))
		require.NoError(t, store.AppendToStream(ctx, markerID, 0, []cc.Event{marker}))
		recorded, err := store.ReadStreamForward(ctx, markerID, 0, 1)
		require.NoError(t, err)
		require.Len(t, recorded, 1)

		sub, err := store.SubscribeAll(ctx, recorded[0].Metadata().EventID)
		require.NoError(t, err)
		defer sub.Close()

		id := uuid.New()
		event1 := cc.NewEvent(testEventType, &testEventData{Content: "a"}, timestamp,
			cc.ForAggregate("acceptance", id, 1))
		event2 := cc.NewEvent(testEventType, &testEventData{Content: "b"}, timestamp,
			cc.ForAggregate("acceptance", id, 2))

		require.NoError(t, store.AppendToStream(ctx, id, 0, []cc.Event{event1, event2}))

		select {
		case batch := <-sub.Batches():
			require.Len(t, batch.Events, 2)
			require.NoError(t, batch.Ack(ctx, batch.Events[1].Metadata().EventID))
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for batch")
		}

		event3 := cc.NewEvent(testEventType, &testEventData{Content: "c"}, timestamp,
			cc.ForAggregate("acceptance", id, 3))
		require.NoError(t, store.AppendToStream(ctx, id, 2, []cc.Event{event3}))

		select {
		case batch := <-sub.Batches():
			require.Len(t, batch.Events, 1)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for second batch")
		}
	})
}
