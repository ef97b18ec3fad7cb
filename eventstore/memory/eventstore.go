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

// Package memory implements an in-memory EventStore, used by the test
// suite and the bundled example. It is not meant for production use: a
// real deployment supplies its own cqrscore.EventStore backed by a durable
// log.
package memory

import (
	"context"
	"sync"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

// EventStore implements cqrscore.EventStore as an in-memory, mutex-guarded
// log. Streams are kept in a map keyed by stream ID; the global event ID
// is a process-wide counter shared by every stream.
type EventStore struct {
	mu          sync.Mutex
	streams     map[uuid.UUID][]cc.Event
	allEvents   []cc.Event
	subs        []*subscription
	nextEventID int64
}

// NewEventStore creates an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{
		streams: make(map[uuid.UUID][]cc.Event),
	}
}

// ReadStreamForward implements the ReadStreamForward method of the
// cqrscore.EventStore interface.
func (s *EventStore) ReadStreamForward(ctx context.Context, streamID uuid.UUID, fromVersion, maxCount int) ([]cc.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, ok := s.streams[streamID]
	if !ok {
		return nil, cc.ErrStreamNotFound
	}

	if fromVersion < 0 {
		fromVersion = 0
	}
	if fromVersion >= len(stream) {
		return []cc.Event{}, nil
	}

	end := fromVersion + maxCount
	if end > len(stream) || maxCount <= 0 {
		end = len(stream)
	}

	out := make([]cc.Event, end-fromVersion)
	copy(out, stream[fromVersion:end])
	return out, nil
}

// AppendToStream implements the AppendToStream method of the
// cqrscore.EventStore interface. Each event is re-stamped with a global
// EventID and RecordedAt, the metadata the store is responsible for
// assigning on append; any CorrelationID the caller already set is kept.
func (s *EventStore) AppendToStream(ctx context.Context, streamID uuid.UUID, expectedVersion int, events []cc.Event) error {
	if len(events) == 0 {
		return cc.ErrNoEventsToAppend
	}

	s.mu.Lock()

	stream := s.streams[streamID]
	if len(stream) != expectedVersion {
		s.mu.Unlock()
		return cc.ErrWrongExpectedVersion
	}

	recordedAt := time.Now()
	recorded := make([]cc.Event, len(events))
	for i, e := range events {
		s.nextEventID++
		meta := e.Metadata()
		meta.EventID = s.nextEventID
		meta.RecordedAt = recordedAt

		recorded[i] = cc.NewEvent(e.EventType(), e.Data(), e.CreatedAt(),
			cc.ForAggregate(e.AggregateType(), e.AggregateID(), e.Version()),
			cc.WithMetadata(meta),
		)
	}

	s.streams[streamID] = append(stream, recorded...)
	s.allEvents = append(s.allEvents, recorded...)

	// The batch each subscriber is owed, and its cursor advancement, are
	// both decided here while s.mu is held, so concurrent appends to
	// other streams never see a stale cursor. The channel send itself
	// happens after s.mu is released: it must never block while s.mu is
	// held, or a single slow subscriber would stall every aggregate's
	// appends, not just its own.
	deliveries := s.pendingDeliveriesLocked()
	s.mu.Unlock()

	for _, d := range deliveries {
		d.sub.deliver(d.batch)
	}

	return nil
}

// SubscribeAll implements the SubscribeAll method of the cqrscore.EventStore
// interface. The in-memory store delivers the whole backlog from
// fromEventID as a single initial batch, then one batch per subsequent
// AppendToStream call. Ack on a delivered batch is a no-op: the
// subscription's cursor advances when a batch is queued for it, so no batch
// is delivered again, whether it was acknowledged or not.
func (s *EventStore) SubscribeAll(ctx context.Context, fromEventID int64) (cc.Subscription, error) {
	s.mu.Lock()

	sub := &subscription{
		store:  s,
		ch:     make(chan cc.EventBatch, 16),
		cursor: fromEventID,
		closed: make(chan struct{}),
	}
	s.subs = append(s.subs, sub)

	backlog := s.batchSinceLocked(fromEventID)
	if len(backlog.Events) > 0 {
		sub.cursor = fromEventID + int64(len(backlog.Events))
	}

	s.mu.Unlock()

	if len(backlog.Events) > 0 {
		sub.deliver(backlog)
	}

	return sub, nil
}

// batchSinceLocked builds a batch of every event with a global ID greater
// than fromEventID. Must be called with s.mu held.
func (s *EventStore) batchSinceLocked(fromEventID int64) cc.EventBatch {
	startIdx := int(fromEventID)
	if startIdx < 0 {
		startIdx = 0
	}
	if startIdx > len(s.allEvents) {
		startIdx = len(s.allEvents)
	}

	events := make([]cc.Event, len(s.allEvents)-startIdx)
	copy(events, s.allEvents[startIdx:])

	return cc.EventBatch{
		Events: events,
		Ack:    func(ctx context.Context, lastEventID int64) error { return nil },
	}
}

// delivery pairs a subscriber with the batch it is owed, computed while
// s.mu was held, for sending once it is released.
type delivery struct {
	sub   *subscription
	batch cc.EventBatch
}

// pendingDeliveriesLocked decides, for every live subscriber, the batch of
// events it is owed since its last delivery, advancing that subscriber's
// cursor immediately so the next append computes its next batch from the
// right starting point regardless of how long this batch's channel send
// takes to land. Must be called with s.mu held.
func (s *EventStore) pendingDeliveriesLocked() []delivery {
	var deliveries []delivery
	for _, sub := range s.subs {
		sub.mu.Lock()
		from := sub.cursor
		batch := s.batchSinceLocked(from)
		if len(batch.Events) == 0 {
			sub.mu.Unlock()
			continue
		}
		sub.cursor = from + int64(len(batch.Events))
		sub.mu.Unlock()

		deliveries = append(deliveries, delivery{sub: sub, batch: batch})
	}
	return deliveries
}

func (s *EventStore) removeSubscription(target *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub == target {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// subscription implements cqrscore.Subscription against the in-memory
// store. Its cursor tracks the highest global event ID already queued for
// delivery on ch. Only the store reads and advances it, in SubscribeAll and
// pendingDeliveriesLocked, always with s.mu held; mu guards it as well.
type subscription struct {
	store  *EventStore
	ch     chan cc.EventBatch
	mu     sync.Mutex
	cursor int64
	closed chan struct{}
	err    error
}

// deliver sends batch to the subscriber's channel, or gives up if the
// subscription is closed first. Its cursor has already been advanced by
// pendingDeliveriesLocked/SubscribeAll before this is called; deliver only
// ever performs the (potentially blocking) channel send, and it does so
// without the store's mutex held, so a slow subscriber never keeps other
// appends from taking the mutex. It does block the AppendToStream or
// SubscribeAll call that is delivering, and that call's deliveries to the
// subscribers after it.
func (sub *subscription) deliver(batch cc.EventBatch) {
	select {
	case sub.ch <- batch:
	case <-sub.closed:
	}
}

// Batches implements the Batches method of the cqrscore.Subscription interface.
func (sub *subscription) Batches() <-chan cc.EventBatch { return sub.ch }

// Err implements the Err method of the cqrscore.Subscription interface.
func (sub *subscription) Err() error { return sub.err }

// Close implements the Close method of the cqrscore.Subscription interface.
func (sub *subscription) Close() {
	select {
	case <-sub.closed:
		return
	default:
		close(sub.closed)
	}
	sub.store.removeSubscription(sub)
}
