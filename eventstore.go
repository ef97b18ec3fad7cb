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

	"github.com/arcflux/cqrscore/uuid"
)

// EventStoreError wraps a failure from an EventStore implementation.
type EventStoreError struct {
	// Err is the error.
	Err error
	// BaseErr is an optional underlying error, for example from a DB driver.
	BaseErr error
}

// Error implements the error interface.
func (e EventStoreError) Error() string {
	if e.BaseErr != nil {
		return e.Err.Error() + ": " + e.BaseErr.Error()
	}
	return e.Err.Error()
}

// Unwrap implements errors.Unwrap.
func (e EventStoreError) Unwrap() error { return e.Err }

// ErrNoEventsToAppend is when no events are available to append.
var ErrNoEventsToAppend = errors.New("no events to append")

// ErrStreamNotFound is returned by ReadStreamForward when the stream has
// never been written to. It is a control-flow signal distinguishing a
// brand new aggregate from a load failure, not a user-facing error.
var ErrStreamNotFound = errors.New("event stream not found")

// ErrWrongExpectedVersion is the optimistic concurrency failure returned by
// AppendToStream when the stream's current version does not match the
// expected version supplied by the caller. It is retryable: the caller
// should reload the aggregate and reapply the command.
var ErrWrongExpectedVersion = errors.New("wrong expected version")

// EventBatch is a contiguous, ordered slice of events delivered to an
// all-stream subscriber, paired with the means to acknowledge how far the
// subscriber has successfully processed.
type EventBatch struct {
	Events []Event

	// Ack persists the given global event ID as the subscriber's new
	// cursor. It must be called with the highest EventID the subscriber has
	// fully processed, even if some events in the batch were skipped as
	// already seen.
	Ack func(ctx context.Context, lastEventID int64) error
}

// Subscription is a live, ordered feed of EventBatch values starting from
// the position given to EventStore.SubscribeAll.
type Subscription interface {
	// Batches delivers event batches in ascending global event ID order.
	// It is closed when the subscription is closed or the store cannot
	// continue delivering (see Err).
	Batches() <-chan EventBatch
	// Err reports the terminal error, if the channel returned by Batches
	// closed because of a failure rather than a call to Close.
	Err() error
	// Close stops delivery and releases the subscription's resources.
	Close()
}

// EventStore is an append-only, per-stream-versioned, globally-ordered
// event log. It is the sole collaborator the Aggregate Actor uses for
// durability, and the sole source the Event Handler Runtime and Process
// Router observe for reactions.
type EventStore interface {
	// ReadStreamForward reads events from a stream in ascending stream
	// version order, starting after fromVersion, at most maxCount events.
	// Returns ErrStreamNotFound if the stream has never been appended to.
	ReadStreamForward(ctx context.Context, streamID uuid.UUID, fromVersion, maxCount int) ([]Event, error)

	// AppendToStream atomically appends events to a stream, assigning
	// contiguous stream versions starting at expectedVersion+1. Returns
	// ErrWrongExpectedVersion if the stream's current version does not
	// match expectedVersion.
	AppendToStream(ctx context.Context, streamID uuid.UUID, expectedVersion int, events []Event) error

	// SubscribeAll subscribes to every event appended to the store, in
	// ascending global event ID order, starting strictly after
	// fromEventID (0 to receive the whole log).
	SubscribeAll(ctx context.Context, fromEventID int64) (Subscription, error)
}

// LoadBatchSize is the number of events the Aggregate Actor reads per call
// to ReadStreamForward while replaying a stream during initialization. It
// is a design constant trading recovery latency against memory: smaller
// values keep any one read small at the cost of more round trips for long
// streams.
const LoadBatchSize = 100
