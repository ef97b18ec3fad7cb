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

package actor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/eventstore/memory"
	"github.com/arcflux/cqrscore/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLoadFailed = errors.New("actor: simulated load failure")

// flakyReadStore wraps an EventStore and fails the first failReads calls
// to ReadStreamForward, to simulate an actor whose initial load crashes
// before it ever starts servicing commands.
type flakyReadStore struct {
	cc.EventStore
	failReads int32
}

func (s *flakyReadStore) ReadStreamForward(ctx context.Context, streamID uuid.UUID, fromVersion, maxCount int) ([]cc.Event, error) {
	if atomic.AddInt32(&s.failReads, -1) >= 0 {
		return nil, errLoadFailed
	}
	return s.EventStore.ReadStreamForward(ctx, streamID, fromVersion, maxCount)
}

// TestRegistry_CrashRestartReloadsFullHistory covers spec Scenario 6: an
// actor whose initial load fails never services a command; the registry
// evicts it, and the next request spawns a fresh actor that replays the
// stream's entire history before accepting work, rather than resuming
// from whatever partial state the failed attempt had.
func TestRegistry_CrashRestartReloadsFullHistory(t *testing.T) {
	inner := memory.NewEventStore()
	id := uuid.New()

	seed := cc.NewEvent(incrementedType, &incremented{By: 7}, time.Now(),
		cc.ForAggregate(counterAggregateType, id, 1))
	require.NoError(t, inner.AppendToStream(context.Background(), id, 0, []cc.Event{seed}))

	store := &flakyReadStore{EventStore: inner, failReads: 1}
	registry := NewRegistry(store)

	err := registry.Execute(context.Background(), counterAggregateType, id, incrementCmd{ID: id, By: 1}, counterHandler{}, time.Second)
	require.ErrorIs(t, err, errLoadFailed)

	// The failed actor must not linger in the registry's map servicing
	// nothing: a second attempt has to spawn a brand new actor, not reuse
	// the dead one.
	err = registry.Execute(context.Background(), counterAggregateType, id, incrementCmd{ID: id, By: 3}, counterHandler{}, time.Second)
	require.NoError(t, err)

	events, err := inner.ReadStreamForward(context.Background(), id, 0, 100)
	require.NoError(t, err)
	require.Len(t, events, 2, "fresh actor must have replayed the seeded event before appending its own")
	assert.Equal(t, 7, events[0].Data().(*incremented).By)
	assert.Equal(t, 3, events[1].Data().(*incremented).By)
	assert.Equal(t, 2, events[1].Version())
}

// TestRegistry_PropagatesWrongExpectedVersion covers spec Scenario 6's
// other half: a second writer appending to the same stream out from under
// a live actor causes that actor's own next commit to collide, and the
// resulting cqrscore.ErrWrongExpectedVersion reaches the Dispatch caller
// unchanged rather than being swallowed or retried by the actor itself
// (retrying is the Router's retry middleware's job, not the actor's).
func TestRegistry_PropagatesWrongExpectedVersion(t *testing.T) {
	store := memory.NewEventStore()
	id := uuid.New()
	registry := NewRegistry(store)

	// Spawn the actor and let it load (empty stream, version 0).
	require.NoError(t, registry.Execute(context.Background(), counterAggregateType, id, incrementCmd{ID: id, By: 1}, counterHandler{}, time.Second))

	// A second writer appends directly, bypassing the actor, advancing
	// the stream to version 2 underneath it.
	foreign := cc.NewEvent(incrementedType, &incremented{By: 100}, time.Now(),
		cc.ForAggregate(counterAggregateType, id, 2))
	require.NoError(t, store.AppendToStream(context.Background(), id, 1, []cc.Event{foreign}))

	err := registry.Execute(context.Background(), counterAggregateType, id, incrementCmd{ID: id, By: 1}, counterHandler{}, time.Second)
	assert.ErrorIs(t, err, cc.ErrWrongExpectedVersion)
}

// TestRegistry_GetOrStartReturnsSameActorForSameIdentity covers the
// Aggregate Registry's core invariant: concurrent requests for the same
// (AggregateType, UUID) resolve to exactly one live actor.
func TestRegistry_GetOrStartReturnsSameActorForSameIdentity(t *testing.T) {
	store := memory.NewEventStore()
	id := uuid.New()
	registry := NewRegistry(store)

	a1, err := registry.GetOrStart(context.Background(), counterAggregateType, id)
	require.NoError(t, err)
	a2, err := registry.GetOrStart(context.Background(), counterAggregateType, id)
	require.NoError(t, err)

	assert.Same(t, a1, a2)

	other, err := registry.GetOrStart(context.Background(), counterAggregateType, uuid.New())
	require.NoError(t, err)
	assert.NotSame(t, a1, other)
}
