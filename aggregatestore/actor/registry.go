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
	"sync"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

type key struct {
	aggregateType cc.AggregateType
	id            uuid.UUID
}

// Registry guarantees at most one live Actor per (AggregateType, UUID)
// within the process. It is the single writer for the actor map: every
// insert happens under its mutex, so concurrent GetOrStart calls for the
// same identity always observe or create exactly one actor.
type Registry struct {
	store cc.EventStore

	mu      sync.Mutex
	actors  map[key]*Actor
}

// NewRegistry creates a Registry backed by store. All actors it spawns
// load from and append to store.
func NewRegistry(store cc.EventStore) *Registry {
	return &Registry{
		store:  store,
		actors: make(map[key]*Actor),
	}
}

// GetOrStart returns the actor for (aggregateType, id), spawning it lazily
// on first use. If a previously spawned actor failed during its initial
// load (and is therefore no longer servicing commands), it is evicted and
// a fresh one is spawned in its place, which reloads full history before
// accepting commands, per the Aggregate Actor's restart contract.
func (r *Registry) GetOrStart(ctx context.Context, aggregateType cc.AggregateType, id uuid.UUID) (*Actor, error) {
	k := key{aggregateType: aggregateType, id: id}

	r.mu.Lock()
	a, ok := r.actors[k]
	if ok && a.failed() {
		delete(r.actors, k)
		ok = false
	}
	if !ok {
		a = newActor(aggregateType, id, r.store)
		r.actors[k] = a
	}
	r.mu.Unlock()

	select {
	case <-a.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if a.initErr != nil {
		r.mu.Lock()
		if r.actors[k] == a {
			delete(r.actors, k)
		}
		r.mu.Unlock()
		return nil, a.initErr
	}

	return a, nil
}

// Execute resolves the actor for (aggregateType, id) and executes cmd
// against it, applying the given timeout (DefaultTimeout if zero).
func (r *Registry) Execute(ctx context.Context, aggregateType cc.AggregateType, id uuid.UUID, cmd cc.Command, handler cc.AggregateHandler, timeout time.Duration) error {
	a, err := r.GetOrStart(ctx, aggregateType, id)
	if err != nil {
		return err
	}
	return a.Execute(ctx, cmd, handler, timeout)
}

// failed reports whether the actor's loop has already exited due to a
// failed initial load.
func (a *Actor) failed() bool {
	select {
	case <-a.done:
		return a.initErr != nil
	default:
		return false
	}
}
