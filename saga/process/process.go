// Copyright (c) 2016 - Max Ekman <max@looplab.se>
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

// Package process generalizes the one-shot event-to-commands Saga into a
// correlated, creatable and stoppable process manager: a Router that asks a
// Module which correlation a given event belongs to, and a per-correlation
// Instance that carries domain state across events and resumes from a
// snapshot after a restart.
package process

import (
	"context"
	"sync"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

// Action is the routing decision a Module makes for an event.
type Action int

const (
	// Ignore means the event is of no interest; the router acknowledges it
	// immediately without touching any instance.
	Ignore Action = iota
	// Start means an instance keyed by Interest.CorrelationID should be
	// created if absent, then receive the event.
	Start
	// Continue means an existing instance should receive the event; if
	// none exists, one is recreated from its snapshot (or empty state).
	Continue
	// Stop means the instance receives the event, and is then terminated
	// once it has acknowledged processing it.
	Stop
)

// Interest is the routing decision returned by Module.Interested.
type Interest struct {
	Action        Action
	CorrelationID uuid.UUID
}

// NotInterested is the zero-value, Ignore decision.
var NotInterested = Interest{Action: Ignore}

// Module is the domain logic a process manager runs: one Module instance is
// shared by every correlation Instance the Router creates.
//
// Handle must be pure with respect to external state: all I/O the business
// logic needs happens through the emitted commands a CommandDispatcher
// later dispatches, not inside Handle itself.
type Module interface {
	// Name identifies the process manager, used as the prefix of every
	// instance's snapshot SourceID.
	Name() string
	// Interested decides whether and how the process manager reacts to
	// event.
	Interested(event cc.Event) Interest
	// NewState creates a fresh, empty domain state for a new instance.
	NewState() any
	// Handle applies event to state, returning the updated state and any
	// commands to dispatch, in order, as a side effect.
	Handle(ctx context.Context, state any, event cc.Event) (newState any, commands []cc.Command, err error)
	// MarshalState serializes state for snapshotting.
	MarshalState(state any) ([]byte, error)
	// UnmarshalState restores state from a prior MarshalState call.
	UnmarshalState(data []byte) (any, error)
}

// Router implements cc.EventHandler, routing each event to the Module's
// declared correlation instance. It is meant to be driven by
// eventhandler/runtime.Subscription, whose batch Ack fires only after
// HandleEvent returns — which for Router happens only once the routed
// Instance has itself finished processing and snapshotting, satisfying the
// "ack after instance ack" rule.
type Router struct {
	name       string
	module     Module
	dispatcher cc.CommandDispatcher
	snapshots  cc.SnapshotStore

	mu        sync.Mutex
	instances map[uuid.UUID]*Instance
}

// NewRouter creates a Router for module, dispatching emitted commands
// through dispatcher and persisting/resuming instance state in snapshots.
func NewRouter(module Module, dispatcher cc.CommandDispatcher, snapshots cc.SnapshotStore) *Router {
	return &Router{
		name:       module.Name(),
		module:     module,
		dispatcher: dispatcher,
		snapshots:  snapshots,
		instances:  make(map[uuid.UUID]*Instance),
	}
}

// HandlerType implements cc.EventHandler.
func (r *Router) HandlerType() cc.EventHandlerType {
	return cc.EventHandlerType("process:" + r.name)
}

// HandleEvent implements cc.EventHandler. It asks the Module whether it is
// interested in event and, if so, routes it to the corresponding Instance,
// creating or stopping it as directed.
func (r *Router) HandleEvent(ctx context.Context, event cc.Event) error {
	interest := r.module.Interested(event)

	switch interest.Action {
	case Ignore:
		return nil

	case Start, Continue:
		inst, err := r.instance(ctx, interest.CorrelationID)
		if err != nil {
			return err
		}
		return inst.Process(ctx, event)

	case Stop:
		inst, err := r.instance(ctx, interest.CorrelationID)
		if err != nil {
			return err
		}
		if err := inst.Process(ctx, event); err != nil {
			return err
		}
		r.remove(interest.CorrelationID)
		return nil

	default:
		return nil
	}
}

// instance returns the live Instance for id, creating and, if a snapshot
// exists, resuming one if none is currently running.
func (r *Router) instance(ctx context.Context, id uuid.UUID) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[id]; ok {
		return inst, nil
	}

	inst, err := newInstance(ctx, r.name, id, r.module, r.dispatcher, r.snapshots)
	if err != nil {
		return nil, err
	}

	r.instances[id] = inst

	return inst, nil
}

// remove drops id's instance from the live set. Its snapshot remains, so a
// later Start/Continue for the same correlation resumes rather than
// restarting from empty state.
func (r *Router) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, id)
}
