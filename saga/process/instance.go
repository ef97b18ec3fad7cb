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

package process

import (
	"context"
	"errors"
	"fmt"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

// Instance is a single correlation's process manager state, owned
// exclusively by the Router that created it. It is not safe for concurrent
// use from outside the Router, which only ever calls Process one event at a
// time per instance.
type Instance struct {
	name       string
	id         uuid.UUID
	module     Module
	dispatcher cc.CommandDispatcher
	snapshots  cc.SnapshotStore

	state           any
	lastSeenEventID int64
}

// sourceID is the snapshot key for a named process manager's correlation
// id, matching the SnapshotStore contract's "<name>-<uuid>" convention.
func sourceID(name string, id uuid.UUID) string {
	return fmt.Sprintf("%s-%s", name, id)
}

// newInstance creates an Instance for id, restoring its state and
// last-seen cursor from a snapshot if one exists, or starting empty.
func newInstance(ctx context.Context, name string, id uuid.UUID, module Module, dispatcher cc.CommandDispatcher, snapshots cc.SnapshotStore) (*Instance, error) {
	inst := &Instance{
		name:       name,
		id:         id,
		module:     module,
		dispatcher: dispatcher,
		snapshots:  snapshots,
	}

	snap, err := snapshots.Load(ctx, sourceID(name, id))
	if errors.Is(err, cc.ErrSnapshotNotFound) {
		inst.state = module.NewState()
		inst.lastSeenEventID = 0
		return inst, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load snapshot: %w", err)
	}

	state, err := module.UnmarshalState(snap.Data)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal snapshot state: %w", err)
	}

	inst.state = state
	inst.lastSeenEventID = snap.SourceVersion

	return inst, nil
}

// Process implements the Process Manager Instance operation: skip an
// already-seen event, otherwise run the module, dispatch every emitted
// command in order, and snapshot the resulting state before returning.
//
// A failed dispatch halts processing and is returned to the caller without
// rolling back commands already dispatched ahead of it; this is the
// accepted at-least-once-for-side-effects property, not a bug.
func (inst *Instance) Process(ctx context.Context, event cc.Event) error {
	eventID := event.Metadata().EventID

	if inst.lastSeenEventID != 0 && eventID <= inst.lastSeenEventID {
		return nil
	}

	newState, commands, err := inst.module.Handle(ctx, inst.state, event)
	if err != nil {
		return fmt.Errorf("could not handle event in process %q: %w", inst.name, err)
	}

	for _, cmd := range commands {
		if err := inst.dispatcher.DispatchCommand(ctx, cmd); err != nil {
			return fmt.Errorf("could not dispatch command from process %q: %w", inst.name, err)
		}
	}

	inst.state = newState
	inst.lastSeenEventID = eventID

	data, err := inst.module.MarshalState(newState)
	if err != nil {
		return fmt.Errorf("could not marshal state for snapshot: %w", err)
	}

	snap := cc.Snapshot{
		SourceID:      sourceID(inst.name, inst.id),
		SourceVersion: eventID,
		SourceType:    inst.name,
		Data:          data,
	}
	if err := inst.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("could not save snapshot: %w", err)
	}

	return nil
}
