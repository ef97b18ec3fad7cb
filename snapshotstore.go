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
)

// ErrSnapshotNotFound is returned by SnapshotStore.Load when no snapshot
// has been recorded for the given source ID. Like ErrStreamNotFound, it is
// an expected control-flow signal, not a user-facing error.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is an opaque resume point for a Process Manager Instance. The
// core never interprets Data; the owning process manager module is
// responsible for reconstructing its domain state from it.
type Snapshot struct {
	// SourceID identifies the snapshot's owner, conventionally
	// "<process manager name>-<correlation uuid>".
	SourceID string
	// SourceVersion is the global event ID that produced this snapshot,
	// i.e. the last event the owner had processed.
	SourceVersion int64
	// SourceType names the owning process manager module.
	SourceType string
	// Data is the opaque, owner-defined serialized state.
	Data []byte
}

// SnapshotStore persists and restores Snapshot values, keyed by SourceID.
// Snapshots are owned exclusively by the Process Manager Instance that
// wrote them; nothing else in the core reads or writes a given key.
type SnapshotStore interface {
	Load(ctx context.Context, sourceID string) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}
