// Copyright (c) 2017 - The Event Horizon authors.
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

// Package memory implements an in-memory cqrscore.SnapshotStore, used by
// the test suite and the bundled example. It is not meant for production
// use: a real deployment supplies its own durable SnapshotStore.
package memory

import (
	"context"
	"sync"

	cc "github.com/arcflux/cqrscore"
)

// SnapshotStore implements cqrscore.SnapshotStore as a mutex-guarded map
// keyed by Snapshot.SourceID.
type SnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]cc.Snapshot
}

// NewSnapshotStore creates an empty SnapshotStore.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]cc.Snapshot)}
}

// Load implements cqrscore.SnapshotStore.
func (s *SnapshotStore) Load(ctx context.Context, sourceID string) (cc.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[sourceID]
	if !ok {
		return cc.Snapshot{}, cc.ErrSnapshotNotFound
	}

	return snap, nil
}

// Save implements cqrscore.SnapshotStore.
func (s *SnapshotStore) Save(ctx context.Context, snap cc.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snap.SourceID] = snap

	return nil
}
