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

// Package snapshotstore holds the acceptance suite shared by every
// cqrscore.SnapshotStore implementation.
package snapshotstore

import (
	"context"
	"testing"

	cc "github.com/arcflux/cqrscore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAcceptanceTest exercises every cqrscore.SnapshotStore guarantee: miss
// on an unknown source, round-trip on a known one, and overwrite on a
// second Save. Every SnapshotStore implementation should call it from its
// own test file:
//
//	func TestSnapshotStore(t *testing.T) {
//	    snapshotstore.RunAcceptanceTest(t, NewSnapshotStore())
//	}
func RunAcceptanceTest(t *testing.T, store cc.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing snapshot", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, cc.ErrSnapshotNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		snap := cc.Snapshot{
			SourceID:      "order-1",
			SourceVersion: 3,
			SourceType:    "order",
			Data:          []byte("state-v3"),
		}
		require.NoError(t, store.Save(ctx, snap))

		loaded, err := store.Load(ctx, "order-1")
		require.NoError(t, err)
		assert.Equal(t, snap, loaded)
	})

	t.Run("save overwrites prior snapshot", func(t *testing.T) {
		first := cc.Snapshot{SourceID: "order-2", SourceVersion: 1, Data: []byte("v1")}
		second := cc.Snapshot{SourceID: "order-2", SourceVersion: 2, Data: []byte("v2")}

		require.NoError(t, store.Save(ctx, first))
		require.NoError(t, store.Save(ctx, second))

		loaded, err := store.Load(ctx, "order-2")
		require.NoError(t, err)
		assert.Equal(t, second, loaded)
	})
}
