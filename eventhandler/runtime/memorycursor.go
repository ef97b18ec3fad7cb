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

package runtime

import (
	"context"
	"sync"
)

// MemoryCursorStore is an in-memory, non-persistent CursorStore. Restarting
// the process loses every cursor; it exists for tests and for wiring
// examples, not for production use.
type MemoryCursorStore struct {
	mu      sync.Mutex
	cursors map[string]int64
}

// NewMemoryCursorStore creates an empty MemoryCursorStore.
func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{cursors: map[string]int64{}}
}

// LoadCursor implements CursorStore.
func (s *MemoryCursorStore) LoadCursor(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.cursors[name]
	if !ok {
		return 0, ErrCursorNotFound
	}

	return id, nil
}

// SaveCursor implements CursorStore.
func (s *MemoryCursorStore) SaveCursor(ctx context.Context, name string, eventID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[name] = eventID

	return nil
}
