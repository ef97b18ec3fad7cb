// Copyright (c) 2021 - The Event Horizon authors.
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

package lock

import (
	"context"
	"testing"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCommand struct {
	id uuid.UUID
}

func (testCommand) CommandType() cc.CommandType { return "lock:test" }

func TestMiddleware(t *testing.T) {
	cmd := testCommand{id: uuid.New()}

	lock := NewLocalLock()
	keyFunc := func(cmd cc.Command) string { return cmd.(testCommand).id.String() }
	m := NewMiddleware(lock, keyFunc)

	longRunning := cc.DispatchFunc(func(ctx context.Context, cmd cc.Command) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	h := cc.UseCommandHandlerMiddleware(longRunning, m)

	errs := make(chan error, 1)
	go func() { errs <- h(context.Background(), cmd) }()

	time.Sleep(10 * time.Millisecond)

	err := h(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrLockExists)

	require.NoError(t, <-errs)

	assert.NoError(t, h(context.Background(), cmd))
}
