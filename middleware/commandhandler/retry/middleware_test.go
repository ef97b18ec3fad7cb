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

package retry

import (
	"context"
	"errors"
	"testing"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCommand struct{ id uuid.UUID }

func (testCommand) CommandType() cc.CommandType { return "retry:test" }

func TestMiddleware_RetriesWrongExpectedVersion(t *testing.T) {
	attempts := 0
	inner := cc.DispatchFunc(func(ctx context.Context, cmd cc.Command) error {
		attempts++
		if attempts < 3 {
			return cc.ErrWrongExpectedVersion
		}
		return nil
	})

	h := cc.UseCommandHandlerMiddleware(inner, NewMiddleware(5, nil))
	require.NoError(t, h(context.Background(), testCommand{id: uuid.New()}))
	assert.Equal(t, 3, attempts)
}

func TestMiddleware_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	inner := cc.DispatchFunc(func(ctx context.Context, cmd cc.Command) error {
		attempts++
		return cc.ErrWrongExpectedVersion
	})

	h := cc.UseCommandHandlerMiddleware(inner, NewMiddleware(2, nil))
	err := h(context.Background(), testCommand{id: uuid.New()})
	assert.ErrorIs(t, err, cc.ErrWrongExpectedVersion)
	assert.Equal(t, 3, attempts)
}

func TestMiddleware_DoesNotRetryNonRetryableError(t *testing.T) {
	attempts := 0
	domainErr := errors.New("domain failure")
	inner := cc.DispatchFunc(func(ctx context.Context, cmd cc.Command) error {
		attempts++
		return domainErr
	})

	h := cc.UseCommandHandlerMiddleware(inner, NewMiddleware(5, nil))
	err := h(context.Background(), testCommand{id: uuid.New()})
	assert.ErrorIs(t, err, domainErr)
	assert.Equal(t, 1, attempts)
}
