// Copyright (c) 2020 - The Event Horizon authors.
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

package tracing

import (
	"context"
	"errors"
	"testing"

	cc "github.com/arcflux/cqrscore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCommand struct{}

func (testCommand) CommandType() cc.CommandType { return "tracing:test" }

func TestCommandHandlerMiddleware_WrapsDispatchAndPropagatesResult(t *testing.T) {
	var called bool
	next := cc.DispatchFunc(func(ctx context.Context, cmd cc.Command) error {
		called = true
		return nil
	})

	dispatch := cc.UseCommandHandlerMiddleware(next, NewCommandHandlerMiddleware())
	require.NoError(t, dispatch(context.Background(), testCommand{}))
	assert.True(t, called)
}

func TestCommandHandlerMiddleware_PropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	next := cc.DispatchFunc(func(ctx context.Context, cmd cc.Command) error {
		return wantErr
	})

	dispatch := cc.UseCommandHandlerMiddleware(next, NewCommandHandlerMiddleware())
	err := dispatch(context.Background(), testCommand{})
	assert.ErrorIs(t, err, wantErr)
}
