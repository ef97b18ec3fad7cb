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

package validate

import (
	"context"
	"errors"
	"testing"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCommand struct {
	id uuid.UUID
}

func (testCommand) CommandType() cc.CommandType { return "validate:test" }

func TestMiddleware_Immediate(t *testing.T) {
	var handled []cc.Command
	inner := cc.DispatchFunc(func(ctx context.Context, cmd cc.Command) error {
		handled = append(handled, cmd)
		return nil
	})

	h := cc.UseCommandHandlerMiddleware(inner, NewMiddleware())
	cmd := testCommand{id: uuid.New()}
	require.NoError(t, h(context.Background(), cmd))
	assert.Equal(t, []cc.Command{cmd}, handled)
}

func TestMiddleware_WithValidationError(t *testing.T) {
	var handled []cc.Command
	inner := cc.DispatchFunc(func(ctx context.Context, cmd cc.Command) error {
		handled = append(handled, cmd)
		return nil
	})

	h := cc.UseCommandHandlerMiddleware(inner, NewMiddleware())
	cmd := testCommand{id: uuid.New()}
	e := errors.New("a validation error")
	c := CommandWithValidation(cmd, func() error { return e })

	err := h(context.Background(), c)
	var validateErr Error
	require.ErrorAs(t, err, &validateErr)
	assert.ErrorIs(t, err, e)
	assert.Empty(t, handled)
}

func TestMiddleware_WithValidationNoError(t *testing.T) {
	var handled []cc.Command
	inner := cc.DispatchFunc(func(ctx context.Context, cmd cc.Command) error {
		handled = append(handled, cmd)
		return nil
	})

	h := cc.UseCommandHandlerMiddleware(inner, NewMiddleware())
	cmd := testCommand{id: uuid.New()}
	c := CommandWithValidation(cmd, func() error { return nil })

	require.NoError(t, h(context.Background(), c))
	assert.Equal(t, []cc.Command{c}, handled)
}
