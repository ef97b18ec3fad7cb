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
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEventHandler struct {
	err  error
	seen cc.Event
}

func (h *stubEventHandler) HandlerType() cc.EventHandlerType { return "stub" }

func (h *stubEventHandler) HandleEvent(ctx context.Context, event cc.Event) error {
	h.seen = event
	return h.err
}

func TestEventHandler_DelegatesAndPropagatesResult(t *testing.T) {
	inner := &stubEventHandler{}
	h := NewEventHandler(inner)

	event := cc.NewEvent("tracing:test", nil, time.Now(), cc.ForAggregate("tracing", uuid.New(), 1))
	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Equal(t, event, inner.seen)
	assert.Equal(t, cc.EventHandlerType("stub"), h.HandlerType())
}

func TestEventHandler_PropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	inner := &stubEventHandler{err: wantErr}
	h := NewEventHandler(inner)

	event := cc.NewEvent("tracing:test", nil, time.Now(), cc.ForAggregate("tracing", uuid.New(), 1))
	err := h.HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, wantErr)
}
