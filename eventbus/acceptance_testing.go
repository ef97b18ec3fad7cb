// Copyright (c) 2016 - The Event Horizon authors.
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

// Package eventbus holds the acceptance suite shared by every
// cqrscore.EventBus implementation.
package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEventType cc.EventType = "acceptance:test"

type testEventData struct {
	Content string
}

func init() {
	cc.RegisterEventData(testEventType, func() cc.EventData { return &testEventData{} })
}

// recordingHandler collects every event it is handed, optionally failing
// with a fixed error instead.
type recordingHandler struct {
	name cc.EventHandlerType
	err  error

	mu     sync.Mutex
	events []cc.Event
	got    chan struct{}
}

func newRecordingHandler(name string) *recordingHandler {
	return &recordingHandler{name: cc.EventHandlerType(name), got: make(chan struct{}, 16)}
}

func (h *recordingHandler) HandlerType() cc.EventHandlerType { return h.name }

func (h *recordingHandler) HandleEvent(ctx context.Context, event cc.Event) error {
	if h.err != nil {
		return h.err
	}
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	h.got <- struct{}{}
	return nil
}

func (h *recordingHandler) wait(timeout time.Duration) bool {
	select {
	case <-h.got:
		return true
	case <-time.After(timeout):
		return false
	}
}

// RunAcceptanceTest exercises the cqrscore.EventBus guarantees common to
// every implementation: independent delivery to every matching handler,
// duplicate-registration rejection, and asynchronous error surfacing.
func RunAcceptanceTest(t *testing.T, bus cc.EventBus, timeout time.Duration) {
	t.Helper()

	t.Run("rejects missing matcher or handler", func(t *testing.T) {
		assert.ErrorIs(t, bus.AddHandler(nil, newRecordingHandler("x")), cc.ErrMissingMatcher)
		assert.ErrorIs(t, bus.AddHandler(cc.MatchAll{}, nil), cc.ErrMissingHandler)
	})

	t.Run("rejects duplicate handler type", func(t *testing.T) {
		require.NoError(t, bus.AddHandler(cc.MatchAll{}, newRecordingHandler("dup")))
		err := bus.AddHandler(cc.MatchAll{}, newRecordingHandler("dup"))
		assert.ErrorIs(t, err, cc.ErrHandlerAlreadyAdded)
	})

	t.Run("delivers to every matching handler independently", func(t *testing.T) {
		h1 := newRecordingHandler("h1")
		h2 := newRecordingHandler("h2")
		require.NoError(t, bus.AddHandler(cc.MatchAll{}, h1))
		require.NoError(t, bus.AddHandler(cc.MatchAll{}, h2))

		id := uuid.New()
		event := cc.NewEvent(testEventType, &testEventData{Content: "event1"}, time.Now(),
			cc.ForAggregate("acceptance", id, 1))

		require.NoError(t, bus.PublishEvent(context.Background(), event))

		require.True(t, h1.wait(timeout), "h1 did not receive event in time")
		require.True(t, h2.wait(timeout), "h2 did not receive event in time")

		h1.mu.Lock()
		h2.mu.Lock()
		assert.Len(t, h1.events, 1)
		assert.Len(t, h2.events, 1)
		h2.mu.Unlock()
		h1.mu.Unlock()
	})

	t.Run("ignores events the matcher rejects", func(t *testing.T) {
		h := newRecordingHandler("matched-only")
		require.NoError(t, bus.AddHandler(cc.MatchEventType("other:type"), h))

		id := uuid.New()
		event := cc.NewEvent(testEventType, &testEventData{Content: "nope"}, time.Now(),
			cc.ForAggregate("acceptance", id, 1))

		require.NoError(t, bus.PublishEvent(context.Background(), event))
		assert.False(t, h.wait(100*time.Millisecond))
	})

	t.Run("surfaces handler errors asynchronously", func(t *testing.T) {
		h := newRecordingHandler("errors")
		h.err = errors.New("handler error")
		require.NoError(t, bus.AddHandler(cc.MatchAll{}, h))

		id := uuid.New()
		event := cc.NewEvent(testEventType, &testEventData{Content: "boom"}, time.Now(),
			cc.ForAggregate("acceptance", id, 1))

		require.NoError(t, bus.PublishEvent(context.Background(), event))

		select {
		case err := <-bus.Errors():
			assert.Contains(t, err.Error(), "handler error")
		case <-time.After(timeout):
			t.Fatal("there should be an async error")
		}
	})
}
