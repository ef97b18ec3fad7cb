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

package cron

import (
	"context"
	"sync"
	"testing"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tickedType cc.EventType = "cron:ticked"

type ticked struct{}

func init() {
	cc.RegisterEventData(tickedType, func() cc.EventData { return &ticked{} })
}

// recordingHandler collects every event handed to it, guarded by a mutex
// since ScheduleEvent delivers from its own goroutine.
type recordingHandler struct {
	mu     sync.Mutex
	events []cc.Event
}

func (h *recordingHandler) HandlerType() cc.EventHandlerType { return "cron:test-recorder" }

func (h *recordingHandler) HandleEvent(ctx context.Context, event cc.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestEventHandler_ScheduleEventDeliversOnEveryTick(t *testing.T) {
	inner := &recordingHandler{}
	h := NewEventHandler(inner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := h.ScheduleEvent(ctx, "* * * * * * *", func(tickTime time.Time) cc.Event {
		return cc.NewEvent(tickedType, &ticked{}, tickTime)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return inner.count() >= 2 }, 3*time.Second, 10*time.Millisecond)

	cancel()
	countAtCancel := inner.count()
	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, countAtCancel, inner.count(), "cancelling the schedule's context must stop further ticks")
}

func TestEventHandler_ReportsHandlerErrorsWithoutStoppingSchedule(t *testing.T) {
	wantErr := assert.AnError
	calls := 0
	failThenSucceed := &failingHandler{errOnCall: map[int]error{0: wantErr}, calls: &calls}
	h := NewEventHandler(failThenSucceed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, h.ScheduleEvent(ctx, "* * * * * * *", func(tickTime time.Time) cc.Event {
		return cc.NewEvent(tickedType, &ticked{}, tickTime)
	}))

	select {
	case err := <-h.Errors():
		assert.ErrorIs(t, err, wantErr)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the first tick's error to be reported")
	}

	require.Eventually(t, func() bool {
		failThenSucceed.mu.Lock()
		defer failThenSucceed.mu.Unlock()
		return calls >= 2
	}, 3*time.Second, 10*time.Millisecond, "a handler error must not stop later ticks")
}

// failingHandler fails its first call and succeeds on every call after,
// to verify a handler error doesn't halt the schedule the way a
// runtime.Subscription halts on handler error.
type failingHandler struct {
	mu        sync.Mutex
	calls     *int
	errOnCall map[int]error
}

func (h *failingHandler) HandlerType() cc.EventHandlerType { return "cron:test-failing" }

func (h *failingHandler) HandleEvent(ctx context.Context, event cc.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.errOnCall[*h.calls]
	*h.calls++
	return err
}
