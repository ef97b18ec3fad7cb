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

package dispatcher

import (
	"context"
	"fmt"
	"testing"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/aggregate"
	"github.com/arcflux/cqrscore/aggregatestore/actor"
	"github.com/arcflux/cqrscore/eventstore/memory"
	"github.com/arcflux/cqrscore/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetAggregateType cc.AggregateType = "dispatcher:widget"
const pokedType cc.EventType = "dispatcher:poked"

type poked struct{}

func init() {
	cc.RegisterEventData(pokedType, func() cc.EventData { return &poked{} })
	cc.RegisterAggregate(func(id uuid.UUID) cc.Aggregate { return newWidget(id) })
}

// widget is a minimal aggregate used only by this package's tests.
type widget struct {
	*aggregate.Base
	pokes int
}

func newWidget(id uuid.UUID) *widget {
	return &widget{Base: aggregate.NewBase(widgetAggregateType, id)}
}

func (w *widget) ApplyEvent(ctx context.Context, event cc.Event) error {
	if _, ok := event.Data().(*poked); !ok {
		return fmt.Errorf("dispatcher: widget cannot apply event of type %T", event.Data())
	}
	w.pokes++
	return nil
}

// pokeCmd appends a poked event. A zero WidgetID is used to exercise
// ErrInvalidAggregateIdentity.
type pokeCmd struct {
	WidgetID uuid.UUID
}

func (pokeCmd) CommandType() cc.CommandType { return "dispatcher:poke" }

// slowPokeCmd behaves like pokeCmd but blocks until release is closed, to
// exercise timeout precedence.
type slowPokeCmd struct {
	WidgetID uuid.UUID
	release  chan struct{}
}

func (slowPokeCmd) CommandType() cc.CommandType { return "dispatcher:slow-poke" }

type unregisteredCmd struct {
	WidgetID uuid.UUID
}

func (unregisteredCmd) CommandType() cc.CommandType { return "dispatcher:unregistered" }

type widgetHandler struct{}

func (widgetHandler) HandleCommand(ctx context.Context, a cc.Aggregate, cmd cc.Command) error {
	w, ok := a.(*widget)
	if !ok {
		return fmt.Errorf("dispatcher: widgetHandler given unexpected aggregate %T", a)
	}

	switch cmd := cmd.(type) {
	case pokeCmd:
		w.AppendEvent(pokedType, &poked{}, time.Now())
		return nil
	case slowPokeCmd:
		select {
		case <-cmd.release:
		case <-ctx.Done():
			return ctx.Err()
		}
		w.AppendEvent(pokedType, &poked{}, time.Now())
		return nil
	default:
		return fmt.Errorf("dispatcher: widgetHandler cannot handle command of type %T", cmd)
	}
}

func newTestRouter() (*Router, cc.EventStore) {
	store := memory.NewEventStore()
	return NewRouter(actor.NewRegistry(store)), store
}

func TestRouter_DispatchUnregisteredCommand(t *testing.T) {
	r, _ := newTestRouter()
	r.SetRoute(Route{AggregateType: widgetAggregateType, IdentityField: "WidgetID", Handler: widgetHandler{}}, pokeCmd{}.CommandType())

	err := r.DispatchCommand(context.Background(), unregisteredCmd{WidgetID: uuid.New()})
	assert.ErrorIs(t, err, cc.ErrUnregisteredCommand)
}

func TestRouter_DispatchInvalidAggregateIdentity(t *testing.T) {
	r, _ := newTestRouter()
	r.SetRoute(Route{AggregateType: widgetAggregateType, IdentityField: "WidgetID", Handler: widgetHandler{}}, pokeCmd{}.CommandType())

	err := r.DispatchCommand(context.Background(), pokeCmd{})
	assert.ErrorIs(t, err, cc.ErrInvalidAggregateIdentity)
}

func TestRouter_DispatchSucceedsAndAppendsEvent(t *testing.T) {
	r, store := newTestRouter()
	r.SetRoute(Route{AggregateType: widgetAggregateType, IdentityField: "WidgetID", Handler: widgetHandler{}}, pokeCmd{}.CommandType())

	id := uuid.New()
	require.NoError(t, r.DispatchCommand(context.Background(), pokeCmd{WidgetID: id}))

	events, err := store.ReadStreamForward(context.Background(), id, 0, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

// TestRouter_TimeoutOverrideTakesPrecedenceOverRouteTimeout covers the
// Router's timeout precedence rule: a non-zero override passed to Dispatch
// replaces the route's configured Timeout for that one call, even when the
// route's own timeout would have been long enough to succeed.
func TestRouter_TimeoutOverrideTakesPrecedenceOverRouteTimeout(t *testing.T) {
	r, _ := newTestRouter()
	r.SetRoute(Route{
		AggregateType: widgetAggregateType,
		IdentityField: "WidgetID",
		Handler:       widgetHandler{},
		Timeout:       time.Second,
	}, pokeCmd{}.CommandType(), slowPokeCmd{}.CommandType())

	id := uuid.New()
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	err := r.Dispatch(context.Background(), slowPokeCmd{WidgetID: id, release: release}, 20*time.Millisecond)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, cc.ErrAggregateExecutionTimeout)
	assert.Less(t, elapsed, 500*time.Millisecond, "override must bound the call even though the route's own timeout is a full second")
}

// TestRouter_DispatchCommandUsesRouteTimeoutWhenNoOverrideGiven covers the
// other half of the precedence rule: DispatchCommand (used by Process
// Manager Instances through cc.CommandDispatcher) always passes a zero
// override, so it falls back to the route's own configured Timeout.
func TestRouter_DispatchCommandUsesRouteTimeoutWhenNoOverrideGiven(t *testing.T) {
	r, _ := newTestRouter()
	r.SetRoute(Route{
		AggregateType: widgetAggregateType,
		IdentityField: "WidgetID",
		Handler:       widgetHandler{},
		Timeout:       20 * time.Millisecond,
	}, slowPokeCmd{}.CommandType())

	id := uuid.New()
	release := make(chan struct{})
	defer close(release)

	err := r.DispatchCommand(context.Background(), slowPokeCmd{WidgetID: id, release: release})
	assert.ErrorIs(t, err, cc.ErrAggregateExecutionTimeout)
}

// TestRouter_MiddlewareRunsOutermostFirst covers the Router's documented
// middleware ordering: Use registers middleware outermost-first, so the
// first one registered observes a command before the second, both before
// the core dispatch.
func TestRouter_MiddlewareRunsOutermostFirst(t *testing.T) {
	r, _ := newTestRouter()
	r.SetRoute(Route{AggregateType: widgetAggregateType, IdentityField: "WidgetID", Handler: widgetHandler{}}, pokeCmd{}.CommandType())

	var order []string
	recordingMiddleware := func(name string) cc.CommandHandlerMiddleware {
		return func(next cc.DispatchFunc) cc.DispatchFunc {
			return func(ctx context.Context, cmd cc.Command) error {
				order = append(order, name)
				return next(ctx, cmd)
			}
		}
	}
	r.Use(recordingMiddleware("first"), recordingMiddleware("second"))

	require.NoError(t, r.DispatchCommand(context.Background(), pokeCmd{WidgetID: uuid.New()}))
	assert.Equal(t, []string{"first", "second"}, order)
}

// TestRouter_MiddlewareShortCircuitErrorsWithoutDispatching covers a
// middleware's ability to stop a command before it ever reaches the
// Aggregate Registry by returning an error without calling next.
func TestRouter_MiddlewareShortCircuitErrorsWithoutDispatching(t *testing.T) {
	r, store := newTestRouter()
	r.SetRoute(Route{AggregateType: widgetAggregateType, IdentityField: "WidgetID", Handler: widgetHandler{}}, pokeCmd{}.CommandType())

	wantErr := fmt.Errorf("dispatcher: rejected by test middleware")
	r.Use(func(next cc.DispatchFunc) cc.DispatchFunc {
		return func(ctx context.Context, cmd cc.Command) error {
			return wantErr
		}
	})

	id := uuid.New()
	err := r.DispatchCommand(context.Background(), pokeCmd{WidgetID: id})
	assert.ErrorIs(t, err, wantErr)

	// No actor was ever spawned for id: the stream it would have appended
	// to doesn't exist, proving the middleware stopped the command before
	// it reached the Aggregate Registry.
	_, readErr := store.ReadStreamForward(context.Background(), id, 0, 100)
	assert.ErrorIs(t, readErr, cc.ErrStreamNotFound)
}
