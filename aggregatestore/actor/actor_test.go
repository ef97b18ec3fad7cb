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

package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/aggregate"
	"github.com/arcflux/cqrscore/eventstore/memory"
	"github.com/arcflux/cqrscore/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterAggregateType cc.AggregateType = "actor:counter"
const incrementedType cc.EventType = "actor:incremented"

type incremented struct {
	By int
}

func init() {
	cc.RegisterEventData(incrementedType, func() cc.EventData { return &incremented{} })
	cc.RegisterAggregate(func(id uuid.UUID) cc.Aggregate { return newCounter(id) })
}

// counter is a minimal aggregate used only by this package's tests: it
// sums every incrementCmd it is handed.
type counter struct {
	*aggregate.Base
	value int
}

func newCounter(id uuid.UUID) *counter {
	return &counter{Base: aggregate.NewBase(counterAggregateType, id)}
}

func (c *counter) ApplyEvent(ctx context.Context, event cc.Event) error {
	data, ok := event.Data().(*incremented)
	if !ok {
		return fmt.Errorf("actor: counter cannot apply event of type %T", event.Data())
	}
	c.value += data.By
	return nil
}

// incrementCmd increments the target counter by By.
type incrementCmd struct {
	ID uuid.UUID
	By int
}

func (incrementCmd) CommandType() cc.CommandType { return "actor:increment" }

// failCmd always fails with a domain error, without appending any event.
type failCmd struct {
	ID uuid.UUID
}

func (failCmd) CommandType() cc.CommandType { return "actor:fail" }

// blockCmd increments by 1, but only after release is closed, letting a
// test hold the actor's single goroutine busy on purpose.
type blockCmd struct {
	ID      uuid.UUID
	release chan struct{}
}

func (blockCmd) CommandType() cc.CommandType { return "actor:block" }

var errCounterFailed = errors.New("counter: handler failure")

// counterHandler implements cc.AggregateHandler for the counter aggregate.
type counterHandler struct{}

func (counterHandler) HandleCommand(ctx context.Context, a cc.Aggregate, cmd cc.Command) error {
	c, ok := a.(*counter)
	if !ok {
		return fmt.Errorf("actor: counterHandler given unexpected aggregate %T", a)
	}

	switch cmd := cmd.(type) {
	case incrementCmd:
		c.AppendEvent(incrementedType, &incremented{By: cmd.By}, time.Now())
		return nil
	case failCmd:
		return cc.NewDomainError(errCounterFailed)
	case blockCmd:
		select {
		case <-cmd.release:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.AppendEvent(incrementedType, &incremented{By: 1}, time.Now())
		return nil
	default:
		return fmt.Errorf("actor: counterHandler cannot handle command of type %T", cmd)
	}
}

func TestActor_ExecuteAppendsAndAppliesEvent(t *testing.T) {
	store := memory.NewEventStore()
	id := uuid.New()
	a := newActor(counterAggregateType, id, store)

	err := a.Execute(context.Background(), incrementCmd{ID: id, By: 3}, counterHandler{}, time.Second)
	require.NoError(t, err)

	events, err := store.ReadStreamForward(context.Background(), id, 0, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].Data().(*incremented).By)
}

func TestActor_DomainErrorAppendsNoEvent(t *testing.T) {
	store := memory.NewEventStore()
	id := uuid.New()
	a := newActor(counterAggregateType, id, store)

	err := a.Execute(context.Background(), failCmd{ID: id}, counterHandler{}, time.Second)

	var domainErr cc.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.ErrorIs(t, domainErr, errCounterFailed)

	_, readErr := store.ReadStreamForward(context.Background(), id, 0, 100)
	assert.ErrorIs(t, readErr, cc.ErrStreamNotFound)
}

// TestActor_ExecuteHonorsTimeoutOverride covers spec Scenario 1: a caller
// bounded by a short timeout gets ErrAggregateExecutionTimeout back
// promptly, while the actor's single goroutine keeps working the same job
// to completion in the background and commits it once unblocked, so a
// later caller observes the effect rather than losing it.
func TestActor_ExecuteHonorsTimeoutOverride(t *testing.T) {
	store := memory.NewEventStore()
	id := uuid.New()
	a := newActor(counterAggregateType, id, store)

	release := make(chan struct{})
	start := time.Now()
	err := a.Execute(context.Background(), blockCmd{ID: id, release: release}, counterHandler{}, 20*time.Millisecond)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, cc.ErrAggregateExecutionTimeout)
	assert.Less(t, elapsed, 500*time.Millisecond)

	close(release)

	// The blocked command commits once released, even though its own
	// caller already gave up; a fresh command queued right behind it
	// proves the single-writer goroutine processed both in order.
	require.NoError(t, a.Execute(context.Background(), incrementCmd{ID: id, By: 5}, counterHandler{}, time.Second))

	events, err := store.ReadStreamForward(context.Background(), id, 0, 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Data().(*incremented).By)
	assert.Equal(t, 5, events[1].Data().(*incremented).By)
}

// TestActor_SerializesConcurrentCommands covers spec Scenario 2: many
// commands against the same actor, submitted concurrently, are still
// applied one at a time in some order with no lost updates, since the
// actor's inbox goroutine processes exactly one job to completion before
// starting the next.
func TestActor_SerializesConcurrentCommands(t *testing.T) {
	store := memory.NewEventStore()
	id := uuid.New()
	a := newActor(counterAggregateType, id, store)

	const n = 25
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = a.Execute(context.Background(), incrementCmd{ID: id, By: 1}, counterHandler{}, time.Second)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	events, err := store.ReadStreamForward(context.Background(), id, 0, n*2)
	require.NoError(t, err)
	require.Len(t, events, n)
	for i, e := range events {
		assert.Equal(t, i+1, e.Version())
	}
}
