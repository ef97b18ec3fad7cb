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

// Package main is a runnable walkthrough of the whole stack: a Router
// dispatching through an Aggregate Registry onto an in-memory EventStore,
// an EventBus feeding a balance read model, an Event Handler Runtime
// subscription driving a ledger log, and a Process Router running an
// overdraft process manager.
package main

import (
	"context"
	"log"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/aggregatestore/actor"
	"github.com/arcflux/cqrscore/cmd/bankexample/bank"
	"github.com/arcflux/cqrscore/commandhandler/aggregate"
	"github.com/arcflux/cqrscore/dispatcher"
	"github.com/arcflux/cqrscore/eventbus/local"
	"github.com/arcflux/cqrscore/eventhandler/cron"
	"github.com/arcflux/cqrscore/eventhandler/runtime"
	"github.com/arcflux/cqrscore/eventstore/memory"
	"github.com/arcflux/cqrscore/middleware/commandhandler/lock"
	"github.com/arcflux/cqrscore/middleware/commandhandler/retry"
	"github.com/arcflux/cqrscore/middleware/commandhandler/validate"
	"github.com/arcflux/cqrscore/saga/process"
	snapshotmemory "github.com/arcflux/cqrscore/snapshotstore/memory"
	"github.com/arcflux/cqrscore/tracing"
	"github.com/arcflux/cqrscore/uuid"
)

type ledger struct{}

func (ledger) HandlerType() cc.EventHandlerType { return "bank:ledger" }

func (ledger) HandleEvent(ctx context.Context, event cc.Event) error {
	log.Printf("ledger: %s", event)
	return nil
}

func main() {
	eventStore := memory.NewEventStore()
	registry := actor.NewRegistry(eventStore)
	router := dispatcher.NewRouter(registry)
	router.Use(
		tracing.NewCommandHandlerMiddleware(),
		validate.NewMiddleware(),
		lock.NewMiddleware(lock.NewLocalLock(), bank.AccountKey),
		retry.NewMiddleware(3, nil),
	)

	handler := aggregate.NewHandler()
	router.SetRoute(dispatcher.Route{
		AggregateType: bank.AccountAggregateType,
		IdentityField: "AccountID",
		Handler:       handler,
		Timeout:       actor.DefaultTimeout,
	}, bank.OpenAccount{}.CommandType(), bank.Deposit{}.CommandType(), bank.Withdraw{}.CommandType(), bank.FreezeAccount{}.CommandType())

	bus := local.NewEventBus()
	balances := bank.NewBalances()
	if err := bus.AddHandler(cc.MatchAll{}, balances); err != nil {
		log.Fatalf("could not add balances handler: %s", err)
	}
	go reportBusErrors(bus)

	ledgerHandler := tracing.NewEventHandler(ledger{})
	sub := runtime.NewSubscription("bank:ledger", eventStore, ledgerHandler, runtime.NewMemoryCursorStore())
	if err := sub.Start(context.Background()); err != nil {
		log.Fatalf("could not start ledger subscription: %s", err)
	}
	go reportSubscriptionErrors(sub)

	// StatementPeriodClosed is never appended to any aggregate's stream;
	// it is delivered straight to the ledger handler on a schedule, for
	// reactors that care about period boundaries rather than account
	// activity. cron.EventHandler wraps the same handler the store
	// subscription above drives, so both sources land in one ledger.
	statementCron := cron.NewEventHandler(ledgerHandler)
	cronCtx, cancelCron := context.WithCancel(context.Background())
	defer cancelCron()
	if err := statementCron.ScheduleEvent(cronCtx, "*/10 * * * * * *", func(closedAt time.Time) cc.Event {
		return cc.NewEvent(bank.StatementPeriodClosedType, &bank.StatementPeriodClosed{ClosedAt: closedAt}, closedAt)
	}); err != nil {
		log.Fatalf("could not schedule statement period closing: %s", err)
	}
	go func() {
		for err := range statementCron.Errors() {
			log.Printf("statement period handler error: %s", err)
		}
	}()

	overdraftRouter := process.NewRouter(bank.OverdraftModule{}, router, snapshotmemory.NewSnapshotStore())
	overdraftSub := runtime.NewSubscription("bank:overdraft", eventStore, overdraftRouter, runtime.NewMemoryCursorStore())
	if err := overdraftSub.Start(context.Background()); err != nil {
		log.Fatalf("could not start overdraft process router: %s", err)
	}
	go reportSubscriptionErrors(overdraftSub)

	ctx := context.Background()
	id := uuid.New()

	must(router.DispatchCommand(ctx, bank.OpenAccount{AccountID: id, Owner: "Athena"}))
	must(router.DispatchCommand(ctx, bank.Deposit{AccountID: id, Amount: 100}))
	must(router.DispatchCommand(ctx, bank.Withdraw{AccountID: id, Amount: 150}))

	// Published to the local event bus separately from the store's
	// all-stream subscriptions, since they're meant for different
	// consumers: the bus is for decoupled local reactors like Balances,
	// the store subscription is for the durable Event Handler Runtime and
	// Process Router. A production wiring would publish from inside the
	// actor's commit path or from a dedicated relay reading the store;
	// here we republish straight from the store's own feed for brevity.
	forwardToBus(ctx, eventStore, bus)

	time.Sleep(50 * time.Millisecond)

	if balance, ok := balances.Balance(id); ok {
		log.Printf("balance for %s: %d", id, balance)
	}

	if err := router.DispatchCommand(ctx, bank.Deposit{AccountID: id, Amount: 10}); err != nil {
		log.Printf("deposit into frozen account rejected as expected: %s", err)
	}
}

// forwardToBus relays the store's whole backlog onto the local bus, for
// read models that want push delivery instead of subscribing to the store
// directly.
func forwardToBus(ctx context.Context, store cc.EventStore, bus cc.EventBus) {
	sub, err := store.SubscribeAll(ctx, 0)
	if err != nil {
		log.Fatalf("could not subscribe for bus relay: %s", err)
	}
	defer sub.Close()

	select {
	case batch := <-sub.Batches():
		for _, event := range batch.Events {
			if err := bus.PublishEvent(ctx, event); err != nil {
				log.Printf("could not publish event to bus: %s", err)
			}
		}
		_ = batch.Ack(ctx, int64(len(batch.Events)))
	case <-time.After(time.Second):
	}
}

func reportBusErrors(bus cc.EventBus) {
	for busErr := range bus.Errors() {
		log.Printf("event bus handler error: %s", busErr)
	}
}

func reportSubscriptionErrors(sub *runtime.Subscription) {
	if err := <-sub.Errors(); err != nil {
		log.Printf("subscription halted: %s", err)
	}
}

func must(err error) {
	if err != nil {
		log.Fatalf("command failed: %s", err)
	}
}
