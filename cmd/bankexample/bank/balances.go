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

package bank

import (
	"context"
	"sync"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

// Balances is a read model of every account's current balance, kept up to
// date by subscribing to the event bus as a cc.EventHandler.
type Balances struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]int
}

// NewBalances creates an empty Balances read model.
func NewBalances() *Balances {
	return &Balances{balances: make(map[uuid.UUID]int)}
}

// HandlerType implements cqrscore.EventHandler.
func (b *Balances) HandlerType() cc.EventHandlerType { return "bank:balances" }

// HandleEvent implements cqrscore.EventHandler.
func (b *Balances) HandleEvent(ctx context.Context, event cc.Event) error {
	switch data := event.Data().(type) {
	case *AccountOpened:
		b.mu.Lock()
		b.balances[event.AggregateID()] = 0
		b.mu.Unlock()
	case *MoneyDeposited:
		b.mu.Lock()
		b.balances[event.AggregateID()] = data.Balance
		b.mu.Unlock()
	case *MoneyWithdrawn:
		b.mu.Lock()
		b.balances[event.AggregateID()] = data.Balance
		b.mu.Unlock()
	}
	return nil
}

// Balance returns id's last known balance and whether it has been seen.
func (b *Balances) Balance(id uuid.UUID) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	balance, ok := b.balances[id]
	return balance, ok
}
