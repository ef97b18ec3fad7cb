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
	"errors"
	"fmt"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/aggregate"
	"github.com/arcflux/cqrscore/uuid"
)

// OverdraftLimit is how far below zero Withdraw is allowed to take an
// account's balance before ErrInsufficientFunds.
const OverdraftLimit = 100

// ErrAccountAlreadyOpen is returned by OpenAccount on an already-open account.
var ErrAccountAlreadyOpen = errors.New("account already open")

// ErrAccountNotOpen is returned by Deposit/Withdraw on an unopened account.
var ErrAccountNotOpen = errors.New("account not open")

// ErrAccountFrozen is returned by Deposit/Withdraw on a frozen account.
var ErrAccountFrozen = errors.New("account frozen")

// ErrInsufficientFunds is returned by Withdraw when the balance would go
// past OverdraftLimit below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Account is the bank account aggregate.
type Account struct {
	*aggregate.Base

	owner   string
	balance int
	opened  bool
	frozen  bool
}

// NewAccount creates an unopened Account with the given ID.
func NewAccount(id uuid.UUID) *Account {
	return &Account{Base: aggregate.NewBase(AccountAggregateType, id)}
}

func init() {
	cc.RegisterAggregate(func(id uuid.UUID) cc.Aggregate { return NewAccount(id) })
}

// Balance returns the account's current balance.
func (a *Account) Balance() int { return a.balance }

// HandleCommand implements the pure handle(state, command) contract the
// commandhandler/aggregate adapter looks for.
func (a *Account) HandleCommand(ctx context.Context, cmd cc.Command) error {
	switch cmd := cmd.(type) {
	case OpenAccount:
		if a.opened {
			return cc.NewDomainError(ErrAccountAlreadyOpen)
		}
		a.AppendEvent(AccountOpenedType, &AccountOpened{Owner: cmd.Owner}, time.Now())
		return nil

	case Deposit:
		if err := a.requireUsable(); err != nil {
			return err
		}
		balance := a.balance + cmd.Amount
		a.AppendEvent(MoneyDepositedType, &MoneyDeposited{Amount: cmd.Amount, Balance: balance}, time.Now())
		return nil

	case Withdraw:
		if err := a.requireUsable(); err != nil {
			return err
		}
		balance := a.balance - cmd.Amount
		if balance < -OverdraftLimit {
			return cc.NewDomainError(ErrInsufficientFunds)
		}
		a.AppendEvent(MoneyWithdrawnType, &MoneyWithdrawn{Amount: cmd.Amount, Balance: balance}, time.Now())
		return nil

	case FreezeAccount:
		if a.frozen {
			return nil
		}
		a.AppendEvent(AccountFrozenType, &AccountFrozen{}, time.Now())
		return nil

	default:
		return fmt.Errorf("bank: account cannot handle command of type %T", cmd)
	}
}

func (a *Account) requireUsable() error {
	if !a.opened {
		return cc.NewDomainError(ErrAccountNotOpen)
	}
	if a.frozen {
		return cc.NewDomainError(ErrAccountFrozen)
	}
	return nil
}

// ApplyEvent implements the cqrscore.Aggregate interface.
func (a *Account) ApplyEvent(ctx context.Context, event cc.Event) error {
	switch data := event.Data().(type) {
	case *AccountOpened:
		a.opened = true
		a.owner = data.Owner
	case *MoneyDeposited:
		a.balance = data.Balance
	case *MoneyWithdrawn:
		a.balance = data.Balance
	case *AccountFrozen:
		a.frozen = true
	default:
		return fmt.Errorf("bank: account cannot apply event of type %T", event.Data())
	}
	return nil
}
