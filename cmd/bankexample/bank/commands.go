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

// Package bank is a runnable example domain: a bank account aggregate,
// commands and events, a balance read model, and an overdraft process
// manager that freezes an account the first time its balance goes negative.
package bank

import (
	"errors"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/uuid"
)

// AccountAggregateType is the Account aggregate's registered type.
const AccountAggregateType cc.AggregateType = "Account"

// ErrInvalidAmount is returned by Deposit and Withdraw when Amount is not
// positive.
var ErrInvalidAmount = errors.New("amount must be positive")

// OpenAccount opens a new account for owner.
type OpenAccount struct {
	AccountID uuid.UUID
	Owner     string
}

// CommandType implements cqrscore.Command.
func (OpenAccount) CommandType() cc.CommandType { return "bank:open-account" }

// Validate implements validate.Command.
func (c OpenAccount) Validate() error {
	return cc.CheckCommand(c)
}

// Deposit credits an account.
type Deposit struct {
	AccountID uuid.UUID
	Amount    int
}

// CommandType implements cqrscore.Command.
func (Deposit) CommandType() cc.CommandType { return "bank:deposit" }

// Validate implements validate.Command.
func (c Deposit) Validate() error {
	if c.Amount <= 0 {
		return ErrInvalidAmount
	}
	return cc.CheckCommand(c)
}

// Withdraw debits an account, allowed to go negative down to -OverdraftLimit.
type Withdraw struct {
	AccountID uuid.UUID
	Amount    int
}

// CommandType implements cqrscore.Command.
func (Withdraw) CommandType() cc.CommandType { return "bank:withdraw" }

// Validate implements validate.Command.
func (c Withdraw) Validate() error {
	if c.Amount <= 0 {
		return ErrInvalidAmount
	}
	return cc.CheckCommand(c)
}

// FreezeAccount stops an account from accepting further deposits or
// withdrawals. It is normally emitted by the overdraft process manager
// rather than issued directly by a user.
type FreezeAccount struct {
	AccountID uuid.UUID
}

// CommandType implements cqrscore.Command.
func (FreezeAccount) CommandType() cc.CommandType { return "bank:freeze-account" }

func init() {
	cc.RegisterCommand(func() cc.Command { return &OpenAccount{} })
	cc.RegisterCommand(func() cc.Command { return &Deposit{} })
	cc.RegisterCommand(func() cc.Command { return &Withdraw{} })
	cc.RegisterCommand(func() cc.Command { return &FreezeAccount{} })
}

// AccountKey returns the account ID targeted by cmd, for use as a
// lock.NewMiddleware key function: while one command against an account is
// in flight, another against the same account is rejected with
// lock.ErrLockExists rather than queuing behind a busy actor.
func AccountKey(cmd cc.Command) string {
	switch cmd := cmd.(type) {
	case OpenAccount:
		return cmd.AccountID.String()
	case Deposit:
		return cmd.AccountID.String()
	case Withdraw:
		return cmd.AccountID.String()
	case FreezeAccount:
		return cmd.AccountID.String()
	default:
		return ""
	}
}
