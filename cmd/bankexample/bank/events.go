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
	"time"

	cc "github.com/arcflux/cqrscore"
)

// AccountOpenedType is recorded once, when an account is first opened.
const AccountOpenedType cc.EventType = "bank:account-opened"

// AccountOpened is the data carried by an AccountOpenedType event.
type AccountOpened struct {
	Owner string
}

// MoneyDepositedType is recorded for every successful deposit.
const MoneyDepositedType cc.EventType = "bank:money-deposited"

// MoneyDeposited is the data carried by a MoneyDepositedType event. Balance
// is the account's balance after the deposit, carried on the event so
// reactors don't need to replay the whole stream to know it.
type MoneyDeposited struct {
	Amount  int
	Balance int
}

// MoneyWithdrawnType is recorded for every successful withdrawal.
const MoneyWithdrawnType cc.EventType = "bank:money-withdrawn"

// MoneyWithdrawn is the data carried by a MoneyWithdrawnType event. Balance
// is the account's balance after the withdrawal.
type MoneyWithdrawn struct {
	Amount  int
	Balance int
}

// AccountFrozenType is recorded once, when FreezeAccount is handled.
const AccountFrozenType cc.EventType = "bank:account-frozen"

// AccountFrozen carries no data; its occurrence is the whole fact.
type AccountFrozen struct{}

// StatementPeriodClosedType marks the end of a statement period. It is not
// recorded against any account's stream; it is a synthetic, time-triggered
// event delivered straight to interested handlers by eventhandler/cron,
// not appended through an aggregate.
const StatementPeriodClosedType cc.EventType = "bank:statement-period-closed"

// StatementPeriodClosed carries the period's closing time.
type StatementPeriodClosed struct {
	ClosedAt time.Time
}

func init() {
	cc.RegisterEventData(AccountOpenedType, func() cc.EventData { return &AccountOpened{} })
	cc.RegisterEventData(MoneyDepositedType, func() cc.EventData { return &MoneyDeposited{} })
	cc.RegisterEventData(MoneyWithdrawnType, func() cc.EventData { return &MoneyWithdrawn{} })
	cc.RegisterEventData(AccountFrozenType, func() cc.EventData { return &AccountFrozen{} })
	cc.RegisterEventData(StatementPeriodClosedType, func() cc.EventData { return &StatementPeriodClosed{} })
}
