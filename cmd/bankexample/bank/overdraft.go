// Copyright (c) 2016 - Max Ekman <max@looplab.se>
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
	"encoding/json"
	"fmt"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/saga/process"
)

// overdraftState is the per-account domain state the overdraft process
// manager carries across withdrawals.
type overdraftState struct {
	Frozen bool
}

// OverdraftModule watches withdrawals and freezes an account the first
// time its balance goes negative, by emitting a FreezeAccount command.
type OverdraftModule struct{}

// Name implements process.Module.
func (OverdraftModule) Name() string { return "overdraft" }

// Interested implements process.Module. Every withdrawal continues the
// instance correlated with the withdrawing account; everything else is
// ignored.
func (OverdraftModule) Interested(event cc.Event) process.Interest {
	if event.EventType() != MoneyWithdrawnType {
		return process.NotInterested
	}
	return process.Interest{Action: process.Continue, CorrelationID: event.AggregateID()}
}

// NewState implements process.Module.
func (OverdraftModule) NewState() any { return &overdraftState{} }

// Handle implements process.Module.
func (OverdraftModule) Handle(ctx context.Context, state any, event cc.Event) (any, []cc.Command, error) {
	s, ok := state.(*overdraftState)
	if !ok {
		return nil, nil, fmt.Errorf("bank: overdraft process given unexpected state %T", state)
	}

	if s.Frozen {
		return s, nil, nil
	}

	data, ok := event.Data().(*MoneyWithdrawn)
	if !ok {
		return s, nil, nil
	}

	if data.Balance >= 0 {
		return s, nil, nil
	}

	s.Frozen = true
	return s, []cc.Command{FreezeAccount{AccountID: event.AggregateID()}}, nil
}

// MarshalState implements process.Module.
func (OverdraftModule) MarshalState(state any) ([]byte, error) {
	return json.Marshal(state.(*overdraftState))
}

// UnmarshalState implements process.Module.
func (OverdraftModule) UnmarshalState(data []byte) (any, error) {
	var s overdraftState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
