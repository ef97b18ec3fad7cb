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

// Package aggregate adapts a domain aggregate that handles its own
// commands into the cqrscore.AggregateHandler the Router's routing table
// expects, so most domain packages never need to write that adapter by
// hand.
package aggregate

import (
	"context"
	"errors"

	cc "github.com/arcflux/cqrscore"
)

// ErrAggregateCannotHandleCommand is returned when the loaded aggregate
// does not implement CommandHandler.
var ErrAggregateCannotHandleCommand = errors.New("aggregate cannot handle command")

// CommandHandler is implemented by a domain aggregate that applies
// commands to itself, in the style of the source aggregate's own
// HandleCommand method, rather than delegating to a separate handler
// object registered in the routing table.
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd cc.Command) error
}

// NewHandler returns a cqrscore.AggregateHandler that asserts agg
// implements CommandHandler and calls its HandleCommand. Register it as
// the Handler of a dispatcher.Route for every aggregate type whose domain
// type handles its own commands.
func NewHandler() cc.AggregateHandler {
	return cc.AggregateHandlerFunc(func(ctx context.Context, a cc.Aggregate, cmd cc.Command) error {
		h, ok := a.(CommandHandler)
		if !ok {
			return ErrAggregateCannotHandleCommand
		}
		return h.HandleCommand(ctx, cmd)
	})
}
