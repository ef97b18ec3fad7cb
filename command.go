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

package cqrscore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arcflux/cqrscore/uuid"
)

// Command is a domain command that is sent to a Dispatcher.
//
// A command name should 1) be in present tense and 2) contain the intent
// (MoveCustomer vs CorrectCustomerAddress).
//
// Unlike Event, Command carries its aggregate ID under a field whose name
// is not fixed by this interface: the Router is told which field to read
// when the command type is registered (its IdentityField), since command
// families in the same system commonly name that field differently
// (AccountID, OrderID, ...). Fields may take an optional "eh" tag, which
// adds properties; for now only "optional" is valid: `eh:"optional"`.
type Command interface {
	// CommandType returns the type of the command.
	CommandType() CommandType
}

// CommandType is the type of a command, used as its unique identifier.
type CommandType string

// AggregateHandler applies a command to an aggregate's already-loaded
// domain state. It is the pure collaborator the Aggregate Actor calls
// during execute: it may append pending events to a via a's own API (see
// aggregate.Base.AppendEvent) but MUST NOT perform I/O or otherwise touch
// state outside of a. Domain aggregates commonly implement it themselves.
type AggregateHandler interface {
	HandleCommand(ctx context.Context, a Aggregate, cmd Command) error
}

// AggregateHandlerFunc is a function that implements AggregateHandler.
type AggregateHandlerFunc func(ctx context.Context, a Aggregate, cmd Command) error

// HandleCommand implements the AggregateHandler interface for AggregateHandlerFunc.
func (f AggregateHandlerFunc) HandleCommand(ctx context.Context, a Aggregate, cmd Command) error {
	return f(ctx, a, cmd)
}

// DispatchFunc dispatches a single command, returning the result of routing
// it through the Aggregate Registry and Aggregate Actor.
type DispatchFunc func(ctx context.Context, cmd Command) error

// CommandHandlerMiddleware wraps a DispatchFunc, allowing a chain of
// cross-cutting concerns (validation, retries, tracing) to observe a
// command before dispatch and its result after, and to short-circuit
// dispatch entirely by returning an error without calling next.
type CommandHandlerMiddleware func(next DispatchFunc) DispatchFunc

// UseCommandHandlerMiddleware wraps next in a chain of middleware, applied
// outermost first: middleware[0] sees the command before middleware[1], and
// so on down to next.
func UseCommandHandlerMiddleware(next DispatchFunc, middleware ...CommandHandlerMiddleware) DispatchFunc {
	for i := len(middleware) - 1; i >= 0; i-- {
		next = middleware[i](next)
	}
	return next
}

// CommandDispatcher dispatches a single command, hiding the Router behind
// the minimal seam a Process Manager Instance needs to issue emitted
// commands without depending on the dispatcher package directly.
type CommandDispatcher interface {
	DispatchCommand(ctx context.Context, cmd Command) error
}

// ErrInvalidAggregateIdentity is returned by the Router when a command's
// identity field is missing, of the wrong type, or zero-valued.
var ErrInvalidAggregateIdentity = errors.New("invalid aggregate identity")

var commands = make(map[CommandType]func() Command)
var commandsMu sync.RWMutex

// ErrCommandNotRegistered is returned by CreateCommand when no factory was
// registered for the given type. It is used by wire codecs (see
// codec/bson) that need to materialize a concrete Command from a type tag;
// the in-process Router never needs it, since callers already hold a
// concrete Command value.
var ErrCommandNotRegistered = errors.New("command not registered")

// RegisterCommand registers a command factory for a type, used by wire
// codecs to create concrete command values when decoding.
//
//	RegisterCommand(func() Command { return &MyCommand{} })
func RegisterCommand(factory func() Command) {
	cmd := factory()
	if cmd == nil {
		panic("cqrscore: created command is nil")
	}

	t := cmd.CommandType()
	if t == CommandType("") {
		panic("cqrscore: attempt to register empty command type")
	}

	commandsMu.Lock()
	defer commandsMu.Unlock()
	if _, ok := commands[t]; ok {
		panic(fmt.Sprintf("cqrscore: registering duplicate types for %q", t))
	}
	commands[t] = factory
}

// CreateCommand creates a command of a type using the factory registered
// with RegisterCommand.
func CreateCommand(t CommandType) (Command, error) {
	commandsMu.RLock()
	defer commandsMu.RUnlock()
	if factory, ok := commands[t]; ok {
		return factory(), nil
	}
	return nil, ErrCommandNotRegistered
}

// AggregateIDFromCommand extracts the aggregate ID from a command by field
// name. It backs the Router's configurable IdentityField and is exported so
// custom dispatchers can reuse the same extraction rule.
func AggregateIDFromCommand(cmd Command, identityField string) (uuid.UUID, error) {
	id, ok, err := fieldUUID(cmd, identityField)
	if err != nil || !ok || id == uuid.Nil {
		return uuid.Nil, ErrInvalidAggregateIdentity
	}
	return id, nil
}
