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

// Package dispatcher implements the Router: a routing table from command
// type to aggregate type, identity field, handler and timeout, and the
// Dispatch entry point that resolves a command's target actor through an
// Aggregate Registry and runs the registered middleware chain around it.
package dispatcher

import (
	"context"
	"sync"
	"time"

	cc "github.com/arcflux/cqrscore"
	"github.com/arcflux/cqrscore/aggregatestore/actor"
)

// Route is one routing table entry: everything the Router needs to
// execute a command of a given CommandType.
type Route struct {
	// AggregateType is the aggregate the command targets.
	AggregateType cc.AggregateType
	// IdentityField names the command field carrying the aggregate's UUID.
	IdentityField string
	// Handler applies the command to the loaded aggregate.
	Handler cc.AggregateHandler
	// Timeout bounds the actor's execution of the command. Zero means
	// actor.DefaultTimeout.
	Timeout time.Duration
}

// Router maps command types to routes and dispatches commands through an
// Aggregate Registry, wrapped in an ordered middleware chain.
type Router struct {
	registry *actor.Registry

	mu     sync.RWMutex
	routes map[cc.CommandType]Route

	middleware []cc.CommandHandlerMiddleware
}

// NewRouter creates a Router dispatching against registry.
func NewRouter(registry *actor.Registry) *Router {
	return &Router{
		registry: registry,
		routes:   make(map[cc.CommandType]Route),
	}
}

// SetRoute registers route for every given command type. Multiple command
// types may share a route, and re-registering a type overwrites it.
func (r *Router) SetRoute(route Route, types ...cc.CommandType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.routes[t] = route
	}
}

// Use appends middleware to the chain wrapped around every Dispatch call,
// outermost first in the order given.
func (r *Router) Use(middleware ...cc.CommandHandlerMiddleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// Dispatch routes cmd to its aggregate's actor and executes it, applying
// timeoutOverride in place of the route's configured timeout when
// non-zero. It implements the Router's dispatch operation.
func (r *Router) Dispatch(ctx context.Context, cmd cc.Command, timeoutOverride time.Duration) error {
	r.mu.RLock()
	route, ok := r.routes[cmd.CommandType()]
	middleware := r.middleware
	r.mu.RUnlock()

	if !ok {
		return cc.ErrUnregisteredCommand
	}

	id, err := cc.AggregateIDFromCommand(cmd, route.IdentityField)
	if err != nil {
		return err
	}

	timeout := route.Timeout
	if timeoutOverride > 0 {
		timeout = timeoutOverride
	}

	core := func(ctx context.Context, cmd cc.Command) error {
		return r.registry.Execute(ctx, route.AggregateType, id, cmd, route.Handler, timeout)
	}

	return cc.UseCommandHandlerMiddleware(core, middleware...)(ctx, cmd)
}

// DispatchCommand implements cqrscore.CommandDispatcher, dispatching with
// each route's configured timeout. Process Manager Instances hold a Router
// only through this interface.
func (r *Router) DispatchCommand(ctx context.Context, cmd cc.Command) error {
	return r.Dispatch(ctx, cmd, 0)
}
