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

import "errors"

// ErrUnregisteredCommand is returned by the Router when no route was
// registered for a command's type.
var ErrUnregisteredCommand = errors.New("unregistered command")

// ErrAggregateExecutionTimeout is returned to a Dispatch caller when the
// command handler did not complete within its timeout. The handler may
// still be running inside the aggregate's actor; its eventual result is
// never exposed inconsistently, since only the actor's own goroutine ever
// commits state (see aggregatestore/actor).
var ErrAggregateExecutionTimeout = errors.New("aggregate execution timeout")

// DomainError wraps a command handler's business-rule failure. No events
// are persisted when a handler returns one: the pending events accumulated
// during the attempt are discarded.
type DomainError struct {
	Err error
}

// Error implements the error interface.
func (e DomainError) Error() string {
	return e.Err.Error()
}

// Unwrap implements errors.Unwrap.
func (e DomainError) Unwrap() error { return e.Err }

// NewDomainError wraps err, if non-nil, as a DomainError.
func NewDomainError(err error) error {
	if err == nil {
		return nil
	}
	return DomainError{Err: err}
}
