// Copyright (c) 2018 - The Event Horizon authors.
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

// Package validate provides a Router middleware that rejects commands
// failing their own validation before they ever reach an aggregate actor.
package validate

import (
	"context"
	"fmt"

	cc "github.com/arcflux/cqrscore"
)

// Command is a command with its own validation method.
type Command interface {
	cc.Command

	// Validate returns the error when validating the command.
	Validate() error
}

// CommandWithValidation returns a wrapped command with a validation method.
func CommandWithValidation(cmd cc.Command, v func() error) Command {
	return &command{Command: cmd, validate: v}
}

// NewMiddleware returns a Router middleware that validates commands
// implementing `Validate() error` before calling next. Commands without
// the validate method pass through unchecked.
func NewMiddleware() cc.CommandHandlerMiddleware {
	return cc.CommandHandlerMiddleware(func(next cc.DispatchFunc) cc.DispatchFunc {
		return func(ctx context.Context, cmd cc.Command) error {
			if c, ok := cmd.(Command); ok {
				if err := c.Validate(); err != nil {
					return Error{err}
				}
			}
			return next(ctx, cmd)
		}
	})
}

// Error is a validation error.
type Error struct {
	err error
}

// Error implements the Error method of the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("invalid command: %s", e.err.Error())
}

// Unwrap implements the errors.Unwrap method.
func (e Error) Unwrap() error {
	return e.err
}

// private implementation to wrap ordinary commands and add a validation method.
type command struct {
	cc.Command
	validate func() error
}

// Validate implements the Validate method of the Command interface
func (c *command) Validate() error {
	return c.validate()
}
