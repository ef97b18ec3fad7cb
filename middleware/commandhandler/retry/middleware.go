// Copyright (c) 2021 - The Event Horizon authors.
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

// Package retry provides a Router middleware that retries a dispatch on
// cqrscore.ErrWrongExpectedVersion, the one error the spec documents as
// retryable: the optimistic-concurrency clash is resolved by reloading the
// aggregate and reapplying the command, which happens naturally since the
// actor already reloaded state by the time the retried command reaches it.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/jpillora/backoff"

	cc "github.com/arcflux/cqrscore"
)

// Retryable reports whether err should trigger a retry. The default,
// DefaultRetryable, retries only cqrscore.ErrWrongExpectedVersion.
type Retryable func(error) bool

// DefaultRetryable retries only optimistic concurrency clashes.
func DefaultRetryable(err error) bool {
	return errors.Is(err, cc.ErrWrongExpectedVersion)
}

// NewMiddleware returns a Router middleware that retries a dispatch up to
// maxRetries times, backing off between attempts, whenever retryable
// reports true for the returned error. A nil retryable uses
// DefaultRetryable.
func NewMiddleware(maxRetries int, retryable Retryable) cc.CommandHandlerMiddleware {
	if retryable == nil {
		retryable = DefaultRetryable
	}

	return cc.CommandHandlerMiddleware(func(next cc.DispatchFunc) cc.DispatchFunc {
		return func(ctx context.Context, cmd cc.Command) error {
			b := &backoff.Backoff{
				Min:    10 * time.Millisecond,
				Max:    500 * time.Millisecond,
				Factor: 2,
				Jitter: true,
			}

			var err error
			for attempt := 0; attempt <= maxRetries; attempt++ {
				err = next(ctx, cmd)
				if err == nil || !retryable(err) {
					return err
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(b.Duration()):
				}
			}

			return err
		}
	})
}
