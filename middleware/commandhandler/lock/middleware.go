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

package lock

import (
	"context"
	"log"

	cc "github.com/arcflux/cqrscore"
)

// NewMiddleware returns a Router middleware that rejects a command outright
// with ErrLockExists if another command for the same key, as computed by
// keyFunc, is already in flight through the middleware chain.
//
// The Aggregate Actor already serializes commands reaching the same
// aggregate by queuing them in its inbox; this middleware instead fails
// fast, before a command ever reaches the registry, which is useful for
// callers that would rather retry than wait behind a busy actor.
func NewMiddleware(l Lock, keyFunc func(cc.Command) string) cc.CommandHandlerMiddleware {
	return cc.CommandHandlerMiddleware(func(next cc.DispatchFunc) cc.DispatchFunc {
		return func(ctx context.Context, cmd cc.Command) error {
			key := keyFunc(cmd)

			if err := l.Lock(key); err != nil {
				return err
			}
			defer func() {
				if err := l.Unlock(key); err != nil {
					log.Printf("cqrscore: could not unlock command %q: %s", key, err)
				}
			}()

			return next(ctx, cmd)
		}
	})
}
