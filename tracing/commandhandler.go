// Copyright (c) 2020 - The Event Horizon authors.
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

package tracing

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	cc "github.com/arcflux/cqrscore"
)

// NewCommandHandlerMiddleware returns a CommandHandlerMiddleware that wraps
// each dispatch in a span named after the command's type. It belongs
// outermost in the Router's middleware chain, so the span covers
// validation, retries and the actor round trip.
func NewCommandHandlerMiddleware() cc.CommandHandlerMiddleware {
	return cc.CommandHandlerMiddleware(func(next cc.DispatchFunc) cc.DispatchFunc {
		return func(ctx context.Context, cmd cc.Command) error {
			opName := fmt.Sprintf("Command(%s)", cmd.CommandType())
			sp, ctx := opentracing.StartSpanFromContext(ctx, opName)
			defer sp.Finish()

			err := next(ctx, cmd)

			sp.SetTag("cqrscore.command_type", cmd.CommandType())
			if err != nil {
				ext.LogError(sp, err)
			}

			return err
		}
	})
}
