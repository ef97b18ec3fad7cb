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

// NewEventHandler wraps an EventHandler so every HandleEvent call runs
// inside its own span, tagged with the event's identity. It is meant to
// sit between an eventhandler/runtime.Subscription (or eventbus/local
// handler) and the domain handler it ultimately drives.
func NewEventHandler(h cc.EventHandler) cc.EventHandler {
	return &eventHandler{h}
}

type eventHandler struct {
	cc.EventHandler
}

// HandleEvent implements cqrscore.EventHandler.
func (h *eventHandler) HandleEvent(ctx context.Context, event cc.Event) error {
	opName := fmt.Sprintf("%s.Event(%s)", h.HandlerType(), event.EventType())
	sp, ctx := opentracing.StartSpanFromContext(ctx, opName)
	defer sp.Finish()

	err := h.EventHandler.HandleEvent(ctx, event)
	if err != nil {
		ext.LogError(sp, err)
	}

	sp.SetTag("cqrscore.event_type", event.EventType())
	sp.SetTag("cqrscore.aggregate_type", event.AggregateType())
	sp.SetTag("cqrscore.aggregate_id", event.AggregateID())
	sp.SetTag("cqrscore.version", event.Version())

	return err
}
