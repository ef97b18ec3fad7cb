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

// Package cron decorates a cqrscore.EventHandler with timed, synthetic
// events: ones with no aggregate command behind them, injected straight
// into the handler on a crontab schedule instead of arriving through an
// EventStore subscription. It uses the cron syntax from
// https://github.com/gorhill/cronexpr.
package cron

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"

	cc "github.com/arcflux/cqrscore"
)

// EventHandler wraps a cqrscore.EventHandler, adding ScheduleEvent. Events
// delivered by a schedule go through the same HandleEvent as events
// delivered any other way; HandlerType is unchanged.
type EventHandler struct {
	cc.EventHandler

	eventsCh chan scheduled
	errCh    chan error
}

// NewEventHandler wraps handler and starts its delivery goroutine, which
// runs for the life of the EventHandler: cancelling a ScheduleEvent context
// stops only that schedule's ticks, not the delivery goroutine.
func NewEventHandler(handler cc.EventHandler) *EventHandler {
	h := &EventHandler{
		EventHandler: handler,
		eventsCh:     make(chan scheduled),
		errCh:        make(chan error, 1),
	}

	go h.run()

	return h
}

type scheduled struct {
	ctx   context.Context
	event cc.Event
}

// ScheduleEvent arranges for eventFunc's result to be handled on every tick
// of cronLine, in the crontab format cronexpr accepts. Cancelling ctx
// stops further ticks for this schedule only; other schedules on the same
// EventHandler keep running.
func (h *EventHandler) ScheduleEvent(ctx context.Context, cronLine string, eventFunc func(time.Time) cc.Event) error {
	expr, err := cronexpr.Parse(cronLine)
	if err != nil {
		return err
	}

	go func() {
		for {
			next := expr.Next(time.Now())
			select {
			case <-time.After(time.Until(next)):
				h.eventsCh <- scheduled{ctx, eventFunc(next)}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Errors returns the channel a handler failure from a scheduled delivery is
// reported on. Buffered by one; a second failure before the first is read
// is dropped rather than blocking the delivery goroutine.
func (h *EventHandler) Errors() <-chan error {
	return h.errCh
}

func (h *EventHandler) run() {
	for s := range h.eventsCh {
		if err := h.HandleEvent(s.ctx, s.event); err != nil {
			select {
			case h.errCh <- err:
			default:
			}
		}
	}
}
