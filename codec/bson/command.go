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

package bson

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	cc "github.com/arcflux/cqrscore"
)

// CommandCodec is a codec for marshaling and unmarshaling commands to and
// from bytes in BSON format. It is not used by the in-process Router,
// which dispatches concrete Command values directly; it exists for
// transports that carry commands across a wire, e.g. a queue feeding
// replayed Process Manager Instance commands into another process.
type CommandCodec struct{}

// MarshalCommand marshals a command into bytes in BSON format.
func (CommandCodec) MarshalCommand(ctx context.Context, cmd cc.Command) ([]byte, error) {
	c := command{
		CommandType: cmd.CommandType(),
	}

	var err error
	if c.Command, err = marshalWithRegistry(Registry, cmd); err != nil {
		return nil, fmt.Errorf("could not marshal command data: %w", err)
	}

	b, err := marshalWithRegistry(Registry, c)
	if err != nil {
		return nil, fmt.Errorf("could not marshal command: %w", err)
	}

	return b, nil
}

// UnmarshalCommand unmarshals a command from bytes in BSON format.
func (CommandCodec) UnmarshalCommand(ctx context.Context, b []byte) (cc.Command, error) {
	var c command
	if err := unmarshalWithRegistry(Registry, b, &c); err != nil {
		return nil, fmt.Errorf("could not unmarshal command: %w", err)
	}

	cmd, err := cc.CreateCommand(c.CommandType)
	if err != nil {
		return nil, fmt.Errorf("could not create command: %w", err)
	}

	if err := unmarshalWithRegistry(Registry, c.Command, cmd); err != nil {
		return nil, fmt.Errorf("could not unmarshal command data: %w", err)
	}

	return cmd, nil
}

// command is the internal structure used on the wire only.
type command struct {
	CommandType cc.CommandType `bson:"command_type"`
	Command     bson.Raw       `bson:"command"`
}
