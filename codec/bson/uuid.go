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
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/arcflux/cqrscore/uuid"
)

// Registry is the BSON registry used by EventCodec and CommandCodec. It
// extends the default registry with a codec that stores a uuid.UUID as a
// BSON string rather than the driver's default binary subtype, so IDs
// round-trip as readable strings in any BSON-speaking store.
var Registry = buildRegistry()

func buildRegistry() *bson.Registry {
	uuidType := reflect.TypeOf(uuid.UUID{})

	rb := bson.NewRegistry()

	rb.RegisterTypeEncoder(uuidType, bson.ValueEncoderFunc(
		func(ec bson.EncodeContext, vw bson.ValueWriter, val reflect.Value) error {
			if !val.IsValid() || val.Type() != uuidType {
				return fmt.Errorf("cqrscore: cannot encode non-UUID value %s as UUID", val.Type())
			}

			id := val.Interface().(uuid.UUID)
			return vw.WriteString(id.String())
		},
	))

	rb.RegisterTypeDecoder(uuidType, bson.ValueDecoderFunc(
		func(dc bson.DecodeContext, vr bson.ValueReader, val reflect.Value) error {
			if !val.IsValid() || !val.CanSet() || val.Type() != uuidType {
				return fmt.Errorf("cqrscore: cannot decode into non-UUID value %s", val.Type())
			}

			if vr.Type() != bson.TypeString {
				return fmt.Errorf("cqrscore: received invalid BSON type to decode into UUID: %s", vr.Type())
			}

			s, err := vr.ReadString()
			if err != nil {
				return err
			}

			id, err := uuid.Parse(s)
			if err != nil {
				return fmt.Errorf("could not parse UUID string %q: %w", s, err)
			}

			val.Set(reflect.ValueOf(id))
			return nil
		},
	))

	return rb
}
