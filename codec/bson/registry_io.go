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
	"bytes"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// marshalWithRegistry marshals val into BSON bytes using reg, equivalent to
// the removed bson.MarshalWithRegistry from mongo-driver v1.
func marshalWithRegistry(reg *bson.Registry, val any) ([]byte, error) {
	var buf bytes.Buffer
	vw := bson.NewDocumentWriter(&buf)
	enc := bson.NewEncoder(vw)
	enc.SetRegistry(reg)
	if err := enc.Encode(val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unmarshalWithRegistry unmarshals BSON bytes b into val using reg,
// equivalent to the removed bson.UnmarshalWithRegistry from mongo-driver v1.
func unmarshalWithRegistry(reg *bson.Registry, b []byte, val any) error {
	vr := bson.NewDocumentReader(bytes.NewReader(b))
	dec := bson.NewDecoder(vr)
	dec.SetRegistry(reg)
	return dec.Decode(val)
}
