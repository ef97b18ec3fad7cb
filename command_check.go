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

import (
	"reflect"
	"time"

	"github.com/arcflux/cqrscore/uuid"
)

// IsZeroer is used to check if a type is zero-valued, and in that case is
// not allowed to be used in a command. See CheckCommand.
type IsZeroer interface {
	IsZero() bool
}

// CommandFieldError is returned by CheckCommand when a required field is
// missing.
type CommandFieldError struct {
	Field string
}

// Error implements the error interface.
func (c CommandFieldError) Error() string {
	return "missing field: " + c.Field
}

// CheckCommand checks a command for missing required fields. Fields tagged
// `eh:"optional"` are skipped.
func CheckCommand(cmd Command) error {
	rv := reflect.Indirect(reflect.ValueOf(cmd))
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue // Skip private field.
		}

		if field.Tag.Get("eh") == "optional" {
			continue // Optional field.
		}

		var zero bool
		switch foo := rv.Field(i).Interface().(type) {
		case IsZeroer:
			zero = foo.IsZero()
		default:
			zero = isZero(rv.Field(i))
		}

		if zero {
			return CommandFieldError{field.Name}
		}
	}
	return nil
}

// fieldUUID reads a named struct field off cmd and reports whether it held
// a uuid.UUID value.
func fieldUUID(cmd Command, name string) (uuid.UUID, bool, error) {
	rv := reflect.Indirect(reflect.ValueOf(cmd))
	if rv.Kind() != reflect.Struct {
		return uuid.Nil, false, CommandFieldError{name}
	}

	fv := rv.FieldByName(name)
	if !fv.IsValid() {
		return uuid.Nil, false, CommandFieldError{name}
	}

	id, ok := fv.Interface().(uuid.UUID)
	return id, ok, nil
}

func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.Ptr, reflect.UnsafePointer:
		// Types that are not allowed at all.
		return true
	case reflect.Map, reflect.Slice:
		return v.IsNil()
	case reflect.Array:
		// Special case to check zero values of UUIDs.
		if obj, ok := v.Interface().(uuid.UUID); ok {
			return obj == uuid.Nil
		}
		for i := 0; i < v.Len(); i++ {
			if !isZero(v.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Interface, reflect.String:
		z := reflect.Zero(v.Type())
		return v.Interface() == z.Interface()
	case reflect.Struct:
		// Special case to get zero values by method.
		if obj, ok := v.Interface().(time.Time); ok {
			return obj.IsZero()
		}

		// Check public fields for zero values.
		z := true
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).PkgPath != "" {
				continue // Skip private fields.
			}
			z = z && isZero(v.Field(i))
		}
		return z
	default:
		// Don't check for zero for value types:
		// Bool, Int, Int8, Int16, Int32, Int64, Uint, Uint8, Uint16, Uint32,
		// Uint64, Float32, Float64, Complex64, Complex128
		return false
	}
}
