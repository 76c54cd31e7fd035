/*
 * Copyright 2026 WiCAN Tools Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package models holds the shared types of the WiCAN logger.
package models

import (
	"strconv"
	"time"
)

// Field is one telemetry parameter from a device response. Value is a
// float64, string, bool, or nil for a JSON null.
type Field struct {
	Name  string
	Value interface{}
}

// Reading is one successful poll's field/value snapshot. Fields keep
// the order in which the device reported them. A Reading is immutable
// once captured.
type Reading struct {
	Timestamp time.Time
	Fields    []Field
}

// Names returns the field names in reported order.
func (r *Reading) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}

	return names
}

// Value returns the value for a field name and whether it was reported.
func (r *Reading) Value(name string) (interface{}, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}

	return nil, false
}

// FormatValue renders a field value as a CSV/display cell. Nulls and
// absent fields render as an empty string.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	default:
		return ""
	}
}
