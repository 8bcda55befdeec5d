// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package exec

import (
	"encoding/json"

	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/values"
)

// decodeProp pulls one named property out of an encoded row, typing it
// according to desc. A property absent from the row falls back to the
// schema's declared default, and failing that to the static type's zero
// value — the same two-level fallback spec.md describes for VertexHolder
// and SrcTagProp lookups.
func decodeProp(data []byte, desc *schema.Descriptor, prop string) values.PropertyValue {
	if desc == nil {
		return values.PropertyValue{}
	}
	raw := decodeRaw(data)
	if v, ok := raw[prop]; ok {
		if pv, ok := convert(v, desc.FieldType(prop)); ok {
			return pv
		}
	}
	if def, ok := desc.Default(prop); ok {
		return def
	}
	return values.Zero(desc.FieldType(prop))
}

func decodeRaw(data []byte) map[string]interface{} {
	if len(data) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func convert(raw interface{}, t values.SupportedType) (values.PropertyValue, bool) {
	switch t {
	case values.TypeBool:
		b, ok := raw.(bool)
		return values.Bool(b), ok
	case values.TypeInt:
		f, ok := raw.(float64)
		return values.Int(int64(f)), ok
	case values.TypeTimestamp:
		f, ok := raw.(float64)
		return values.Timestamp(int64(f)), ok
	case values.TypeFloat:
		f, ok := raw.(float64)
		return values.Float(f), ok
	case values.TypeDouble:
		f, ok := raw.(float64)
		return values.Double(f), ok
	case values.TypeString:
		s, ok := raw.(string)
		return values.String(s), ok
	case values.TypeVID:
		f, ok := raw.(float64)
		return values.VID(values.VertexID(int64(f))), ok
	default:
		return values.PropertyValue{}, false
	}
}
