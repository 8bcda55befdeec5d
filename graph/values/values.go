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

// Package values defines the core identifiers and the typed property value
// that flow through the graph traversal executor: vertex and edge
// identifiers, the edge key used to address a specific multi-edge, and the
// discriminated PropertyValue union used for both schema-typed vertex/edge
// properties and the runtime values produced by expression evaluation.
package values

import "fmt"

// VertexID identifies a vertex within a graph space.
type VertexID int64

// EdgeType identifies a logical edge type. A negative value denotes that the
// type is being traversed in reverse; Abs() recovers the logical edge type
// that should be used for schema lookups.
type EdgeType int32

// Abs returns the logical (always-positive) edge type, independent of
// traversal direction.
func (t EdgeType) Abs() EdgeType {
	if t < 0 {
		return -t
	}
	return t
}

// Reverse flips the sign of the edge type, denoting reverse traversal.
func (t EdgeType) Reverse() EdgeType {
	return -t
}

// IsReverse reports whether t denotes a reverse-traversed edge.
func (t EdgeType) IsReverse() bool {
	return t < 0
}

// Rank disambiguates multiple edges that share the same (src, dst, type).
type Rank int64

// EdgeKey addresses one specific edge instance. Type is always stored in its
// positive, logical form; direction is not part of the key's identity.
type EdgeKey struct {
	Src  VertexID
	Dst  VertexID
	Type EdgeType
	Rank Rank
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%d->%d:%d@%d", k.Src, k.Dst, k.Type, k.Rank)
}

// TagID identifies a vertex tag (a named property group) within a space.
type TagID int32

// SpaceID identifies a graph space.
type SpaceID int32

// SupportedType enumerates the wire/schema types a PropertyValue may hold.
// This mirrors the storage tier's schema type enumeration.
type SupportedType uint8

// The set of supported property types.
const (
	TypeUnknown SupportedType = iota
	TypeBool
	TypeInt
	TypeFloat  // single precision
	TypeDouble // double precision
	TypeString
	TypeTimestamp
	TypeVID
)

func (t SupportedType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeTimestamp:
		return "timestamp"
	case TypeVID:
		return "vid"
	default:
		return "unknown"
	}
}

// PropertyValue is a discriminated union holding exactly one of the
// supported property types. The zero value is the "unknown/absent" value.
type PropertyValue struct {
	typ SupportedType
	b   bool
	i   int64
	f   float64 // used for both float and double; Type distinguishes them
	s   string
}

// Type returns which field of the union is populated.
func (v PropertyValue) Type() SupportedType { return v.typ }

// Bool constructs a bool PropertyValue.
func Bool(b bool) PropertyValue { return PropertyValue{typ: TypeBool, b: b} }

// Int constructs an i64 PropertyValue.
func Int(i int64) PropertyValue { return PropertyValue{typ: TypeInt, i: i} }

// Float constructs a single-precision PropertyValue.
func Float(f float64) PropertyValue { return PropertyValue{typ: TypeFloat, f: f} }

// Double constructs a double-precision PropertyValue.
func Double(f float64) PropertyValue { return PropertyValue{typ: TypeDouble, f: f} }

// String constructs a string PropertyValue.
func String(s string) PropertyValue { return PropertyValue{typ: TypeString, s: s} }

// Timestamp constructs a timestamp PropertyValue, stored as epoch
// microseconds in the integer field.
func Timestamp(us int64) PropertyValue { return PropertyValue{typ: TypeTimestamp, i: us} }

// VID constructs a vid PropertyValue, used for _src/_dst/edge-dst-id style
// columns whose static type is "vertex id" rather than a plain integer.
func VID(id VertexID) PropertyValue { return PropertyValue{typ: TypeVID, i: int64(id)} }

// AsBool returns the bool value. Only valid when Type() == TypeBool.
func (v PropertyValue) AsBool() bool { return v.b }

// AsInt returns the integer value. Valid for TypeInt, TypeTimestamp and TypeVID.
func (v PropertyValue) AsInt() int64 { return v.i }

// AsFloat returns the floating point value. Valid for TypeFloat and TypeDouble.
func (v PropertyValue) AsFloat() float64 { return v.f }

// AsString returns the string value. Only valid when Type() == TypeString.
func (v PropertyValue) AsString() string { return v.s }

// AsVertexID returns the vid value. Only valid when Type() == TypeVID.
func (v PropertyValue) AsVertexID() VertexID { return VertexID(v.i) }

// Equal reports whether v and o hold the same type and value. DISTINCT does
// not call it; it compares rows by a textual key (see exec's rowHash).
func (v PropertyValue) Equal(o PropertyValue) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeBool:
		return v.b == o.b
	case TypeInt, TypeTimestamp, TypeVID:
		return v.i == o.i
	case TypeFloat, TypeDouble:
		return v.f == o.f
	case TypeString:
		return v.s == o.s
	default:
		return true // two unknowns compare equal
	}
}

func (v PropertyValue) String() string {
	switch v.typ {
	case TypeBool:
		return fmt.Sprintf("%t", v.b)
	case TypeInt:
		return fmt.Sprintf("%d", v.i)
	case TypeFloat, TypeDouble:
		return fmt.Sprintf("%g", v.f)
	case TypeString:
		return v.s
	case TypeTimestamp:
		return fmt.Sprintf("ts(%d)", v.i)
	case TypeVID:
		return fmt.Sprintf("vid(%d)", v.i)
	default:
		return "<unknown>"
	}
}

// Zero returns the zero value for the given static type. It's used when a
// schema lookup can't find a property at all (neither a row value nor a
// declared default) and we must still produce a width-consistent column.
func Zero(t SupportedType) PropertyValue {
	switch t {
	case TypeBool:
		return Bool(false)
	case TypeInt:
		return Int(0)
	case TypeFloat:
		return Float(0)
	case TypeDouble:
		return Double(0)
	case TypeString:
		return String("")
	case TypeTimestamp:
		return Timestamp(0)
	case TypeVID:
		return VID(0)
	default:
		return PropertyValue{}
	}
}
