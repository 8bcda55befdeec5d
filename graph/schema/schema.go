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

// Package schema defines the read-only schema lookups the executor consumes.
// Schema management itself (DDL, versioning, distribution) is out of scope;
// this package only describes the interface and ships a simple in-memory
// implementation used by tests and the demo CLI.
package schema

import (
	"fmt"

	"github.com/zhuchaokn/nebula/graph/values"
)

// Field describes one named, typed property within a tag or edge schema, and
// its default value when a stored row omits it.
type Field struct {
	Name    string
	Type    values.SupportedType
	Default values.PropertyValue
}

// Descriptor is the ordered list of fields that make up a tag or edge
// schema. It supports default-value lookup for properties missing from a
// particular stored row.
type Descriptor struct {
	Fields []Field
}

// FieldType returns the declared type of prop, or TypeUnknown if the
// descriptor has no such field.
func (d *Descriptor) FieldType(prop string) values.SupportedType {
	for _, f := range d.Fields {
		if f.Name == prop {
			return f.Type
		}
	}
	return values.TypeUnknown
}

// Default returns the schema-declared default value for prop. If the
// descriptor has no such field, or the field declares no default, the
// returned bool is false.
func (d *Descriptor) Default(prop string) (values.PropertyValue, bool) {
	for _, f := range d.Fields {
		if f.Name == prop {
			return f.Default, f.Default.Type() != values.TypeUnknown
		}
	}
	return values.PropertyValue{}, false
}

// Manager is the read-only schema lookup interface the executor relies on.
// An implementation is typically backed by a metadata service; this package
// only defines the contract (see schema.InMemory for a test/demo-friendly
// implementation).
type Manager interface {
	// ToTagID resolves a tag name to its id within space.
	ToTagID(space values.SpaceID, name string) (values.TagID, error)
	// ToEdgeType resolves an edge name to its (always-positive) logical type
	// within space.
	ToEdgeType(space values.SpaceID, name string) (values.EdgeType, error)
	// ToEdgeName resolves a logical edge type back to its name. typ is
	// expected in its positive, logical form.
	ToEdgeName(space values.SpaceID, typ values.EdgeType) (string, error)
	// GetAllEdge returns the names of every edge type defined in space, used
	// to expand an `OVER *` clause.
	GetAllEdge(space values.SpaceID) ([]string, error)
	// GetTagSchema returns the property descriptor for a tag, or nil if the
	// tag is unknown.
	GetTagSchema(space values.SpaceID, tag values.TagID) *Descriptor
	// GetEdgeSchema returns the property descriptor for an edge type, or nil
	// if the edge type is unknown. typ is expected in its positive, logical
	// form.
	GetEdgeSchema(space values.SpaceID, typ values.EdgeType) *Descriptor
}

// InMemory is a Manager backed by maps populated at construction time. It's
// intended for tests and the demo CLI, not for production use (a real
// deployment's schema is owned by a metadata service and changes over time).
type InMemory struct {
	tagIDs    map[string]values.TagID
	edgeTypes map[string]values.EdgeType
	edgeNames map[values.EdgeType]string
	tags      map[values.TagID]*Descriptor
	edges     map[values.EdgeType]*Descriptor
	allEdges  []string
}

// NewInMemory builds an empty InMemory schema manager for a single space.
func NewInMemory() *InMemory {
	return &InMemory{
		tagIDs:    map[string]values.TagID{},
		edgeTypes: map[string]values.EdgeType{},
		edgeNames: map[values.EdgeType]string{},
		tags:      map[values.TagID]*Descriptor{},
		edges:     map[values.EdgeType]*Descriptor{},
	}
}

// AddTag registers a tag schema under the given name and id.
func (m *InMemory) AddTag(name string, id values.TagID, d *Descriptor) {
	m.tagIDs[name] = id
	m.tags[id] = d
}

// AddEdge registers an edge schema under the given name and logical
// (positive) type, and appends it to the OVER * expansion order.
func (m *InMemory) AddEdge(name string, typ values.EdgeType, d *Descriptor) {
	m.edgeTypes[name] = typ
	m.edgeNames[typ] = name
	m.edges[typ] = d
	m.allEdges = append(m.allEdges, name)
}

func (m *InMemory) ToTagID(_ values.SpaceID, name string) (values.TagID, error) {
	if id, ok := m.tagIDs[name]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("tag %q not found", name)
}

func (m *InMemory) ToEdgeType(_ values.SpaceID, name string) (values.EdgeType, error) {
	if t, ok := m.edgeTypes[name]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("edge %q not found", name)
}

func (m *InMemory) ToEdgeName(_ values.SpaceID, typ values.EdgeType) (string, error) {
	if name, ok := m.edgeNames[typ.Abs()]; ok {
		return name, nil
	}
	return "", fmt.Errorf("edge type %d not found", typ)
}

func (m *InMemory) GetAllEdge(_ values.SpaceID) ([]string, error) {
	return append([]string(nil), m.allEdges...), nil
}

func (m *InMemory) GetTagSchema(_ values.SpaceID, tag values.TagID) *Descriptor {
	return m.tags[tag]
}

func (m *InMemory) GetEdgeSchema(_ values.SpaceID, typ values.EdgeType) *Descriptor {
	return m.edges[typ.Abs()]
}
