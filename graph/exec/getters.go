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
	"fmt"
	"strconv"

	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/values"
)

// evalContext is the single evaluation-context struct the spec's design
// notes call for in place of the original's captured-by-reference nested
// closures: one instance per (src, edge group, edge record) triple, holding
// every property source the getters need.
type evalContext struct {
	p     *plan
	mgr   schema.Manager
	space values.SpaceID

	vd       storage.VertexData
	edgeType values.EdgeType // abs type of the current edge group
	edge     storage.Edge

	vertices *vertexHolder
	edges    *edgeHolder
	bt       *backTracker
	index    *pipelineIndex
}

func (c *evalContext) eval(e ast.Expr) (values.PropertyValue, error) {
	switch v := e.(type) {
	case ast.LiteralExpr:
		return v.Value, nil
	case ast.EdgeDstIdExpr:
		return c.getEdgeDstId(v.EdgeName)
	case ast.EdgeSrcIdExpr:
		return c.getEdgeSrcId(v.EdgeName)
	case ast.EdgeRankExpr:
		return c.getEdgeRank(v.EdgeName)
	case ast.EdgeTypeExpr:
		return c.getEdgeType(v.EdgeName)
	case ast.SrcPropExpr:
		return c.getSrcTagProp(v.Tag, v.Prop)
	case ast.DstPropExpr:
		return c.getDstTagProp(v.Tag, v.Prop)
	case ast.AliasPropExpr:
		return c.getAliasProp(v.EdgeName, v.Prop)
	case ast.InputPropExpr:
		return c.getInputProp(v.Prop)
	case ast.VariablePropExpr:
		return c.getVariableProp(v.Prop)
	case ast.RelationalExpr:
		return c.evalRelational(v)
	case ast.LogicalExpr:
		return c.evalLogical(v)
	case ast.TypeCastingExpr:
		return c.evalCast(v)
	default:
		return values.PropertyValue{}, fmt.Errorf("unsupported expression %T", e)
	}
}

// getEdgeDstId and getEdgeSrcId read straight off the current record's raw
// RPC fields. Because a reverse-typed getNeighbors call already walks the
// reverse index — which stores the edge keyed by its own (dst, src) — the
// record's Dst field is always "the vertex this hop discovered" and vd's
// own id is always "the vertex this hop queried from", for either
// direction; no direction-dependent swap is needed here (the swap only
// matters when reconstructing the forward EdgeKey for getAliasProp, below).
func (c *evalContext) getEdgeDstId(edgeName string) (values.PropertyValue, error) {
	ref, ok := c.p.edgeByName(edgeName)
	if !ok {
		return values.PropertyValue{}, fmt.Errorf("unknown edge alias %q", edgeName)
	}
	if ref.typ != c.edgeType {
		return values.VID(0), nil
	}
	return values.VID(c.edge.Dst), nil
}

func (c *evalContext) getEdgeSrcId(edgeName string) (values.PropertyValue, error) {
	ref, ok := c.p.edgeByName(edgeName)
	if !ok {
		return values.PropertyValue{}, fmt.Errorf("unknown edge alias %q", edgeName)
	}
	if ref.typ != c.edgeType {
		return values.VID(0), nil
	}
	return values.VID(c.vd.VertexID), nil
}

func (c *evalContext) getEdgeRank(edgeName string) (values.PropertyValue, error) {
	ref, ok := c.p.edgeByName(edgeName)
	if !ok {
		return values.PropertyValue{}, fmt.Errorf("unknown edge alias %q", edgeName)
	}
	if ref.typ != c.edgeType {
		return values.Int(0), nil
	}
	return values.Int(int64(c.edge.Rank)), nil
}

func (c *evalContext) getEdgeType(edgeName string) (values.PropertyValue, error) {
	ref, ok := c.p.edgeByName(edgeName)
	if !ok {
		return values.PropertyValue{}, fmt.Errorf("unknown edge alias %q", edgeName)
	}
	if ref.typ != c.edgeType {
		return values.Int(0), nil
	}
	t := int64(ref.typ)
	if c.p.reversely {
		t = -t
	}
	return values.Int(t), nil
}

func (c *evalContext) getSrcTagProp(tag, prop string) (values.PropertyValue, error) {
	id, err := c.mgr.ToTagID(c.space, tag)
	if err != nil {
		return values.PropertyValue{}, err
	}
	desc := c.mgr.GetTagSchema(c.space, id)
	for _, td := range c.vd.TagData {
		if td.Tag == id {
			return decodeProp(td.Data, desc, prop), nil
		}
	}
	return decodeProp(nil, desc, prop), nil
}

func (c *evalContext) getDstTagProp(tag, prop string) (values.PropertyValue, error) {
	id, err := c.mgr.ToTagID(c.space, tag)
	if err != nil {
		return values.PropertyValue{}, err
	}
	return c.vertices.get(c.edge.Dst, id, prop), nil
}

// getAliasProp reads an edge (alias) property. Forward traversal decodes it
// straight from the current record's embedded properties; if edgeName names
// a different edge type than the current record's group, it returns that
// other edge's schema default so that YIELDing the same alias across a
// multi-edge OVER clause still produces width-consistent rows. Reverse
// traversal always goes through the edgeHolder populated by the second RPC
// round, using the forward EdgeKey reconstructed by swapping src/dst (see
// spec.md §4.4 / invariant 5): the current record's Dst becomes the forward
// Src, and the vertex this hop queried from becomes the forward Dst.
func (c *evalContext) getAliasProp(edgeName, prop string) (values.PropertyValue, error) {
	ref, ok := c.p.edgeByName(edgeName)
	if !ok {
		return values.PropertyValue{}, fmt.Errorf("unknown edge alias %q", edgeName)
	}

	if c.p.reversely {
		key := values.EdgeKey{Src: c.edge.Dst, Dst: c.vd.VertexID, Type: ref.typ, Rank: c.edge.Rank}
		return c.edges.get(key, prop), nil
	}

	if ref.typ != c.edgeType {
		desc := c.mgr.GetEdgeSchema(c.space, ref.typ)
		return decodeProp(nil, desc, prop), nil
	}
	desc := c.mgr.GetEdgeSchema(c.space, c.edgeType)
	return decodeProp(c.edge.Props, desc, prop), nil
}

func (c *evalContext) getInputProp(prop string) (values.PropertyValue, error) {
	if c.index == nil {
		return values.PropertyValue{}, fmt.Errorf("$-.%s referenced but no pipeline input is bound", prop)
	}
	root := c.vd.VertexID
	if c.bt != nil {
		root = c.bt.root(root)
	}
	v, ok := c.index.getColumnWithVID(root, prop)
	if !ok {
		return values.PropertyValue{}, fmt.Errorf("$-.%s not found for vertex %d", prop, root)
	}
	return v, nil
}

func (c *evalContext) getVariableProp(prop string) (values.PropertyValue, error) {
	if c.index == nil {
		return values.PropertyValue{}, fmt.Errorf("$%s.%s referenced but variable is not bound", c.p.from.VarName, prop)
	}
	root := c.vd.VertexID
	if c.bt != nil {
		root = c.bt.root(root)
	}
	v, ok := c.index.getColumnWithVID(root, prop)
	if !ok {
		return values.PropertyValue{}, fmt.Errorf("$%s.%s not found for vertex %d", c.p.from.VarName, prop, root)
	}
	return v, nil
}

func (c *evalContext) evalRelational(e ast.RelationalExpr) (values.PropertyValue, error) {
	l, err := c.eval(e.Left)
	if err != nil {
		return values.PropertyValue{}, err
	}
	r, err := c.eval(e.Right)
	if err != nil {
		return values.PropertyValue{}, err
	}
	cmp, err := compare(l, r)
	if err != nil {
		return values.PropertyValue{}, err
	}
	switch e.Op {
	case ast.OpEQ:
		return values.Bool(cmp == 0), nil
	case ast.OpNE:
		return values.Bool(cmp != 0), nil
	case ast.OpLT:
		return values.Bool(cmp < 0), nil
	case ast.OpLE:
		return values.Bool(cmp <= 0), nil
	case ast.OpGT:
		return values.Bool(cmp > 0), nil
	case ast.OpGE:
		return values.Bool(cmp >= 0), nil
	default:
		return values.PropertyValue{}, fmt.Errorf("unsupported relational operator %q", e.Op)
	}
}

// compare orders l and r, requiring compatible types (both numeric, or both
// string, or both bool/equality-only).
func compare(l, r values.PropertyValue) (int, error) {
	numeric := func(v values.PropertyValue) (float64, bool) {
		switch v.Type() {
		case values.TypeInt, values.TypeTimestamp, values.TypeVID:
			return float64(v.AsInt()), true
		case values.TypeFloat, values.TypeDouble:
			return v.AsFloat(), true
		default:
			return 0, false
		}
	}
	if lf, ok := numeric(l); ok {
		if rf, ok := numeric(r); ok {
			switch {
			case lf < rf:
				return -1, nil
			case lf > rf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if l.Type() == values.TypeString && r.Type() == values.TypeString {
		switch {
		case l.AsString() < r.AsString():
			return -1, nil
		case l.AsString() > r.AsString():
			return 1, nil
		default:
			return 0, nil
		}
	}
	if l.Type() == values.TypeBool && r.Type() == values.TypeBool {
		if l.AsBool() == r.AsBool() {
			return 0, nil
		}
		return -1, nil // only (in)equality is meaningful for bool, any non-zero suffices
	}
	return 0, fmt.Errorf("incomparable types %s and %s", l.Type(), r.Type())
}

func (c *evalContext) evalLogical(e ast.LogicalExpr) (values.PropertyValue, error) {
	l, err := c.eval(e.Left)
	if err != nil {
		return values.PropertyValue{}, err
	}
	if l.Type() != values.TypeBool {
		return values.PropertyValue{}, fmt.Errorf("logical operand must be BOOL, got %s", l.Type())
	}
	if e.Op == ast.OpNot {
		return values.Bool(!l.AsBool()), nil
	}
	r, err := c.eval(e.Right)
	if err != nil {
		return values.PropertyValue{}, err
	}
	if r.Type() != values.TypeBool {
		return values.PropertyValue{}, fmt.Errorf("logical operand must be BOOL, got %s", r.Type())
	}
	switch e.Op {
	case ast.OpAnd:
		return values.Bool(l.AsBool() && r.AsBool()), nil
	case ast.OpOr:
		return values.Bool(l.AsBool() || r.AsBool()), nil
	case ast.OpXor:
		return values.Bool(l.AsBool() != r.AsBool()), nil
	default:
		return values.PropertyValue{}, fmt.Errorf("unsupported logical operator %q", e.Op)
	}
}

func (c *evalContext) evalCast(e ast.TypeCastingExpr) (values.PropertyValue, error) {
	v, err := c.eval(e.Operand)
	if err != nil {
		return values.PropertyValue{}, err
	}
	switch e.Target {
	case values.TypeString:
		return values.String(v.String()), nil
	case values.TypeInt:
		switch v.Type() {
		case values.TypeInt, values.TypeTimestamp, values.TypeVID:
			return values.Int(v.AsInt()), nil
		case values.TypeFloat, values.TypeDouble:
			return values.Int(int64(v.AsFloat())), nil
		case values.TypeString:
			n, err := strconv.ParseInt(v.AsString(), 10, 64)
			if err != nil {
				return values.PropertyValue{}, fmt.Errorf("cannot cast %q to INT", v.AsString())
			}
			return values.Int(n), nil
		}
	case values.TypeDouble, values.TypeFloat:
		mk := values.Double
		if e.Target == values.TypeFloat {
			mk = values.Float
		}
		switch v.Type() {
		case values.TypeInt, values.TypeTimestamp, values.TypeVID:
			return mk(float64(v.AsInt())), nil
		case values.TypeFloat, values.TypeDouble:
			return mk(v.AsFloat()), nil
		case values.TypeString:
			f, err := strconv.ParseFloat(v.AsString(), 64)
			if err != nil {
				return values.PropertyValue{}, fmt.Errorf("cannot cast %q to DOUBLE", v.AsString())
			}
			return mk(f), nil
		}
	case values.TypeBool:
		if v.Type() == values.TypeBool {
			return v, nil
		}
	}
	return values.PropertyValue{}, fmt.Errorf("cannot cast %s to %s", v.Type(), e.Target)
}
