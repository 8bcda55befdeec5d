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
	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/values"
)

// ExecutionResponse is the terminal sink: a typed column/row result, the
// equivalent of the original's Thrift-style response with bool_val/integer/
// single_precision/double_precision/str/timestamp/id columns. Here a single
// PropertyValue union plays all of those roles; ColumnTypes records the
// static type inferred for each column (or the runtime fallback — see
// columnTypes).
type ExecutionResponse struct {
	ColumnNames []string
	ColumnTypes []values.SupportedType
	Rows        [][]values.PropertyValue
}

// inputColumnTyper resolves the static type of a pipeline-input or
// variable-bound column, used by calculateExprType for kInputProp/
// kVariableProp. Returns TypeUnknown if the column isn't found.
type inputColumnTyper func(prop string) values.SupportedType

// calculateExprType performs the spec's static type inference: relational
// and logical expressions are always BOOL; edge id getters are VID; rank
// and type getters are INT; a cast reports its target type; tag and edge
// property getters report their schema's declared type; pipeline/variable
// column references report the input schema's type; a literal reports its
// own value's type. Anything else —
// including a name that fails to resolve — is UNKNOWN, which callers must
// be prepared to fall back from to the value's own runtime tag.
func calculateExprType(e ast.Expr, p *plan, mgr schema.Manager, space values.SpaceID, inputType inputColumnTyper) values.SupportedType {
	switch v := e.(type) {
	case ast.RelationalExpr, ast.LogicalExpr:
		return values.TypeBool
	case ast.EdgeDstIdExpr, ast.EdgeSrcIdExpr:
		return values.TypeVID
	case ast.EdgeRankExpr, ast.EdgeTypeExpr:
		return values.TypeInt
	case ast.TypeCastingExpr:
		return v.Target
	case ast.LiteralExpr:
		return v.Value.Type()
	case ast.SrcPropExpr:
		return tagFieldType(mgr, space, v.Tag, v.Prop)
	case ast.DstPropExpr:
		return tagFieldType(mgr, space, v.Tag, v.Prop)
	case ast.AliasPropExpr:
		ref, ok := p.edgeByName(v.EdgeName)
		if !ok {
			return values.TypeUnknown
		}
		d := mgr.GetEdgeSchema(space, ref.typ)
		if d == nil {
			return values.TypeUnknown
		}
		return d.FieldType(v.Prop)
	case ast.InputPropExpr:
		if inputType == nil {
			return values.TypeUnknown
		}
		return inputType(v.Prop)
	case ast.VariablePropExpr:
		if inputType == nil {
			return values.TypeUnknown
		}
		return inputType(v.Prop)
	default:
		return values.TypeUnknown
	}
}

func tagFieldType(mgr schema.Manager, space values.SpaceID, tag, prop string) values.SupportedType {
	id, err := mgr.ToTagID(space, tag)
	if err != nil {
		return values.TypeUnknown
	}
	d := mgr.GetTagSchema(space, id)
	if d == nil {
		return values.TypeUnknown
	}
	return d.FieldType(prop)
}

// columnTypes computes one static type per yield column, falling back to
// the first emitted row's runtime type when inference is UNKNOWN — the
// same fallback the original's response writer uses (see SPEC_FULL.md §10.4).
func columnTypes(p *plan, mr *materializedRows, mgr schema.Manager, space values.SpaceID, inputType inputColumnTyper) []values.SupportedType {
	types := make([]values.SupportedType, len(p.yield))
	for i, y := range p.yield {
		t := calculateExprType(y.expr, p, mgr, space, inputType)
		if t == values.TypeUnknown && len(mr.rows) > 0 {
			t = mr.rows[0][i].Type()
		}
		types[i] = t
	}
	return types
}

// toExecutionResponse builds the terminal sink.
func toExecutionResponse(p *plan, mr *materializedRows, mgr schema.Manager, space values.SpaceID, inputType inputColumnTyper) *ExecutionResponse {
	rows := make([][]values.PropertyValue, len(mr.rows))
	for i, r := range mr.rows {
		rows[i] = []values.PropertyValue(r)
	}
	return &ExecutionResponse{
		ColumnNames: mr.columns,
		ColumnTypes: columnTypes(p, mr, mgr, space, inputType),
		Rows:        rows,
	}
}

// toInterimResult builds the pipeline sink, for handing this stage's output
// to a subsequent GO/pipe stage.
func toInterimResult(mr *materializedRows) ast.InterimResult {
	return &ast.TableResult{Columns: mr.columns, RowData: mr.rows}
}
