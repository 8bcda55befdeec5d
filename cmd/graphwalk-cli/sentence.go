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

package main

import (
	"encoding/json"
	"fmt"

	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/values"
)

// The types below are the demo CLI's "GO sentence file" format: a thin JSON
// encoding of a ready query tree. There is no GO/FROM/OVER/YIELD grammar in
// this module (query parsing is out of scope for the executor), so the CLI
// reads this JSON shape directly rather than text in the query language.

type sentenceDoc struct {
	Steps     int        `json:"steps"`
	From      fromDoc    `json:"from"`
	Over      overDoc    `json:"over"`
	Where     *exprDoc   `json:"where"`
	Yield     []yieldDoc `json:"yield"`
	Distinct  bool       `json:"distinct"`
}

type fromDoc struct {
	Mode      string  `json:"mode"` // "instant", "pipe", or "variable"
	IDs       []int64 `json:"ids"`
	PipeCol   string  `json:"pipeColumn"`
	VarName   string  `json:"varName"`
	VarColumn string  `json:"varColumn"`
}

type overDoc struct {
	Edges     []string `json:"edges"`
	AllEdges  bool     `json:"allEdges"`
	Reversely bool     `json:"reversely"`
}

type yieldDoc struct {
	Expr  exprDoc `json:"expr"`
	Alias string  `json:"alias"`
}

// exprDoc is a tagged union over ast.Expr's node kinds, keyed by Kind.
type exprDoc struct {
	Kind  string    `json:"kind"`
	Edge  string    `json:"edge,omitempty"`
	Name  string    `json:"name,omitempty"` // function name, kind == "call"
	Tag   string    `json:"tag,omitempty"`
	Prop  string    `json:"prop,omitempty"`
	Var   string    `json:"var,omitempty"`
	Type  string    `json:"type,omitempty"`  // literal/cast target type name
	Value any       `json:"value,omitempty"` // literal value
	Left  *exprDoc  `json:"left,omitempty"`
	Right *exprDoc  `json:"right,omitempty"`
	Args  []exprDoc `json:"args,omitempty"`
}

func parseSentenceFile(data []byte) (*ast.GoSentence, error) {
	var doc sentenceDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing sentence file: %w", err)
	}

	sentence := &ast.GoSentence{
		Step: ast.StepClause{Steps: doc.Steps},
		Over: ast.OverClause{AllEdges: doc.Over.AllEdges, Reversely: doc.Over.Reversely},
		Yield: ast.YieldClause{Distinct: doc.Distinct},
	}
	for _, e := range doc.Over.Edges {
		sentence.Over.Edges = append(sentence.Over.Edges, ast.EdgeRef{Name: e})
	}

	switch doc.From.Mode {
	case "pipe":
		sentence.From = ast.FromClause{Mode: ast.FromPipe, PipeColumn: doc.From.PipeCol}
	case "variable":
		sentence.From = ast.FromClause{Mode: ast.FromVariable, VarName: doc.From.VarName, VarColumn: doc.From.VarColumn}
	default:
		ids := make([]ast.Expr, len(doc.From.IDs))
		for i, id := range doc.From.IDs {
			ids[i] = ast.LiteralExpr{Value: values.VID(values.VertexID(id))}
		}
		sentence.From = ast.FromClause{Mode: ast.FromInstant, InstantIDs: ids}
	}

	if doc.Where != nil {
		expr, err := toExpr(*doc.Where)
		if err != nil {
			return nil, err
		}
		sentence.Where = &ast.WhereClause{Filter: expr}
	}

	for _, y := range doc.Yield {
		expr, err := toExpr(y.Expr)
		if err != nil {
			return nil, err
		}
		sentence.Yield.Columns = append(sentence.Yield.Columns, ast.YieldColumn{Expr: expr, Alias: y.Alias})
	}

	return sentence, nil
}

func toExpr(d exprDoc) (ast.Expr, error) {
	switch d.Kind {
	case "edgeDstId":
		return ast.EdgeDstIdExpr{EdgeName: d.Edge}, nil
	case "edgeSrcId":
		return ast.EdgeSrcIdExpr{EdgeName: d.Edge}, nil
	case "edgeRank":
		return ast.EdgeRankExpr{EdgeName: d.Edge}, nil
	case "edgeType":
		return ast.EdgeTypeExpr{EdgeName: d.Edge}, nil
	case "srcProp":
		return ast.SrcPropExpr{Tag: d.Tag, Prop: d.Prop}, nil
	case "dstProp":
		return ast.DstPropExpr{Tag: d.Tag, Prop: d.Prop}, nil
	case "aliasProp":
		return ast.AliasPropExpr{EdgeName: d.Edge, Prop: d.Prop}, nil
	case "inputProp":
		return ast.InputPropExpr{Prop: d.Prop}, nil
	case "variableProp":
		return ast.VariablePropExpr{Var: d.Var, Prop: d.Prop}, nil
	case "lit":
		v, err := literalValue(d.Type, d.Value)
		if err != nil {
			return nil, err
		}
		return ast.LiteralExpr{Value: v}, nil
	case "cast":
		t, err := typeByName(d.Type)
		if err != nil {
			return nil, err
		}
		operand, err := toExpr(*d.Left)
		if err != nil {
			return nil, err
		}
		return ast.TypeCastingExpr{Target: t, Operand: operand}, nil
	case "eq", "ne", "lt", "le", "gt", "ge":
		left, err := toExpr(*d.Left)
		if err != nil {
			return nil, err
		}
		right, err := toExpr(*d.Right)
		if err != nil {
			return nil, err
		}
		return ast.RelationalExpr{Op: relOp(d.Kind), Left: left, Right: right}, nil
	case "and", "or", "xor", "not":
		left, err := toExpr(*d.Left)
		if err != nil {
			return nil, err
		}
		var right ast.Expr
		if d.Right != nil {
			right, err = toExpr(*d.Right)
			if err != nil {
				return nil, err
			}
		}
		return ast.LogicalExpr{Op: logOp(d.Kind), Left: left, Right: right}, nil
	case "call":
		args := make([]ast.Expr, len(d.Args))
		for i, a := range d.Args {
			e, err := toExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = e
		}
		return ast.FunctionCallExpr{Name: d.Name, Args: args}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", d.Kind)
	}
}

func relOp(kind string) ast.RelationalOp {
	switch kind {
	case "eq":
		return ast.OpEQ
	case "ne":
		return ast.OpNE
	case "lt":
		return ast.OpLT
	case "le":
		return ast.OpLE
	case "gt":
		return ast.OpGT
	default:
		return ast.OpGE
	}
}

func logOp(kind string) ast.LogicalOp {
	switch kind {
	case "and":
		return ast.OpAnd
	case "or":
		return ast.OpOr
	case "xor":
		return ast.OpXor
	default:
		return ast.OpNot
	}
}

func typeByName(name string) (values.SupportedType, error) {
	switch name {
	case "bool":
		return values.TypeBool, nil
	case "int":
		return values.TypeInt, nil
	case "float":
		return values.TypeFloat, nil
	case "double":
		return values.TypeDouble, nil
	case "string":
		return values.TypeString, nil
	case "timestamp":
		return values.TypeTimestamp, nil
	case "vid":
		return values.TypeVID, nil
	default:
		return values.TypeUnknown, fmt.Errorf("unknown type %q", name)
	}
}

func literalValue(typ string, raw any) (values.PropertyValue, error) {
	switch typ {
	case "bool":
		return values.Bool(raw.(bool)), nil
	case "int":
		return values.Int(int64(raw.(float64))), nil
	case "float":
		return values.Float(raw.(float64)), nil
	case "double":
		return values.Double(raw.(float64)), nil
	case "string":
		return values.String(raw.(string)), nil
	case "vid":
		return values.VID(values.VertexID(int64(raw.(float64)))), nil
	default:
		return values.PropertyValue{}, fmt.Errorf("unknown literal type %q", typ)
	}
}
