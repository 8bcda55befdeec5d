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

package ast

import "github.com/zhuchaokn/nebula/graph/values"

// Expr is any node of a yield/filter expression tree. The executor's
// graph/exec package switches on the concrete type to evaluate or
// type-infer it; Expr itself carries no behavior, matching this module's
// purely-descriptive ready-query-tree.
type Expr interface {
	isExpr()
}

// EdgeDstIdExpr is `edgeName._dst` / `edgeName._dst` used bare as a kEdgeDstId node.
type EdgeDstIdExpr struct{ EdgeName string }

// EdgeSrcIdExpr is `edgeName._src`.
type EdgeSrcIdExpr struct{ EdgeName string }

// EdgeRankExpr is `edgeName._rank`.
type EdgeRankExpr struct{ EdgeName string }

// EdgeTypeExpr is `edgeName._type`.
type EdgeTypeExpr struct{ EdgeName string }

// SrcPropExpr is `$^.tag.prop`, the source vertex's tag property.
type SrcPropExpr struct{ Tag, Prop string }

// DstPropExpr is `$$.tag.prop` on the destination side, the destination
// vertex's tag property after enrichment.
type DstPropExpr struct{ Tag, Prop string }

// AliasPropExpr is `edgeName.prop`, an edge (alias) property.
type AliasPropExpr struct{ EdgeName, Prop string }

// InputPropExpr is `$-.prop`, a column of the pipeline input row.
type InputPropExpr struct{ Prop string }

// VariablePropExpr is `$var.prop`, a column of a named variable's bound row.
type VariablePropExpr struct {
	Var  string
	Prop string
}

// LiteralExpr is a constant value.
type LiteralExpr struct{ Value values.PropertyValue }

// RelationalOp enumerates the comparison operators a RelationalExpr may use.
type RelationalOp string

const (
	OpEQ RelationalOp = "=="
	OpNE RelationalOp = "!="
	OpLT RelationalOp = "<"
	OpLE RelationalOp = "<="
	OpGT RelationalOp = ">"
	OpGE RelationalOp = ">="
)

// RelationalExpr is a binary comparison, always producing BOOL.
type RelationalExpr struct {
	Op          RelationalOp
	Left, Right Expr
}

// LogicalOp enumerates the boolean connectives a LogicalExpr may use.
type LogicalOp string

const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
	OpXor LogicalOp = "XOR"
	OpNot LogicalOp = "NOT" // unary; Right is unused
)

// LogicalExpr is a boolean connective, always producing BOOL. For OpNot,
// only Left is evaluated.
type LogicalExpr struct {
	Op          LogicalOp
	Left, Right Expr
}

// TypeCastingExpr casts Operand's evaluated value to Target.
type TypeCastingExpr struct {
	Target  values.SupportedType
	Operand Expr
}

// FunctionCallExpr is a function invocation, e.g. `near(...)` in a FROM
// INSTANT id-source position. Only `near` has defined semantics: its
// evaluated string result is split on commas into vertex ids. Any other
// name in FROM is a NameError; a function call in YIELD is a SyntaxError,
// and one in WHERE fails with an ExprError when evaluated.
type FunctionCallExpr struct {
	Name string
	Args []Expr
}

func (EdgeDstIdExpr) isExpr()    {}
func (EdgeSrcIdExpr) isExpr()    {}
func (EdgeRankExpr) isExpr()     {}
func (EdgeTypeExpr) isExpr()     {}
func (SrcPropExpr) isExpr()      {}
func (DstPropExpr) isExpr()      {}
func (AliasPropExpr) isExpr()    {}
func (InputPropExpr) isExpr()    {}
func (VariablePropExpr) isExpr() {}
func (LiteralExpr) isExpr()      {}
func (RelationalExpr) isExpr()   {}
func (LogicalExpr) isExpr()      {}
func (TypeCastingExpr) isExpr()  {}
func (FunctionCallExpr) isExpr() {}
