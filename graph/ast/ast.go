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

// Package ast holds the "ready query tree" the executor consumes: a
// GoSentence and its clauses. Building this tree from query text is out of
// scope here; callers (a parser, or a test, or the demo CLI's own tiny
// reader) construct it directly.
package ast

import "github.com/zhuchaokn/nebula/graph/values"

// StepClause is the `GO N STEPS` (or bare `GO`, N==1) clause.
type StepClause struct {
	Steps int
	Upto  bool // UPTO N STEPS; rejected by the preparer as UNSUPPORTED
}

// FromMode selects which of the three mutually exclusive start-set sources
// a FromClause uses.
type FromMode int

const (
	FromInstant FromMode = iota
	FromPipe
	FromVariable
)

// FromClause is the `FROM ...` clause.
type FromClause struct {
	Mode FromMode

	// Mode == FromInstant: one expression per literal/near(...) id source.
	InstantIDs []Expr

	// Mode == FromPipe: the previous stage's column holding vertex ids.
	PipeColumn string

	// Mode == FromVariable: the named variable and its vertex-id column.
	VarName   string
	VarColumn string
}

// EdgeRef names one edge type in an OVER clause.
type EdgeRef struct {
	Name string
}

// OverClause is the `OVER e1, e2 [REVERSELY]` clause.
type OverClause struct {
	Edges     []EdgeRef
	AllEdges  bool // OVER *
	Reversely bool
}

// WhereClause is the optional `WHERE ...` clause.
type WhereClause struct {
	Filter Expr
}

// YieldColumn is one projected expression, with its output alias.
type YieldColumn struct {
	Expr  Expr
	Alias string
}

// YieldClause is the `YIELD [DISTINCT] e1 AS a1, e2 AS a2, ...` clause.
type YieldClause struct {
	Distinct bool
	Columns  []YieldColumn
}

// GoSentence is the complete ready-to-prepare query tree for one
// `GO ... FROM ... OVER ... [WHERE ...] YIELD ...` statement.
type GoSentence struct {
	Step  StepClause
	From  FromClause
	Over  OverClause
	Where *WhereClause // nil means no filter
	Yield YieldClause
}

// Row is one pipeline row: one PropertyValue per column, in ColumnNames order.
type Row []values.PropertyValue

// InterimResult is the row-set handed between pipeline stages (the output
// of a prior GO/pipe stage, or a named variable's bound result). Producing
// and storing these is out of scope; the executor only reads them through
// this interface.
type InterimResult interface {
	// ColumnNames returns the result's column names, in Row order.
	ColumnNames() []string
	// Rows returns every row of the result.
	Rows() []Row
}

// VariableHolder resolves a named variable (`$var`) to its bound
// InterimResult. Managing the variable binding lifecycle is out of scope;
// the executor only reads through this interface.
type VariableHolder interface {
	Get(name string) (InterimResult, bool)
}

// TableResult is a minimal, slice-backed InterimResult, used by tests and
// the demo CLI to hand the executor a concrete pipeline input or to capture
// its pipeline output.
type TableResult struct {
	Columns []string
	RowData []Row
}

func (t *TableResult) ColumnNames() []string { return t.Columns }
func (t *TableResult) Rows() []Row           { return t.RowData }

// mapVariableHolder is a minimal, map-backed VariableHolder.
type mapVariableHolder map[string]InterimResult

// NewVariableHolder builds a VariableHolder from a name->result map, for
// tests and the demo CLI.
func NewVariableHolder(vars map[string]InterimResult) VariableHolder {
	return mapVariableHolder(vars)
}

func (m mapVariableHolder) Get(name string) (InterimResult, bool) {
	r, ok := m[name]
	return r, ok
}
