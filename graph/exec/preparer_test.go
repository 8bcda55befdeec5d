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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/values"
)

func testSchema() *schema.InMemory {
	mgr := schema.NewInMemory()
	mgr.AddTag("player", 1, &schema.Descriptor{Fields: []schema.Field{{Name: "name", Type: values.TypeString}}})
	mgr.AddEdge("knows", 1, &schema.Descriptor{Fields: []schema.Field{{Name: "since", Type: values.TypeInt}}})
	mgr.AddEdge("serves", 2, &schema.Descriptor{})
	return mgr
}

func baseSentence() *ast.GoSentence {
	return &ast.GoSentence{
		Step: ast.StepClause{Steps: 1},
		From: ast.FromClause{Mode: ast.FromInstant, InstantIDs: []ast.Expr{vidLit(1)}},
		Over: ast.OverClause{Edges: []ast.EdgeRef{{Name: "knows"}}},
		Yield: ast.YieldClause{Columns: []ast.YieldColumn{
			{Expr: ast.EdgeDstIdExpr{EdgeName: "knows"}, Alias: "id"},
		}},
	}
}

func TestPrepare_RejectsUptoStep(t *testing.T) {
	mgr := testSchema()
	s := baseSentence()
	s.Step.Upto = true
	_, err := prepare(s, testSpace, mgr, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, Unsupported, err.(*QueryError).Kind)
}

func TestPrepare_RejectsZeroSteps(t *testing.T) {
	mgr := testSchema()
	s := baseSentence()
	s.Step.Steps = 0
	_, err := prepare(s, testSpace, mgr, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, SyntaxError, err.(*QueryError).Kind)
}

func TestPrepare_RejectsUnknownEdgeName(t *testing.T) {
	mgr := testSchema()
	s := baseSentence()
	s.Over.Edges = []ast.EdgeRef{{Name: "nope"}}
	_, err := prepare(s, testSpace, mgr, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, NameError, err.(*QueryError).Kind)
}

func TestPrepare_RejectsDuplicateEdgeAlias(t *testing.T) {
	mgr := testSchema()
	s := baseSentence()
	s.Over.Edges = []ast.EdgeRef{{Name: "knows"}, {Name: "knows"}}
	_, err := prepare(s, testSpace, mgr, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, DuplicateAlias, err.(*QueryError).Kind)
}

func TestPrepare_OverAllEdgesEmptyYieldSynthesizesDstIdColumns(t *testing.T) {
	mgr := testSchema()
	s := baseSentence()
	s.Over = ast.OverClause{AllEdges: true}
	s.Yield = ast.YieldClause{}
	p, err := prepare(s, testSpace, mgr, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, p.yield, 2)
	assert.Equal(t, "knows._dst", p.yield[0].alias)
	assert.Equal(t, "serves._dst", p.yield[1].alias)
}

func TestPrepare_FilterPushdownOnlyForwardNotReverse(t *testing.T) {
	mgr := testSchema()
	s := baseSentence()
	s.Over.Reversely = true
	s.Where = &ast.WhereClause{Filter: ast.RelationalExpr{
		Op:    ast.OpGT,
		Left:  ast.DstPropExpr{Tag: "player", Prop: "name"},
		Right: ast.LiteralExpr{Value: values.String("x")},
	}}
	p, err := prepare(s, testSpace, mgr, DefaultOptions())
	require.NoError(t, err)
	assert.Nil(t, p.pushDownFilter)

	s.Over.Reversely = false
	p, err = prepare(s, testSpace, mgr, DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, p.pushDownFilter)
}

func TestPrepare_RejectsInputPropWhenFromIsNotPipe(t *testing.T) {
	mgr := testSchema()
	s := baseSentence()
	s.Yield.Columns = append(s.Yield.Columns, ast.YieldColumn{Expr: ast.InputPropExpr{Prop: "x"}, Alias: "x"})
	_, err := prepare(s, testSpace, mgr, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, NameError, err.(*QueryError).Kind)
}
