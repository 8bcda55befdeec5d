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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/storage/memstore"
	"github.com/zhuchaokn/nebula/graph/values"
)

const testSpace = values.SpaceID(1)

// newTestGraph builds the small player/knows graph spec.md's scenarios are
// phrased against: 100 -knows-> 101 -knows-> 102, each player tagged with a
// name and age.
func newTestGraph(t *testing.T, numParts int) (*schema.InMemory, *memstore.Store) {
	t.Helper()
	mgr := schema.NewInMemory()
	mgr.AddTag("player", 1, &schema.Descriptor{Fields: []schema.Field{
		{Name: "name", Type: values.TypeString},
		{Name: "age", Type: values.TypeInt},
	}})
	mgr.AddEdge("knows", 1, &schema.Descriptor{Fields: []schema.Field{
		{Name: "since", Type: values.TypeInt},
	}})

	store := memstore.New(mgr, numParts)
	store.AddVertex(100, 1, map[string]values.PropertyValue{"name": values.String("Tony"), "age": values.Int(41)})
	store.AddVertex(101, 1, map[string]values.PropertyValue{"name": values.String("Sarah"), "age": values.Int(33)})
	store.AddVertex(102, 1, map[string]values.PropertyValue{"name": values.String("Mike"), "age": values.Int(36)})
	store.AddEdge(100, 101, 1, 0, map[string]values.PropertyValue{"since": values.Int(2010)})
	store.AddEdge(101, 102, 1, 0, map[string]values.PropertyValue{"since": values.Int(2015)})
	return mgr, store
}

func vidLit(id values.VertexID) ast.Expr {
	return ast.LiteralExpr{Value: values.VID(id)}
}

func TestEngine_SingleHop(t *testing.T) {
	mgr, store := newTestGraph(t, 1)
	sentence := &ast.GoSentence{
		Step: ast.StepClause{Steps: 1},
		From: ast.FromClause{Mode: ast.FromInstant, InstantIDs: []ast.Expr{vidLit(100)}},
		Over: ast.OverClause{Edges: []ast.EdgeRef{{Name: "knows"}}},
		Yield: ast.YieldClause{Columns: []ast.YieldColumn{
			{Expr: ast.EdgeDstIdExpr{EdgeName: "knows"}, Alias: "id"},
			{Expr: ast.DstPropExpr{Tag: "player", Prop: "name"}, Alias: "name"},
		}},
	}

	e := New(store, mgr)
	res, err := e.Execute(context.Background(), sentence, testSpace, nil, nil, DefaultOptions(), false)
	require.NoError(t, err)
	require.NotNil(t, res.Response)
	assert.Equal(t, []string{"id", "name"}, res.Response.ColumnNames)
	require.Len(t, res.Response.Rows, 1)
	assert.Equal(t, values.VertexID(101), res.Response.Rows[0][0].AsVertexID())
	assert.Equal(t, "Sarah", res.Response.Rows[0][1].AsString())
}

func TestEngine_TwoHopsWithDedup(t *testing.T) {
	mgr, store := newTestGraph(t, 1)
	// add a second 100 -> 101 edge (rank 1); the frontier is deduplicated, so
	// the second hop still starts from 101 once and yields 102 once.
	store.AddEdge(100, 101, 1, 1, map[string]values.PropertyValue{"since": values.Int(2011)})

	sentence := &ast.GoSentence{
		Step: ast.StepClause{Steps: 2},
		From: ast.FromClause{Mode: ast.FromInstant, InstantIDs: []ast.Expr{vidLit(100)}},
		Over: ast.OverClause{Edges: []ast.EdgeRef{{Name: "knows"}}},
		Yield: ast.YieldClause{
			Distinct: true,
			Columns: []ast.YieldColumn{
				{Expr: ast.EdgeDstIdExpr{EdgeName: "knows"}, Alias: "id"},
			},
		},
	}

	e := New(store, mgr)
	res, err := e.Execute(context.Background(), sentence, testSpace, nil, nil, DefaultOptions(), false)
	require.NoError(t, err)
	require.Len(t, res.Response.Rows, 1)
	assert.Equal(t, values.VertexID(102), res.Response.Rows[0][0].AsVertexID())
}

func TestEngine_ReverseWithEdgeProp(t *testing.T) {
	mgr, store := newTestGraph(t, 1)
	sentence := &ast.GoSentence{
		Step: ast.StepClause{Steps: 1},
		From: ast.FromClause{Mode: ast.FromInstant, InstantIDs: []ast.Expr{vidLit(102)}},
		Over: ast.OverClause{Edges: []ast.EdgeRef{{Name: "knows"}}, Reversely: true},
		Yield: ast.YieldClause{Columns: []ast.YieldColumn{
			{Expr: ast.EdgeDstIdExpr{EdgeName: "knows"}, Alias: "id"},
			{Expr: ast.AliasPropExpr{EdgeName: "knows", Prop: "since"}, Alias: "since"},
		}},
	}

	e := New(store, mgr)
	res, err := e.Execute(context.Background(), sentence, testSpace, nil, nil, DefaultOptions(), false)
	require.NoError(t, err)
	require.Len(t, res.Response.Rows, 1)
	assert.Equal(t, values.VertexID(101), res.Response.Rows[0][0].AsVertexID())
	assert.Equal(t, int64(2015), res.Response.Rows[0][1].AsInt())
}

func TestEngine_PipelineInput(t *testing.T) {
	mgr, store := newTestGraph(t, 1)
	input := &ast.TableResult{
		Columns: []string{"src"},
		RowData: []ast.Row{{values.VID(100)}},
	}
	sentence := &ast.GoSentence{
		Step: ast.StepClause{Steps: 1},
		From: ast.FromClause{Mode: ast.FromPipe, PipeColumn: "src"},
		Over: ast.OverClause{Edges: []ast.EdgeRef{{Name: "knows"}}},
		Yield: ast.YieldClause{Columns: []ast.YieldColumn{
			{Expr: ast.EdgeDstIdExpr{EdgeName: "knows"}, Alias: "id"},
		}},
	}

	e := New(store, mgr)
	res, err := e.Execute(context.Background(), sentence, testSpace, input, nil, DefaultOptions(), false)
	require.NoError(t, err)
	require.Len(t, res.Response.Rows, 1)
	assert.Equal(t, values.VertexID(101), res.Response.Rows[0][0].AsVertexID())
}

func TestEngine_PartialFailureStillReturnsRows(t *testing.T) {
	mgr, store := newTestGraph(t, 4)
	store.FailPart(partOfForTest(101, 4), errors.New("shard unavailable"))

	sentence := &ast.GoSentence{
		Step: ast.StepClause{Steps: 1},
		From: ast.FromClause{Mode: ast.FromInstant, InstantIDs: []ast.Expr{vidLit(100), vidLit(101)}},
		Over: ast.OverClause{Edges: []ast.EdgeRef{{Name: "knows"}}},
		Yield: ast.YieldClause{Columns: []ast.YieldColumn{
			{Expr: ast.EdgeDstIdExpr{EdgeName: "knows"}, Alias: "id"},
		}},
	}

	e := New(store, mgr)
	res, err := e.Execute(context.Background(), sentence, testSpace, nil, nil, DefaultOptions(), false)
	require.NoError(t, err)
	// 100's shard is healthy, so its hop to 101 still comes back even though
	// 101's own shard (holding its outgoing edges) is down.
	require.Len(t, res.Response.Rows, 1)
	assert.Equal(t, values.VertexID(101), res.Response.Rows[0][0].AsVertexID())
}

func TestEngine_EmptyStartSetShortCircuits(t *testing.T) {
	mgr, store := newTestGraph(t, 1)
	sentence := &ast.GoSentence{
		Step: ast.StepClause{Steps: 1},
		From: ast.FromClause{Mode: ast.FromInstant},
		Over: ast.OverClause{Edges: []ast.EdgeRef{{Name: "knows"}}},
		Yield: ast.YieldClause{Columns: []ast.YieldColumn{
			{Expr: ast.EdgeDstIdExpr{EdgeName: "knows"}, Alias: "id"},
		}},
	}

	e := New(store, mgr)
	res, err := e.Execute(context.Background(), sentence, testSpace, nil, nil, DefaultOptions(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, res.Response.ColumnNames)
	assert.Empty(t, res.Response.Rows)
}

// partOfForTest mirrors memstore's own id%numParts sharding, so the
// partial-failure test can target the shard actually holding vertex 101
// without memstore needing to export its sharding function.
func partOfForTest(id values.VertexID, numParts int) int {
	h := int64(id)
	if h < 0 {
		h = -h
	}
	return int(h % int64(numParts))
}
