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
	"context"
	"fmt"

	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/exec"
	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/storage/memstore"
	"github.com/zhuchaokn/nebula/graph/values"
)

// runDemo seeds a tiny three-vertex "player knows player"
// graph in an in-memory store and runs a two-hop reverse traversal against
// it, so the executor can be exercised without any storage setup.
func runDemo(ctx context.Context) error {
	mgr := schema.NewInMemory()
	mgr.AddTag("player", 1, &schema.Descriptor{Fields: []schema.Field{
		{Name: "name", Type: values.TypeString},
		{Name: "age", Type: values.TypeInt},
	}})
	mgr.AddEdge("knows", 1, &schema.Descriptor{Fields: []schema.Field{
		{Name: "since", Type: values.TypeInt},
	}})

	store := memstore.New(mgr, 2)
	tony, sarah, mike := values.VertexID(100), values.VertexID(101), values.VertexID(102)
	store.AddVertex(tony, 1, map[string]values.PropertyValue{"name": values.String("Tony Parker"), "age": values.Int(41)})
	store.AddVertex(sarah, 1, map[string]values.PropertyValue{"name": values.String("Sarah Bird"), "age": values.Int(33)})
	store.AddVertex(mike, 1, map[string]values.PropertyValue{"name": values.String("Mike Conley"), "age": values.Int(36)})
	store.AddEdge(tony, sarah, 1, 0, map[string]values.PropertyValue{"since": values.Int(2010)})
	store.AddEdge(sarah, mike, 1, 0, map[string]values.PropertyValue{"since": values.Int(2015)})

	sentence := &ast.GoSentence{
		Step: ast.StepClause{Steps: 2},
		From: ast.FromClause{Mode: ast.FromInstant, InstantIDs: []ast.Expr{
			ast.LiteralExpr{Value: values.VID(mike)},
		}},
		Over: ast.OverClause{Edges: []ast.EdgeRef{{Name: "knows"}}, Reversely: true},
		Yield: ast.YieldClause{Columns: []ast.YieldColumn{
			{Expr: ast.EdgeDstIdExpr{EdgeName: "knows"}, Alias: "id"},
			{Expr: ast.DstPropExpr{Tag: "player", Prop: "name"}, Alias: "name"},
		}},
	}

	engine := exec.New(store, mgr)
	result, err := engine.Execute(ctx, sentence, 1, nil, nil, exec.DefaultOptions(), false)
	if err != nil {
		return fmt.Errorf("running demo query: %w", err)
	}
	printResponse(result.Response)
	return nil
}
