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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/values"
)

func TestParseSentenceFile_InstantFromAndYield(t *testing.T) {
	doc := []byte(`{
		"steps": 2,
		"from": {"mode": "instant", "ids": [100]},
		"over": {"edges": ["knows"], "reversely": true},
		"where": {"kind": "gt", "left": {"kind": "dstProp", "tag": "player", "prop": "age"}, "right": {"kind": "lit", "type": "int", "value": 30}},
		"yield": [
			{"expr": {"kind": "edgeDstId", "edge": "knows"}, "alias": "id"},
			{"expr": {"kind": "dstProp", "tag": "player", "prop": "name"}, "alias": "name"}
		],
		"distinct": true
	}`)

	sentence, err := parseSentenceFile(doc)
	require.NoError(t, err)

	assert.Equal(t, 2, sentence.Step.Steps)
	require.Len(t, sentence.From.InstantIDs, 1)
	lit, ok := sentence.From.InstantIDs[0].(ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, values.VertexID(100), lit.Value.AsVertexID())

	require.Len(t, sentence.Over.Edges, 1)
	assert.Equal(t, "knows", sentence.Over.Edges[0].Name)
	assert.True(t, sentence.Over.Reversely)

	require.NotNil(t, sentence.Where)
	rel, ok := sentence.Where.Filter.(ast.RelationalExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpGT, rel.Op)

	require.Len(t, sentence.Yield.Columns, 2)
	assert.Equal(t, "id", sentence.Yield.Columns[0].Alias)
	assert.True(t, sentence.Yield.Distinct)
}

func TestParseSentenceFile_PipeFrom(t *testing.T) {
	doc := []byte(`{
		"steps": 1,
		"from": {"mode": "pipe", "pipeColumn": "id"},
		"over": {"allEdges": true},
		"yield": [{"expr": {"kind": "edgeSrcId", "edge": "knows"}, "alias": "src"}]
	}`)

	sentence, err := parseSentenceFile(doc)
	require.NoError(t, err)
	assert.Equal(t, ast.FromPipe, sentence.From.Mode)
	assert.Equal(t, "id", sentence.From.PipeColumn)
	assert.True(t, sentence.Over.AllEdges)
}

func TestParseSentenceFile_FunctionCall(t *testing.T) {
	doc := []byte(`{
		"steps": 1,
		"from": {"mode": "instant", "ids": [1]},
		"over": {"edges": ["knows"]},
		"yield": [{"expr": {"kind": "call", "name": "near", "args": [{"kind": "lit", "type": "string", "value": "1,2,3"}]}, "alias": "nearby"}]
	}`)

	sentence, err := parseSentenceFile(doc)
	require.NoError(t, err)
	call, ok := sentence.Yield.Columns[0].Expr.(ast.FunctionCallExpr)
	require.True(t, ok)
	assert.Equal(t, "near", call.Name)
	require.Len(t, call.Args, 1)
}

func TestParseSentenceFile_UnknownExprKind(t *testing.T) {
	doc := []byte(`{
		"steps": 1,
		"from": {"mode": "instant", "ids": [1]},
		"over": {"edges": ["knows"]},
		"yield": [{"expr": {"kind": "bogus"}, "alias": "x"}]
	}`)

	_, err := parseSentenceFile(doc)
	assert.Error(t, err)
}
