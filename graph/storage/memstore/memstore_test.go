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

package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/values"
)

func newGraph(numParts int) (*schema.InMemory, *Store) {
	mgr := schema.NewInMemory()
	mgr.AddTag("player", 1, &schema.Descriptor{Fields: []schema.Field{{Name: "name", Type: values.TypeString}}})
	mgr.AddEdge("knows", 1, &schema.Descriptor{Fields: []schema.Field{{Name: "since", Type: values.TypeInt}}})
	s := New(mgr, numParts)
	s.AddVertex(1, 1, map[string]values.PropertyValue{"name": values.String("Alice")})
	s.AddVertex(2, 1, map[string]values.PropertyValue{"name": values.String("Bob")})
	s.AddEdge(1, 2, 1, 0, map[string]values.PropertyValue{"since": values.Int(2020)})
	return mgr, s
}

func TestStore_GetNeighborsForward(t *testing.T) {
	_, s := newGraph(1)
	resp, err := s.GetNeighbors(context.Background(), 1, []values.VertexID{1}, []values.EdgeType{1}, nil, nil)
	require.NoError(t, err)
	require.Len(t, resp.Responses(), 1)
	vs := resp.Responses()[0].Vertices
	require.Len(t, vs, 1)
	require.Len(t, vs[0].EdgeData, 1)
	assert.Equal(t, values.VertexID(2), vs[0].EdgeData[0].Edges[0].Dst)
}

func TestStore_GetNeighborsReverse(t *testing.T) {
	_, s := newGraph(1)
	resp, err := s.GetNeighbors(context.Background(), 1, []values.VertexID{2}, []values.EdgeType{-1}, nil, nil)
	require.NoError(t, err)
	vs := resp.Responses()[0].Vertices
	require.Len(t, vs[0].EdgeData, 1)
	assert.Equal(t, values.VertexID(1), vs[0].EdgeData[0].Edges[0].Dst)
}

func TestStore_FailPartReportsPartialCompleteness(t *testing.T) {
	_, s := newGraph(4)
	failErr := errors.New("shard unavailable")

	// find the partition vertex id 1 actually lives on, and fail it.
	var failedPart int
	for p := 0; p < 4; p++ {
		s.FailPart(p, failErr)
		_, err := s.GetNeighbors(context.Background(), 1, []values.VertexID{1}, []values.EdgeType{1}, nil, nil)
		s.FailPart(p, nil)
		if err != nil {
			failedPart = p
			break
		}
	}

	s.FailPart(failedPart, failErr)
	resp, err := s.GetNeighbors(context.Background(), 1, []values.VertexID{1, 2}, []values.EdgeType{1}, nil, nil)
	require.NoError(t, err)
	assert.Less(t, resp.Completeness(), 100)
	assert.NotEmpty(t, resp.FailedParts())
}

var _ storage.Client = (*Store)(nil)
