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

package grpcstore

import (
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/values"
)

// The wire* types are the JSON-over-gRPC request/reply shapes. They mirror
// graph/storage's types field for field, except schema information: a shard
// only ever returns the raw encoded property bytes it holds, never a
// *schema.Descriptor (whose PropertyValue defaults don't survive JSON
// round-tripping through unexported fields). Callers already fall back to
// schema.Manager for defaults, so the wire types simply omit VertexSchema/
// EdgeSchema rather than transmit an empty shell of them.

type wireProp struct {
	Owner    uint8
	Name     string
	Tag      int32
	EdgeType int32
}

func toWireProps(props []storage.PropDef) []wireProp {
	out := make([]wireProp, len(props))
	for i, p := range props {
		out[i] = wireProp{Owner: uint8(p.Owner), Name: p.Name, Tag: int32(p.Tag), EdgeType: int32(p.EdgeType)}
	}
	return out
}

type wireEdge struct {
	Dst   int64
	Rank  int64
	Props []byte
}

type wireEdgeData struct {
	Type  int32
	Edges []wireEdge
}

type wireTagData struct {
	Tag  int32
	Data []byte
}

type wireVertexData struct {
	VertexID int64
	TagData  []wireTagData
	EdgeData []wireEdgeData
}

func (v wireVertexData) toStorage() storage.VertexData {
	out := storage.VertexData{VertexID: values.VertexID(v.VertexID)}
	for _, td := range v.TagData {
		out.TagData = append(out.TagData, storage.TagData{Tag: values.TagID(td.Tag), Data: td.Data})
	}
	for _, ed := range v.EdgeData {
		edd := storage.EdgeData{Type: values.EdgeType(ed.Type)}
		for _, e := range ed.Edges {
			edd.Edges = append(edd.Edges, storage.Edge{Dst: values.VertexID(e.Dst), Rank: values.Rank(e.Rank), Props: e.Props})
		}
		out.EdgeData = append(out.EdgeData, edd)
	}
	return out
}

type neighborsRequest struct {
	Space          int32
	SrcIDs         []int64
	EdgeTypes      []int32
	PushDownFilter []byte
	Props          []wireProp
}

type neighborsReply struct {
	Vertices   []wireVertexData
	TotalEdges int64
}

func (r neighborsReply) toStorage() storage.QueryResponse {
	resp := storage.QueryResponse{TotalEdges: r.TotalEdges}
	for _, v := range r.Vertices {
		resp.Vertices = append(resp.Vertices, v.toStorage())
	}
	return resp
}

type vertexPropsRequest struct {
	Space int32
	IDs   []int64
	Props []wireProp
}

type vertexPropsReply struct {
	Vertices []wireVertexData
}

func (r vertexPropsReply) toStorage() storage.QueryResponse {
	resp := storage.QueryResponse{}
	for _, v := range r.Vertices {
		resp.Vertices = append(resp.Vertices, v.toStorage())
	}
	return resp
}

type wireEdgeKey struct {
	Src  int64
	Dst  int64
	Type int32
	Rank int64
}

func toWireKeys(keys []values.EdgeKey) []wireEdgeKey {
	out := make([]wireEdgeKey, len(keys))
	for i, k := range keys {
		out[i] = wireEdgeKey{Src: int64(k.Src), Dst: int64(k.Dst), Type: int32(k.Type), Rank: int64(k.Rank)}
	}
	return out
}

type edgePropsRequest struct {
	Space int32
	Keys  []wireEdgeKey
	Props []wireProp
}

type wireEdgeRow struct {
	Key  wireEdgeKey
	Data []byte
}

type wireEdgePropResponse struct {
	Type int32
	Rows []wireEdgeRow
}

type edgePropsReply struct {
	Types []wireEdgePropResponse
}

func (r edgePropsReply) toStorage() []storage.EdgePropResponse {
	out := make([]storage.EdgePropResponse, len(r.Types))
	for i, t := range r.Types {
		epr := storage.EdgePropResponse{Type: values.EdgeType(t.Type)}
		for _, row := range t.Rows {
			k := values.EdgeKey{
				Src: values.VertexID(row.Key.Src), Dst: values.VertexID(row.Key.Dst),
				Type: values.EdgeType(row.Key.Type), Rank: values.Rank(row.Key.Rank),
			}
			epr.Rows = append(epr.Rows, storage.EdgeRow{Key: k, Data: row.Data})
		}
		out[i] = epr
	}
	return out
}
