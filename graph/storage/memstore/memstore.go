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

// Package memstore is an in-memory storage.Client, used by tests and the
// demo CLI in place of a real storage-tier RPC connection. It holds the
// whole graph in maps guarded by a mutex rather than sharding data across
// partitions, but still goes through graph/storage/fanout so the gather
// and partial-completeness logic it exercises is the same code path a
// sharded deployment would use.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/storage/fanout"
	"github.com/zhuchaokn/nebula/graph/values"
)

// row is a decoded property row: property name to value. Store encodes rows
// as JSON so the Client interface's []byte payloads round-trip faithfully,
// the same as a real storage tier would hand back an opaque encoded blob.
type row map[string]values.PropertyValue

func encodeRow(r row) []byte {
	plain := make(map[string]interface{}, len(r))
	for k, v := range r {
		plain[k] = encodeValue(v)
	}
	b, _ := json.Marshal(plain)
	return b
}

func encodeValue(v values.PropertyValue) interface{} {
	switch v.Type() {
	case values.TypeBool:
		return v.AsBool()
	case values.TypeInt, values.TypeTimestamp:
		return v.AsInt()
	case values.TypeFloat, values.TypeDouble:
		return v.AsFloat()
	case values.TypeString:
		return v.AsString()
	case values.TypeVID:
		return int64(v.AsVertexID())
	default:
		return nil
	}
}

type edgeInstance struct {
	dst   values.VertexID
	typ   values.EdgeType
	rank  values.Rank
	props row
}

// part is one shard the Store is divided into; Host lets fanout.Call and its
// trace logging tell shards apart even though, unlike a real deployment,
// every part here lives in the same process.
type part struct {
	host string
}

func (p part) Host() string { return p.host }

// Store is an in-memory graph, organized into a fixed number of shards by
// vertex id so that tests exercise the same fan-out-and-gather path a
// sharded deployment uses. FailPart can be called to make specific shards
// return an error, to exercise the executor's partial-completeness handling.
type Store struct {
	mu       sync.RWMutex
	schema   schema.Manager
	numParts int
	vertex   map[values.VertexID]map[values.TagID]row
	out      map[values.VertexID][]edgeInstance // outgoing, keyed by source
	in       map[values.VertexID][]edgeInstance // incoming, keyed by destination

	failParts map[int]error
}

// New builds an empty Store sharded into numParts partitions, using mgr for
// schema-driven default-value fill-in.
func New(mgr schema.Manager, numParts int) *Store {
	if numParts < 1 {
		numParts = 1
	}
	return &Store{
		schema:    mgr,
		numParts:  numParts,
		vertex:    map[values.VertexID]map[values.TagID]row{},
		out:       map[values.VertexID][]edgeInstance{},
		in:        map[values.VertexID][]edgeInstance{},
		failParts: map[int]error{},
	}
}

// FailPart makes shard index part fail with err on every subsequent call,
// until cleared by passing a nil err. Used to simulate partial outages.
func (s *Store) FailPart(part int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failParts, part)
		return
	}
	s.failParts[part] = err
}

func (s *Store) partOf(id values.VertexID) int {
	h := int64(id)
	if h < 0 {
		h = -h
	}
	return int(h % int64(s.numParts))
}

// AddVertex sets tag's property row on vertex id, creating the vertex if
// it's not already present.
func (s *Store) AddVertex(id values.VertexID, tag values.TagID, props map[string]values.PropertyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vertex[id] == nil {
		s.vertex[id] = map[values.TagID]row{}
	}
	s.vertex[id][tag] = row(props)
}

// AddEdge adds one directed edge instance from src to dst, visible to
// GetNeighbors from src going forward and from dst going in reverse.
func (s *Store) AddEdge(src, dst values.VertexID, typ values.EdgeType, rank values.Rank, props map[string]values.PropertyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := edgeInstance{dst: dst, typ: typ.Abs(), rank: rank, props: row(props)}
	s.out[src] = append(s.out[src], e)
	rev := edgeInstance{dst: src, typ: typ.Abs(), rank: rank, props: row(props)}
	s.in[dst] = append(s.in[dst], rev)
}

func (s *Store) checkPart(p int) error {
	if err, ok := s.failParts[p]; ok {
		return err
	}
	return nil
}

// GetNeighbors implements storage.Client.
func (s *Store) GetNeighbors(ctx context.Context, space values.SpaceID, srcIDs []values.VertexID,
	edgeTypes []values.EdgeType, _ []byte, props []storage.PropDef) (*storage.PartialResponse, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	wantSrcProp := map[values.TagID][]string{}
	wantEdgeProp := map[values.EdgeType][]string{}
	for _, p := range props {
		switch p.Owner {
		case storage.OwnerSource:
			wantSrcProp[p.Tag] = append(wantSrcProp[p.Tag], p.Name)
		case storage.OwnerEdge:
			wantEdgeProp[p.EdgeType] = append(wantEdgeProp[p.EdgeType], p.Name)
		}
	}

	outcome := fanout.Call(ctx, len(srcIDs),
		func(i int) fanout.Shard { return part{host: fmt.Sprintf("mem-%d", s.partOf(srcIDs[i])%s.numParts)} },
		func(ctx context.Context, shard fanout.Shard, offsets []int) (fanout.Result, error) {
			partIdx := 0
			fmt.Sscanf(shard.Host(), "mem-%d", &partIdx)
			if err := s.checkPart(partIdx); err != nil {
				return nil, err
			}
			resp := storage.QueryResponse{
				VertexSchema: map[values.TagID]*schema.Descriptor{},
				EdgeSchema:   map[values.EdgeType]*schema.Descriptor{},
			}
			for _, off := range offsets {
				src := srcIDs[off]
				vd := storage.VertexData{VertexID: src}
				for tag, names := range wantSrcProp {
					vd.TagData = append(vd.TagData, storage.TagData{Tag: tag, Data: encodeRow(s.filterRow(space, tag, s.vertex[src][tag], names))})
					if _, ok := resp.VertexSchema[tag]; !ok {
						resp.VertexSchema[tag] = s.schema.GetTagSchema(space, tag)
					}
				}
				byType := map[values.EdgeType][]edgeInstance{}
				for _, t := range edgeTypes {
					var pool []edgeInstance
					if t.IsReverse() {
						pool = s.in[src]
					} else {
						pool = s.out[src]
					}
					for _, e := range pool {
						if e.typ == t.Abs() {
							byType[t] = append(byType[t], e)
						}
					}
				}
				for t, edges := range byType {
					ed := storage.EdgeData{Type: t}
					for _, e := range edges {
						ed.Edges = append(ed.Edges, storage.Edge{
							Dst:   e.dst,
							Rank:  e.rank,
							Props: encodeRow(s.filterRow(space, t.Abs(), e.props, wantEdgeProp[t])),
						})
					}
					resp.TotalEdges += int64(len(ed.Edges))
					if _, ok := resp.EdgeSchema[t.Abs()]; !ok {
						resp.EdgeSchema[t.Abs()] = s.schema.GetEdgeSchema(space, t.Abs())
					}
					vd.EdgeData = append(vd.EdgeData, ed)
				}
				resp.Vertices = append(resp.Vertices, vd)
			}
			return resp, nil
		})

	return toPartialResponse(outcome), firstErrorIfAllFailed(outcome)
}

// GetVertexProps implements storage.Client.
func (s *Store) GetVertexProps(ctx context.Context, space values.SpaceID, ids []values.VertexID,
	props []storage.PropDef) (*storage.PartialResponse, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	byTag := map[values.TagID][]string{}
	for _, p := range props {
		byTag[p.Tag] = append(byTag[p.Tag], p.Name)
	}

	outcome := fanout.Call(ctx, len(ids),
		func(i int) fanout.Shard { return part{host: fmt.Sprintf("mem-%d", s.partOf(ids[i])%s.numParts)} },
		func(ctx context.Context, shard fanout.Shard, offsets []int) (fanout.Result, error) {
			partIdx := 0
			fmt.Sscanf(shard.Host(), "mem-%d", &partIdx)
			if err := s.checkPart(partIdx); err != nil {
				return nil, err
			}
			resp := storage.QueryResponse{VertexSchema: map[values.TagID]*schema.Descriptor{}}
			for _, off := range offsets {
				id := ids[off]
				vd := storage.VertexData{VertexID: id}
				for tag, names := range byTag {
					vd.TagData = append(vd.TagData, storage.TagData{Tag: tag, Data: encodeRow(s.filterRow(space, tag, s.vertex[id][tag], names))})
					if _, ok := resp.VertexSchema[tag]; !ok {
						resp.VertexSchema[tag] = s.schema.GetTagSchema(space, tag)
					}
				}
				resp.Vertices = append(resp.Vertices, vd)
			}
			return resp, nil
		})

	return toPartialResponse(outcome), firstErrorIfAllFailed(outcome)
}

// GetEdgeProps implements storage.Client.
func (s *Store) GetEdgeProps(ctx context.Context, space values.SpaceID, keys []values.EdgeKey,
	props []storage.PropDef) (*storage.PartialResponse, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	wantByType := map[values.EdgeType][]string{}
	for _, p := range props {
		wantByType[p.EdgeType] = append(wantByType[p.EdgeType], p.Name)
	}

	outcome := fanout.Call(ctx, len(keys),
		func(i int) fanout.Shard { return part{host: fmt.Sprintf("mem-%d", s.partOf(keys[i].Src)%s.numParts)} },
		func(ctx context.Context, shard fanout.Shard, offsets []int) (fanout.Result, error) {
			partIdx := 0
			fmt.Sscanf(shard.Host(), "mem-%d", &partIdx)
			if err := s.checkPart(partIdx); err != nil {
				return nil, err
			}
			byType := map[values.EdgeType]*storage.EdgePropResponse{}
			for _, off := range offsets {
				k := keys[off]
				r := s.findEdge(k)
				resp, ok := byType[k.Type]
				if !ok {
					resp = &storage.EdgePropResponse{Type: k.Type, Schema: s.schema.GetEdgeSchema(space, k.Type)}
					byType[k.Type] = resp
				}
				resp.Rows = append(resp.Rows, storage.EdgeRow{Key: k, Data: encodeRow(s.filterRow(space, k.Type, r, wantByType[k.Type]))})
			}
			// fanout.Result must be a single value; wrap the per-type map.
			out := make([]storage.EdgePropResponse, 0, len(byType))
			for _, v := range byType {
				out = append(out, *v)
			}
			return out, nil
		})

	merged := &storage.PartialResponse{}
	var all []storage.EdgePropResponse
	for _, rep := range outcome.Replies {
		all = append(all, rep.Result.([]storage.EdgePropResponse)...)
	}
	merged = storage.NewEdgePropPartialResponse(all, outcome.Completeness, toPartFailures(outcome))
	return merged, firstErrorIfAllFailed(outcome)
}

func (s *Store) findEdge(k values.EdgeKey) row {
	for _, e := range s.out[k.Src] {
		if e.dst == k.Dst && e.typ == k.Type.Abs() && e.rank == k.Rank {
			return e.props
		}
	}
	return nil
}

// filterRow projects r down to the requested names, filling in schema
// defaults (or the static-type zero value) for anything r doesn't have.
func (s *Store) filterRow(space values.SpaceID, tagOrType interface{}, r row, names []string) row {
	out := row{}
	for _, name := range names {
		if v, ok := r[name]; ok {
			out[name] = v
			continue
		}
		var desc *schema.Descriptor
		switch t := tagOrType.(type) {
		case values.TagID:
			desc = s.schema.GetTagSchema(space, t)
		case values.EdgeType:
			desc = s.schema.GetEdgeSchema(space, t)
		}
		if desc != nil {
			if def, ok := desc.Default(name); ok {
				out[name] = def
				continue
			}
			out[name] = values.Zero(desc.FieldType(name))
			continue
		}
		out[name] = values.PropertyValue{}
	}
	return out
}

func toPartialResponse(o *fanout.Outcome) *storage.PartialResponse {
	var responses []storage.QueryResponse
	for _, rep := range o.Replies {
		responses = append(responses, rep.Result.(storage.QueryResponse))
	}
	return storage.NewPartialResponse(responses, o.Completeness, toPartFailures(o), toHostLatency(o))
}

func toPartFailures(o *fanout.Outcome) []storage.PartFailure {
	var out []storage.PartFailure
	for i, f := range o.Failures {
		out = append(out, storage.PartFailure{Part: i, Err: f.Err})
	}
	return out
}

func toHostLatency(o *fanout.Outcome) []storage.HostLatency {
	var out []storage.HostLatency
	for _, rep := range o.Replies {
		rows := 0
		if qr, ok := rep.Result.(storage.QueryResponse); ok {
			rows = len(qr.Vertices)
		}
		us := rep.Duration.Microseconds()
		out = append(out, storage.HostLatency{Host: rep.Shard.Host(), LatencyUs: us, TotalUs: us, RowCount: rows})
	}
	return out
}

func firstErrorIfAllFailed(o *fanout.Outcome) error {
	if len(o.Replies) > 0 || len(o.Failures) == 0 {
		return nil
	}
	return o.Failures[0].Err
}

var _ storage.Client = (*Store)(nil)
