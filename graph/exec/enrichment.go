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

	log "github.com/sirupsen/logrus"

	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/values"
	"github.com/zhuchaokn/nebula/util/parallel"
)

// vertexHolder is the `VertexHolder` accumulator: decoded tag property rows
// for every destination vertex fetched by the enrichment stage. A vertex
// absent from the underlying responses (never fetched, or dropped by a
// partial shard failure) transparently falls back to schema defaults.
type vertexHolder struct {
	mgr   schema.Manager
	space values.SpaceID
	rows  map[values.VertexID]map[values.TagID][]byte
	desc  map[values.TagID]*schema.Descriptor
}

func newVertexHolder(mgr schema.Manager, space values.SpaceID) *vertexHolder {
	return &vertexHolder{
		mgr: mgr, space: space,
		rows: map[values.VertexID]map[values.TagID][]byte{},
		desc: map[values.TagID]*schema.Descriptor{},
	}
}

func (vh *vertexHolder) add(resp storage.QueryResponse) {
	for tag, d := range resp.VertexSchema {
		if _, ok := vh.desc[tag]; !ok {
			vh.desc[tag] = d
		}
	}
	for _, vd := range resp.Vertices {
		if _, ok := vh.rows[vd.VertexID]; !ok {
			vh.rows[vd.VertexID] = map[values.TagID][]byte{}
		}
		for _, td := range vd.TagData {
			vh.rows[vd.VertexID][td.Tag] = td.Data
		}
	}
}

func (vh *vertexHolder) get(vid values.VertexID, tag values.TagID, prop string) values.PropertyValue {
	desc := vh.desc[tag]
	if desc == nil {
		desc = vh.mgr.GetTagSchema(vh.space, tag)
	}
	byTag, ok := vh.rows[vid]
	if !ok {
		if desc == nil {
			return values.PropertyValue{}
		}
		if def, ok := desc.Default(prop); ok {
			return def
		}
		return values.Zero(desc.FieldType(prop))
	}
	data, ok := byTag[tag]
	if !ok {
		if desc == nil {
			return values.PropertyValue{}
		}
		if def, ok := desc.Default(prop); ok {
			return def
		}
		return values.Zero(desc.FieldType(prop))
	}
	return decodeProp(data, desc, prop)
}

// edgeHolder is the `EdgeHolder` accumulator: edge properties recovered by
// the reverse-traversal's second RPC round, keyed by the reconstructed
// forward EdgeKey (see spec.md §4.4's swap rule).
type edgeHolder struct {
	mgr     schema.Manager
	space   values.SpaceID
	rows    map[values.EdgeKey][]byte
	desc    map[values.EdgeType]*schema.Descriptor
}

func newEdgeHolder(mgr schema.Manager, space values.SpaceID) *edgeHolder {
	return &edgeHolder{
		mgr: mgr, space: space,
		rows: map[values.EdgeKey][]byte{}, desc: map[values.EdgeType]*schema.Descriptor{},
	}
}

// metaDefault is the zero value for the `_src`/`_dst`/`_rank` meta
// properties, used whenever a reverse-fetched edge record is missing —
// these three names are never real schema fields, so the ordinary
// schema-default lookup would otherwise produce an untyped zero value
// instead of the VID(0)/Int(0) callers expect.
func metaDefault(prop string) (values.PropertyValue, bool) {
	switch prop {
	case storage.PropSrc, storage.PropDst:
		return values.VID(0), true
	case storage.PropRank:
		return values.Int(0), true
	default:
		return values.PropertyValue{}, false
	}
}

func (eh *edgeHolder) get(key values.EdgeKey, prop string) values.PropertyValue {
	desc := eh.desc[key.Type]
	if desc == nil {
		desc = eh.mgr.GetEdgeSchema(eh.space, key.Type)
	}
	data, ok := eh.rows[key]
	if !ok {
		if v, ok := metaDefault(prop); ok {
			return v
		}
		if desc == nil {
			return values.PropertyValue{}
		}
		if def, ok := desc.Default(prop); ok {
			return def
		}
		return values.Zero(desc.FieldType(prop))
	}
	return decodeProp(data, desc, prop)
}

// enriched bundles everything the Row Materializer reads beyond the raw
// final-step responses.
type enriched struct {
	responses []storage.QueryResponse
	vertices  *vertexHolder
	edges     *edgeHolder
}

// enrich runs the Enrichment Stage's branch matrix: it fetches destination
// vertex properties when yield/filter reference them, and for reverse
// traversal, recovers edge properties via a second RPC round before any
// vertex fetch (matching spec.md §4.4's ordering).
func enrich(ctx context.Context, client storage.Client, mgr schema.Manager, p *plan, sr *stepResult) (*enriched, error) {
	er := &enriched{responses: sr.finalResponses}

	dstTagNeeded := len(p.dstTagProps) > 0
	edgePropNeeded := p.reversely && len(p.aliasProps) > 0

	if edgePropNeeded {
		eh, err := fetchEdgeProps(ctx, client, mgr, p, sr.finalResponses)
		if err != nil {
			return nil, err
		}
		er.edges = eh
	} else {
		er.edges = newEdgeHolder(mgr, p.space)
	}

	if dstTagNeeded {
		vh, err := fetchVertexProps(ctx, client, mgr, p, sr.finalResponses)
		if err != nil {
			return nil, err
		}
		er.vertices = vh
	} else {
		er.vertices = newVertexHolder(mgr, p.space)
	}

	return er, nil
}

// fetchVertexProps issues getVertexProps for the union of terminal
// destination ids, populating a vertexHolder.
func fetchVertexProps(ctx context.Context, client storage.Client, mgr schema.Manager, p *plan, responses []storage.QueryResponse) (*vertexHolder, error) {
	seen := map[values.VertexID]bool{}
	var ids []values.VertexID
	for _, resp := range responses {
		for _, vd := range resp.Vertices {
			for _, ed := range vd.EdgeData {
				for _, e := range ed.Edges {
					if !seen[e.Dst] {
						seen[e.Dst] = true
						ids = append(ids, e.Dst)
					}
				}
			}
		}
	}

	vh := newVertexHolder(mgr, p.space)
	if len(ids) == 0 {
		return vh, nil
	}

	resp, err := client.GetVertexProps(ctx, p.space, ids, p.dstTagProps)
	if err != nil {
		return nil, wrapErr(RemoteError, err, "getVertexProps failed")
	}
	if resp.Completeness() == 0 {
		return nil, newErr(RemoteError, "getVertexProps: every shard failed")
	}
	if resp.Completeness() < 100 {
		for _, f := range resp.FailedParts() {
			log.WithField("part", f.Part).WithError(f.Err).Warn("partial getVertexProps failure, continuing with partial data")
		}
	}
	for _, r := range resp.Responses() {
		vh.add(r)
	}
	return vh, nil
}

// fetchEdgeProps reconstructs the forward EdgeKey for every reverse-traversed
// edge record, groups the keys by edge type, and issues one getEdgeProps RPC
// per group concurrently (parallel.InvokeN, since the number of distinct
// edge types walked is only known at run time).
func fetchEdgeProps(ctx context.Context, client storage.Client, mgr schema.Manager, p *plan, responses []storage.QueryResponse) (*edgeHolder, error) {
	keysByType := map[values.EdgeType][]values.EdgeKey{}
	for _, resp := range responses {
		for _, vd := range resp.Vertices {
			for _, ed := range vd.EdgeData {
				for _, e := range ed.Edges {
					typ := ed.Type.Abs()
					key := values.EdgeKey{Src: e.Dst, Dst: vd.VertexID, Type: typ, Rank: e.Rank}
					keysByType[typ] = append(keysByType[typ], key)
				}
			}
		}
	}

	types := make([]values.EdgeType, 0, len(keysByType))
	for t := range keysByType {
		types = append(types, t)
	}

	eh := newEdgeHolder(mgr, p.space)
	if len(types) == 0 {
		return eh, nil
	}

	results := make([]*storage.PartialResponse, len(types))
	err := parallel.InvokeN(ctx, len(types), func(ctx context.Context, i int) error {
		typ := types[i]
		props := propsForEdgeType(p.aliasProps, typ)
		resp, err := client.GetEdgeProps(ctx, p.space, keysByType[typ], props)
		if err != nil {
			return wrapErr(RemoteError, err, "getEdgeProps failed for edge type %d", typ)
		}
		if resp.Completeness() == 0 {
			return newErr(RemoteError, "getEdgeProps for edge type %d: every shard failed", typ)
		}
		results[i] = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, resp := range results {
		if resp.Completeness() < 100 {
			for _, f := range resp.FailedParts() {
				log.WithField("part", f.Part).WithError(f.Err).Warn("partial getEdgeProps failure, continuing with partial data")
			}
		}
		for _, epr := range resp.EdgePropResponses() {
			if _, ok := eh.desc[epr.Type]; !ok {
				eh.desc[epr.Type] = epr.Schema
			}
			for _, row := range epr.Rows {
				eh.rows[row.Key] = row.Data
			}
		}
	}
	return eh, nil
}

func propsForEdgeType(aliasProps []storage.PropDef, typ values.EdgeType) []storage.PropDef {
	var out []storage.PropDef
	for _, p := range aliasProps {
		if p.EdgeType == typ {
			out = append(out, p)
		}
	}
	return out
}
