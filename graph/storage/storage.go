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

// Package storage defines the interface and wire shapes of the storage
// tier the executor consumes: getNeighbors, getVertexProps and getEdgeProps,
// each returning a partial-success response that may reflect fewer than all
// shards having answered successfully.
package storage

import (
	"context"

	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/values"
)

// Special property names with storage-tier meaning, independent of any
// schema. These may be requested alongside ordinary schema-declared
// properties.
const (
	PropDst  = "_dst"
	PropSrc  = "_src"
	PropRank = "_rank"
	PropType = "_type"
)

// PropOwner says which part of a triple a requested/returned property comes
// from.
type PropOwner uint8

const (
	OwnerSource PropOwner = iota // the traversal's current source vertex
	OwnerDest                    // the traversal's destination vertex
	OwnerEdge                    // the edge itself
)

// PropDef identifies one property to fetch. For OwnerSource/OwnerDest, Tag
// selects which vertex tag it belongs to; for OwnerEdge, EdgeType selects
// which edge schema it belongs to.
type PropDef struct {
	Owner    PropOwner
	Name     string
	Tag      values.TagID
	EdgeType values.EdgeType
}

// TagData is one tag's encoded property row attached to a vertex.
type TagData struct {
	Tag  values.TagID
	Data []byte
}

// Edge is a single edge instance returned alongside its source vertex,
// carrying whichever properties were requested (possibly none beyond _dst).
type Edge struct {
	Dst   values.VertexID
	Rank  values.Rank
	Props []byte
}

// EdgeData groups all edges of one type hanging off a given source vertex.
type EdgeData struct {
	Type  values.EdgeType
	Edges []Edge
}

// VertexData is everything returned for one source vertex: its requested tag
// properties, and its requested edges grouped by type.
type VertexData struct {
	VertexID values.VertexID
	TagData  []TagData
	EdgeData []EdgeData
}

// QueryResponse is the payload of one shard's reply to getNeighbors or
// getVertexProps.
type QueryResponse struct {
	Vertices    []VertexData
	VertexSchema map[values.TagID]*schema.Descriptor
	EdgeSchema   map[values.EdgeType]*schema.Descriptor
	TotalEdges   int64
}

// EdgeRow is one decoded edge returned by getEdgeProps, keyed the same way
// it was requested.
type EdgeRow struct {
	Key  values.EdgeKey
	Data []byte
}

// EdgePropResponse is the payload of one shard's reply to getEdgeProps.
type EdgePropResponse struct {
	Type   values.EdgeType
	Schema *schema.Descriptor
	Rows   []EdgeRow
}

// PartFailure records one shard partition's failure within an otherwise
// partially-successful response.
type PartFailure struct {
	Part int
	Err  error
}

// HostLatency records, for trace logging, how long one host took to answer
// and how many rows it returned.
type HostLatency struct {
	Host       string
	LatencyUs  int64
	TotalUs    int64
	RowCount   int
}

// PartialResponse wraps the gathered results of a fanned-out call across
// however many shards own the requested keyspace. A completeness of 100
// means every shard answered successfully; 0 means every shard failed.
// Values in between mean some shards failed and their data is simply
// missing from Responses.
type PartialResponse struct {
	responses   []QueryResponse
	edgeResps   []EdgePropResponse
	completeness int
	failedParts []PartFailure
	hostLatency []HostLatency
}

// NewPartialResponse builds a PartialResponse for a getNeighbors/getVertexProps call.
func NewPartialResponse(responses []QueryResponse, completeness int, failed []PartFailure, latency []HostLatency) *PartialResponse {
	return &PartialResponse{responses: responses, completeness: completeness, failedParts: failed, hostLatency: latency}
}

// NewEdgePropPartialResponse builds a PartialResponse for a getEdgeProps call.
func NewEdgePropPartialResponse(responses []EdgePropResponse, completeness int, failed []PartFailure) *PartialResponse {
	return &PartialResponse{edgeResps: responses, completeness: completeness, failedParts: failed}
}

// Completeness returns the percentage, in [0, 100], of shards that answered
// successfully.
func (r *PartialResponse) Completeness() int { return r.completeness }

// FailedParts returns the shard partitions that failed, if any.
func (r *PartialResponse) FailedParts() []PartFailure { return r.failedParts }

// HostLatency returns per-host timing for the shards that answered. The
// executor logs it only when trace_go is set.
func (r *PartialResponse) HostLatency() []HostLatency { return r.hostLatency }

// Responses returns the successfully-gathered getNeighbors/getVertexProps
// payloads, one per shard that answered.
func (r *PartialResponse) Responses() []QueryResponse { return r.responses }

// EdgePropResponses returns the successfully-gathered getEdgeProps payloads.
func (r *PartialResponse) EdgePropResponses() []EdgePropResponse { return r.edgeResps }

// Client is the storage tier's RPC surface, as consumed by the executor.
// Implementations fan out to whichever shards own the requested keys and
// gather the results into a single PartialResponse; see storage/fanout for
// the shared fan-out/gather machinery and storage/grpcstore and
// storage/memstore for two concrete implementations.
type Client interface {
	// GetNeighbors fetches, for each of srcIDs, the requested props of each
	// matching edge (and, at callers' discretion, the source vertex's own
	// tag props). edgeTypes selects which edge types to walk; a negative
	// type means walk it in reverse. pushDownFilter, when non-nil, is an
	// opaque serialized predicate the storage tier may apply server-side.
	GetNeighbors(ctx context.Context, space values.SpaceID, srcIDs []values.VertexID,
		edgeTypes []values.EdgeType, pushDownFilter []byte, props []PropDef) (*PartialResponse, error)

	// GetVertexProps fetches the requested tag properties for each of ids.
	GetVertexProps(ctx context.Context, space values.SpaceID, ids []values.VertexID,
		props []PropDef) (*PartialResponse, error)

	// GetEdgeProps fetches the requested edge properties for each of keys.
	// Used only during reverse-traversal enrichment, to recover properties
	// that aren't duplicated onto the reverse-indexed edge.
	GetEdgeProps(ctx context.Context, space values.SpaceID, keys []values.EdgeKey,
		props []PropDef) (*PartialResponse, error)
}
