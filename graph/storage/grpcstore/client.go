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

// Package grpcstore is a storage.Client backed by real gRPC connections to a
// fixed set of shard hosts. It addresses shards over plain unary gRPC calls
// (see codec.go) rather than protoc-generated stubs, since no protobuf
// toolchain runs as part of building this module; the wire shapes are the
// wire* structs in wire.go, which mirror graph/storage's types and are
// JSON-encoded.
package grpcstore

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/zhuchaokn/nebula/config"
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/storage/fanout"
	"github.com/zhuchaokn/nebula/graph/values"
	"github.com/zhuchaokn/nebula/util/grpcutil"
)

const (
	methodGetNeighbors   = "/graphwalk.Storage/GetNeighbors"
	methodGetVertexProps = "/graphwalk.Storage/GetVertexProps"
	methodGetEdgeProps   = "/graphwalk.Storage/GetEdgeProps"
)

// shardConn is one dialed shard, addressed by its configured host string.
type shardConn struct {
	host string
	part int
	conn *grpc.ClientConn
}

func (s *shardConn) Host() string { return s.host }

// Client is a storage.Client that fans out to a fixed set of shard hosts
// over gRPC, gathering partial-success responses the same way
// storage/memstore does for tests.
type Client struct {
	shards []*shardConn
}

// Dial connects to every endpoint in endpoints, one connection held open per
// shard for the Client's lifetime.
func Dial(ctx context.Context, endpoints []config.StorageEndpoint) (*Client, error) {
	c := &Client{}
	for _, ep := range endpoints {
		conn, err := grpcutil.Dial(ctx, ep.Host)
		if err != nil {
			return nil, fmt.Errorf("dialing shard %q (part %d): %w", ep.Host, ep.Part, err)
		}
		c.shards = append(c.shards, &shardConn{host: ep.Host, part: ep.Part, conn: conn})
	}
	return c, nil
}

// Close tears down every shard connection.
func (c *Client) Close() error {
	var first error
	for _, s := range c.shards {
		if err := s.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *Client) shardFor(id values.VertexID) *shardConn {
	h := int64(id)
	if h < 0 {
		h = -h
	}
	return c.shards[int(h)%len(c.shards)]
}

// GetNeighbors implements storage.Client.
func (c *Client) GetNeighbors(ctx context.Context, space values.SpaceID, srcIDs []values.VertexID,
	edgeTypes []values.EdgeType, pushDownFilter []byte, props []storage.PropDef) (*storage.PartialResponse, error) {

	wireTypes := make([]int32, len(edgeTypes))
	for i, t := range edgeTypes {
		wireTypes[i] = int32(t)
	}
	wireProps := toWireProps(props)

	outcome := fanout.Call(ctx, len(srcIDs),
		func(i int) fanout.Shard { return c.shardFor(srcIDs[i]) },
		func(ctx context.Context, shard fanout.Shard, offsets []int) (fanout.Result, error) {
			sc := shard.(*shardConn)
			ids := make([]int64, len(offsets))
			for i, off := range offsets {
				ids[i] = int64(srcIDs[off])
			}
			req := neighborsRequest{Space: int32(space), SrcIDs: ids, EdgeTypes: wireTypes, PushDownFilter: pushDownFilter, Props: wireProps}
			var reply neighborsReply
			if err := sc.conn.Invoke(ctx, methodGetNeighbors, req, &reply, grpc.CallContentSubtype(jsonCodecName)); err != nil {
				return nil, err
			}
			return reply.toStorage(), nil
		})

	return toPartialResponse(outcome), firstErrorIfAllFailed(outcome)
}

// GetVertexProps implements storage.Client.
func (c *Client) GetVertexProps(ctx context.Context, space values.SpaceID, ids []values.VertexID,
	props []storage.PropDef) (*storage.PartialResponse, error) {

	wireProps := toWireProps(props)

	outcome := fanout.Call(ctx, len(ids),
		func(i int) fanout.Shard { return c.shardFor(ids[i]) },
		func(ctx context.Context, shard fanout.Shard, offsets []int) (fanout.Result, error) {
			sc := shard.(*shardConn)
			wireIDs := make([]int64, len(offsets))
			for i, off := range offsets {
				wireIDs[i] = int64(ids[off])
			}
			req := vertexPropsRequest{Space: int32(space), IDs: wireIDs, Props: wireProps}
			var reply vertexPropsReply
			if err := sc.conn.Invoke(ctx, methodGetVertexProps, req, &reply, grpc.CallContentSubtype(jsonCodecName)); err != nil {
				return nil, err
			}
			return reply.toStorage(), nil
		})

	return toPartialResponse(outcome), firstErrorIfAllFailed(outcome)
}

// GetEdgeProps implements storage.Client.
func (c *Client) GetEdgeProps(ctx context.Context, space values.SpaceID, keys []values.EdgeKey,
	props []storage.PropDef) (*storage.PartialResponse, error) {

	wireProps := toWireProps(props)

	outcome := fanout.Call(ctx, len(keys),
		func(i int) fanout.Shard { return c.shardFor(keys[i].Src) },
		func(ctx context.Context, shard fanout.Shard, offsets []int) (fanout.Result, error) {
			sc := shard.(*shardConn)
			subset := make([]values.EdgeKey, len(offsets))
			for i, off := range offsets {
				subset[i] = keys[off]
			}
			req := edgePropsRequest{Space: int32(space), Keys: toWireKeys(subset), Props: wireProps}
			var reply edgePropsReply
			if err := sc.conn.Invoke(ctx, methodGetEdgeProps, req, &reply, grpc.CallContentSubtype(jsonCodecName)); err != nil {
				return nil, err
			}
			return reply.toStorage(), nil
		})

	var all []storage.EdgePropResponse
	for _, rep := range outcome.Replies {
		all = append(all, rep.Result.([]storage.EdgePropResponse)...)
	}
	return storage.NewEdgePropPartialResponse(all, outcome.Completeness, toPartFailures(outcome)), firstErrorIfAllFailed(outcome)
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

var _ storage.Client = (*Client)(nil)
