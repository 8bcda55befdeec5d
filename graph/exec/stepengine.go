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

	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/values"
)

// stepResult is what the Step Engine hands to the Enrichment Stage: the raw
// per-shard responses of the final hop, and the backTracker accumulated
// along the way (nil if the plan is a single step).
type stepResult struct {
	finalResponses []storage.QueryResponse
	bt             *backTracker
	empty          bool // true if the frontier went empty before the final hop
}

// runSteps drives the N-hop loop. Ordering is strictly sequential: hop k+1
// is never issued until hop k's aggregated response has completed, matching
// the spec's back-pressure policy (no hop pipelining).
func runSteps(ctx context.Context, client storage.Client, p *plan, ss *startSet, opts Options) (*stepResult, error) {
	bt := ss.bt
	starts := ss.ids

	for k := 1; k <= p.steps; k++ {
		if len(starts) == 0 {
			return &stepResult{bt: bt, empty: true}, nil
		}

		edgeTypes := buildEdgeTypes(p)
		props := getStepOutProps(p, k)
		var pushDown []byte
		if k == p.steps && !p.reversely {
			pushDown = p.pushDownFilter
		}

		resp, err := client.GetNeighbors(ctx, p.space, starts, edgeTypes, pushDown, props)
		if err != nil {
			return nil, wrapErr(RemoteError, err, "getNeighbors failed at step %d", k)
		}
		if resp.Completeness() == 0 {
			return nil, newErr(RemoteError, "getNeighbors at step %d: every shard failed", k)
		}
		if resp.Completeness() < 100 {
			for _, f := range resp.FailedParts() {
				log.WithFields(log.Fields{"step": k, "part": f.Part}).WithError(f.Err).
					Warn("partial getNeighbors failure, continuing with partial data")
			}
		}
		if opts.TraceGo {
			for _, hl := range resp.HostLatency() {
				log.WithFields(log.Fields{
					"step": k, "host": hl.Host, "latency_us": hl.LatencyUs,
					"total_latency_us": hl.TotalUs, "vertex_count": hl.RowCount,
				}).Info("trace_go step")
			}
		}

		if k < p.steps {
			starts = collectNextFrontier(resp.Responses(), bt)
			continue
		}
		return &stepResult{finalResponses: resp.Responses(), bt: bt}, nil
	}

	// p.steps == 0 never happens (resolveStep rejects it), so this is
	// unreachable; kept only so the function has a terminating return.
	return &stepResult{bt: bt, empty: true}, nil
}

// buildEdgeTypes returns the edge types to request, sign-flipped for
// reverse traversal.
func buildEdgeTypes(p *plan) []values.EdgeType {
	out := make([]values.EdgeType, len(p.edges))
	for i, e := range p.edges {
		if p.reversely {
			out[i] = e.typ.Reverse()
		} else {
			out[i] = e.typ
		}
	}
	return out
}

// getStepOutProps builds the property request list for hop k, per the
// spec's non-final/final-forward/final-reverse branch matrix.
func getStepOutProps(p *plan, k int) []storage.PropDef {
	var props []storage.PropDef
	for _, e := range p.edges {
		props = append(props, storage.PropDef{Owner: storage.OwnerEdge, EdgeType: e.typ, Name: storage.PropDst})
	}
	if k < p.steps {
		return props
	}
	if p.reversely {
		for _, e := range p.edges {
			props = append(props, storage.PropDef{Owner: storage.OwnerEdge, EdgeType: e.typ, Name: storage.PropRank})
		}
		props = append(props, p.srcTagProps...)
		return props
	}
	props = append(props, p.srcTagProps...)
	props = append(props, p.aliasProps...)
	return props
}

// collectNextFrontier unions every destination id reached by the responses
// of a non-final hop, and records each one's root via bt (nil when the plan
// is a single step, in which case there is no next hop to call this for).
func collectNextFrontier(responses []storage.QueryResponse, bt *backTracker) []values.VertexID {
	seen := map[values.VertexID]bool{}
	var next []values.VertexID
	for _, resp := range responses {
		for _, vd := range resp.Vertices {
			for _, ed := range vd.EdgeData {
				for _, e := range ed.Edges {
					if bt != nil {
						bt.add(e.Dst, vd.VertexID)
					}
					if !seen[e.Dst] {
						seen[e.Dst] = true
						next = append(next, e.Dst)
					}
				}
			}
		}
	}
	return next
}
