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

// Package fanout invokes an RPC across however many shards own a requested
// keyspace and gathers the results, tolerating individual shard failures
// rather than aborting the whole call: a graph traversal step is expected to
// make progress on the data that's reachable rather than fail outright
// because one partition is momentarily down.
package fanout

import (
	"context"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// A Shard is one partition of the keyspace being queried, addressed by the
// caller's own partitioning scheme (the executor's storage clients key
// shards by vertex id hash, but fanout doesn't need to know that).
type Shard interface {
	// Host identifies which physical host serves this shard, for trace
	// logging.
	Host() string
}

// RPC invokes a single shard's call for the items assigned to it (identified
// by their indices into the original request slice, via offsets).
type RPC func(ctx context.Context, shard Shard, offsets []int) (Result, error)

// Result is a single shard's reply. The caller casts it back to whatever
// concrete type its RPC produces.
type Result interface{}

// Reply is one gathered shard result, paired with the offsets it answers and
// how long it took.
type Reply struct {
	Shard    Shard
	Offsets  []int
	Result   Result
	Duration time.Duration
}

// Failure records one shard's RPC failing.
type Failure struct {
	Shard Shard
	Err   error
}

// Outcome is everything Call gathered: the replies that succeeded, the
// shards that failed, and the completeness percentage (100 * succeeded /
// total shards attempted, rounded down).
type Outcome struct {
	Replies     []Reply
	Failures    []Failure
	Completeness int
}

// Call partitions offsets across shards by way of assign, issues the RPC
// against each shard that ends up with at least one offset, and waits for
// all of them. A shard RPC failing does not stop the others: Call always
// waits for every shard and reports completeness rather than returning early.
//
// assign maps each index of points (an opaque "one entry per requested item"
// count) to the Shard that owns it.
func Call(ctx context.Context, numPoints int, assign func(point int) Shard, rpc RPC) *Outcome {
	byShard := map[Shard][]int{}
	var order []Shard
	for i := 0; i < numPoints; i++ {
		s := assign(i)
		if _, ok := byShard[s]; !ok {
			order = append(order, s)
		}
		byShard[s] = append(byShard[s], i)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	out := &Outcome{}
	wg.Add(len(order))
	for _, s := range order {
		s, offsets := s, byShard[s]
		go func() {
			defer wg.Done()
			start := time.Now()
			result, err := rpc(ctx, s, offsets)
			elapsed := time.Since(start)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithError(err).WithField("host", s.Host()).Warn("shard RPC failed")
				out.Failures = append(out.Failures, Failure{Shard: s, Err: err})
				return
			}
			out.Replies = append(out.Replies, Reply{Shard: s, Offsets: offsets, Result: result, Duration: elapsed})
		}()
	}
	wg.Wait()

	sort.Slice(out.Replies, func(i, j int) bool { return out.Replies[i].Shard.Host() < out.Replies[j].Shard.Host() })
	sort.Slice(out.Failures, func(i, j int) bool { return out.Failures[i].Shard.Host() < out.Failures[j].Shard.Host() })

	total := len(order)
	if total == 0 {
		out.Completeness = 100
		return out
	}
	out.Completeness = 100 * len(out.Replies) / total
	return out
}
