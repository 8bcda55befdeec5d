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

package fanout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testShard struct{ host string }

func (s *testShard) Host() string { return s.host }

func TestCall_GathersAllShards(t *testing.T) {
	a, b := &testShard{"host-a"}, &testShard{"host-b"}
	assign := func(i int) Shard {
		if i%2 == 0 {
			return a
		}
		return b
	}
	rpc := func(_ context.Context, shard Shard, offsets []int) (Result, error) {
		return len(offsets), nil
	}

	out := Call(context.Background(), 6, assign, rpc)
	require.Len(t, out.Replies, 2)
	assert.Empty(t, out.Failures)
	assert.Equal(t, 100, out.Completeness)
	total := 0
	for _, r := range out.Replies {
		total += r.Result.(int)
	}
	assert.Equal(t, 6, total)
}

func TestCall_PartialFailureDoesNotAbort(t *testing.T) {
	a, b := &testShard{"host-a"}, &testShard{"host-b"}
	assign := func(i int) Shard {
		if i == 0 {
			return a
		}
		return b
	}
	rpc := func(_ context.Context, shard Shard, offsets []int) (Result, error) {
		if shard.(*testShard).host == "host-a" {
			return nil, errors.New("shard down")
		}
		return len(offsets), nil
	}

	out := Call(context.Background(), 3, assign, rpc)
	require.Len(t, out.Replies, 1)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "host-b", out.Replies[0].Shard.Host())
	assert.Equal(t, "host-a", out.Failures[0].Shard.Host())
	assert.Equal(t, 50, out.Completeness)
}

func TestCall_NoShardsIsFullCompleteness(t *testing.T) {
	out := Call(context.Background(), 0, func(int) Shard { return &testShard{"unused"} },
		func(context.Context, Shard, []int) (Result, error) { return nil, nil })
	assert.Equal(t, 100, out.Completeness)
	assert.Empty(t, out.Replies)
}
