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

// Options carries the two runtime flags spec'd for this executor.
type Options struct {
	// FilterPushdown enables attaching a forward-final-step WHERE predicate
	// to the getNeighbors call; the materializer still evaluates the WHERE
	// predicate locally on every row. Default true.
	FilterPushdown bool
	// TraceGo enables per-host latency/row-count logging at each step.
	// Default false.
	TraceGo bool
}

// DefaultOptions returns the spec'd defaults: push-down on, tracing off.
func DefaultOptions() Options {
	return Options{FilterPushdown: true, TraceGo: false}
}
