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

// Package metrics holds the executor's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	metricsutil "github.com/zhuchaokn/nebula/util/metrics"
)

var (
	// StepsIssued counts the total number of GO hops issued across every
	// prepared plan, regardless of how many actually ran before a
	// short-circuit.
	StepsIssued prometheus.Counter

	// RowsEmitted counts rows handed to a sink after filtering, yielding,
	// and DISTINCT.
	RowsEmitted prometheus.Counter

	// ErrorsByKind counts failed executions, labeled by ErrKind.
	ErrorsByKind *prometheus.CounterVec

	// RPCCompleteness is a summary registered for the Completeness()
	// percentage of storage RPC responses. The executor's stages do not
	// observe into it; partial shard failures are logged per response.
	RPCCompleteness prometheus.Summary
)

func init() {
	mr := metricsutil.Registry{R: prometheus.DefaultRegisterer}
	StepsIssued = mr.NewCounter(prometheus.CounterOpts{
		Namespace: "graphwalk",
		Subsystem: "exec",
		Name:      "steps_issued_total",
		Help:      `The number of GO hops in prepared plans, whether or not every hop ran.`,
	})
	RowsEmitted = mr.NewCounter(prometheus.CounterOpts{
		Namespace: "graphwalk",
		Subsystem: "exec",
		Name:      "rows_emitted_total",
		Help:      `The number of result rows produced after filter, yield, and DISTINCT.`,
	})
	ErrorsByKind = mr.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphwalk",
		Subsystem: "exec",
		Name:      "errors_total",
		Help:      `Query failures, labeled by error kind.`,
	}, []string{"kind"})
	RPCCompleteness = mr.NewSummary(prometheus.SummaryOpts{
		Namespace:  "graphwalk",
		Subsystem:  "exec",
		Name:       "rpc_completeness_percent",
		Help:       `The fraction of shards that answered a storage RPC, as a percentage.`,
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})
}
