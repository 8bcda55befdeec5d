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

// Package exec is the multi-step graph traversal executor: it drives a
// GO ... FROM ... OVER ... YIELD query tree (package ast) against a
// storage.Client and a schema.Manager, producing either a terminal
// ExecutionResponse or a pipeline ast.InterimResult.
package exec

import (
	"context"

	"github.com/google/uuid"
	opentracing "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"

	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/metrics"
	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/values"
)

// Engine runs GO sentences against a fixed storage client and schema
// manager. One Engine can run many queries concurrently; it holds no
// per-query state itself.
type Engine struct {
	client storage.Client
	schema schema.Manager
}

// New builds an Engine backed by client and mgr.
func New(client storage.Client, mgr schema.Manager) *Engine {
	return &Engine{client: client, schema: mgr}
}

// Result is what Execute returns: one of Response (when this query is
// terminal) or Pipeline (when its output feeds a subsequent stage) is set,
// matching the spec's two output sinks.
type Result struct {
	Response *ExecutionResponse
	Pipeline ast.InterimResult
}

// Execute runs sentence against space. input is the previous pipeline
// stage's result (nil if this query isn't piped), vars resolves named
// variables referenced by a VARIABLE-mode FROM clause, and asPipeline
// selects which sink produces the result.
func (e *Engine) Execute(ctx context.Context, sentence *ast.GoSentence, space values.SpaceID,
	input ast.InterimResult, vars ast.VariableHolder, opts Options, asPipeline bool) (*Result, error) {

	queryID := uuid.NewString()
	log := log.WithField("query_id", queryID)

	span, ctx := opentracing.StartSpanFromContext(ctx, "exec.Execute")
	span.SetTag("query_id", queryID)
	defer span.Finish()

	prepSpan, _ := opentracing.StartSpanFromContext(ctx, "prepare")
	p, err := prepare(sentence, space, e.schema, opts)
	prepSpan.Finish()
	if err != nil {
		metrics.ErrorsByKind.WithLabelValues(string(errKind(err))).Inc()
		log.WithError(err).Warn("query preparation failed")
		return nil, err
	}
	metrics.StepsIssued.Add(float64(p.steps))

	startSpan, _ := opentracing.StartSpanFromContext(ctx, "resolve-starts")
	ss, err := resolveStarts(p, input, vars)
	startSpan.Finish()
	if err != nil {
		metrics.ErrorsByKind.WithLabelValues(string(errKind(err))).Inc()
		log.WithError(err).Warn("start-set resolution failed")
		return nil, err
	}
	if len(ss.ids) == 0 {
		log.Debug("empty start set, short-circuiting with zero rows")
		return e.emptyResult(p, asPipeline), nil
	}

	stepSpan, stepCtx := opentracing.StartSpanFromContext(ctx, "step")
	sr, err := runSteps(stepCtx, e.client, p, ss, opts)
	stepSpan.Finish()
	if err != nil {
		metrics.ErrorsByKind.WithLabelValues(string(errKind(err))).Inc()
		log.WithError(err).Warn("step engine failed")
		return nil, err
	}
	if sr.empty {
		return e.emptyResult(p, asPipeline), nil
	}

	enrichSpan, enrichCtx := opentracing.StartSpanFromContext(ctx, "enrich")
	er, err := enrich(enrichCtx, e.client, e.schema, p, sr)
	enrichSpan.Finish()
	if err != nil {
		metrics.ErrorsByKind.WithLabelValues(string(errKind(err))).Inc()
		log.WithError(err).Warn("enrichment failed")
		return nil, err
	}

	matSpan, _ := opentracing.StartSpanFromContext(ctx, "materialize")
	inputType := buildInputTyper(ss.index)
	mr, err := materialize(p, er, e.schema, space, sr.bt, ss.index)
	matSpan.Finish()
	if err != nil {
		metrics.ErrorsByKind.WithLabelValues(string(errKind(err))).Inc()
		log.WithError(err).Warn("materialization failed")
		return nil, err
	}
	metrics.RowsEmitted.Add(float64(len(mr.rows)))

	if asPipeline {
		return &Result{Pipeline: toInterimResult(mr)}, nil
	}
	return &Result{Response: toExecutionResponse(p, mr, e.schema, space, inputType)}, nil
}

func (e *Engine) emptyResult(p *plan, asPipeline bool) *Result {
	columns := make([]string, len(p.yield))
	for i, y := range p.yield {
		columns[i] = y.alias
	}
	if asPipeline {
		return &Result{Pipeline: &ast.TableResult{Columns: columns}}
	}
	types := make([]values.SupportedType, len(p.yield))
	for i, y := range p.yield {
		types[i] = calculateExprType(y.expr, p, e.schema, p.space, nil)
	}
	return &Result{Response: &ExecutionResponse{ColumnNames: columns, ColumnTypes: types}}
}

func errKind(err error) ErrKind {
	if qe, ok := err.(*QueryError); ok {
		return qe.Kind
	}
	return InternalError
}

// buildInputTyper derives an inputColumnTyper from the already-built
// pipeline index, reading the runtime type of any one row's value for a
// given column (pipeline/variable rows carry no separate static schema).
func buildInputTyper(idx *pipelineIndex) inputColumnTyper {
	if idx == nil {
		return nil
	}
	return func(prop string) values.SupportedType {
		pos, ok := idx.colPos[prop]
		if !ok {
			return values.TypeUnknown
		}
		for _, row := range idx.byVID {
			return row[pos].Type()
		}
		return values.TypeUnknown
	}
}
