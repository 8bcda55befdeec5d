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
	"strings"

	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/values"
)

// materializedRows is the Row Materializer's output: the column names (in
// yield order) and every emitted row.
type materializedRows struct {
	columns []string
	rows    []ast.Row
}

// materialize iterates every (src, edge group, edge record) triple of the
// final-step response, evaluates the filter and yield expressions against
// it, and applies DISTINCT. This is the one place evalContext is built.
func materialize(p *plan, er *enriched, mgr schema.Manager, space values.SpaceID, bt *backTracker, index *pipelineIndex) (*materializedRows, error) {
	out := &materializedRows{columns: make([]string, len(p.yield))}
	for i, y := range p.yield {
		out.columns[i] = y.alias
	}

	seen := map[string]bool{}
	for _, resp := range er.responses {
		for _, vd := range resp.Vertices {
			for _, ed := range vd.EdgeData {
				for _, edge := range ed.Edges {
					ctx := &evalContext{
						p: p, mgr: mgr, space: space,
						vd: vd, edgeType: ed.Type.Abs(), edge: edge,
						vertices: er.vertices, edges: er.edges,
						bt: bt, index: index,
					}

					if p.filter != nil {
						keep, err := evalFilter(ctx, p.filter)
						if err != nil {
							return nil, err
						}
						if !keep {
							continue
						}
					}

					row := make(ast.Row, len(p.yield))
					for i, y := range p.yield {
						v, err := ctx.eval(y.expr)
						if err != nil {
							return nil, wrapErr(ExprError, err, "evaluating yield column %q", y.alias)
						}
						row[i] = v
					}

					if p.distinct {
						h := rowHash(row)
						if seen[h] {
							continue
						}
						seen[h] = true
					}
					out.rows = append(out.rows, row)
				}
			}
		}
	}
	return out, nil
}

func evalFilter(ctx *evalContext, filter ast.Expr) (bool, error) {
	v, err := ctx.eval(filter)
	if err != nil {
		return false, wrapErr(ExprError, err, "evaluating filter")
	}
	if v.Type() != values.TypeBool {
		return false, newErr(ExprError, "filter expression must evaluate to BOOL, got %s", v.Type())
	}
	return v.AsBool(), nil
}

// rowHash renders row as a comparison key for DISTINCT. It's a textual
// encoding rather than PropertyValue.Equal-based linear search, which would
// be quadratic in row count.
func rowHash(row ast.Row) string {
	var b strings.Builder
	for _, v := range row {
		b.WriteString(v.Type().String())
		b.WriteByte(':')
		b.WriteString(v.String())
		b.WriteByte('\x1f')
	}
	return b.String()
}
