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
	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/values"
)

// backTracker maps a child vertex id (seen at step k > 1) back to the root
// vertex id it descended from at step 0. It's only populated when the plan
// has more than one step; at a single step, every "root" is its own id.
type backTracker struct {
	toRoot map[values.VertexID]values.VertexID
}

func newBackTracker() *backTracker {
	return &backTracker{toRoot: map[values.VertexID]values.VertexID{}}
}

// root returns the original root for id: either a previously recorded
// ancestor, or id itself if it's not tracked (meaning it is itself a root,
// i.e. a step-0 start).
func (b *backTracker) root(id values.VertexID) values.VertexID {
	if r, ok := b.toRoot[id]; ok {
		return r
	}
	return id
}

// add records that child descended (immediately or transitively) from the
// same root as parent.
func (b *backTracker) add(child, parent values.VertexID) {
	b.toRoot[child] = b.root(parent)
}

// pipelineIndex is the `Index` accumulator: a column-addressable view of the
// inbound pipeline rows, keyed by the root vertex id that each row's
// designated id-column holds.
type pipelineIndex struct {
	columns []string
	colPos  map[string]int
	byVID   map[values.VertexID]ast.Row
}

func buildIndex(result ast.InterimResult, idColumn string) (*pipelineIndex, error) {
	idx := &pipelineIndex{
		columns: result.ColumnNames(),
		colPos:  map[string]int{},
		byVID:   map[values.VertexID]ast.Row{},
	}
	for i, name := range idx.columns {
		idx.colPos[name] = i
	}
	pos, ok := idx.colPos[idColumn]
	if !ok {
		return nil, newErr(NameError, "pipeline input has no column %q", idColumn)
	}
	for _, row := range result.Rows() {
		vid, err := literalToVertexID(row[pos])
		if err != nil {
			return nil, err
		}
		idx.byVID[vid] = row
	}
	return idx, nil
}

// getColumnWithVID recovers column `prop` of the inbound row keyed by
// vertex id `root`. Missing rows or columns return ok == false; callers
// evaluating $-.x / $var.x treat that as an EXPR_ERROR.
func (idx *pipelineIndex) getColumnWithVID(root values.VertexID, prop string) (values.PropertyValue, bool) {
	row, ok := idx.byVID[root]
	if !ok {
		return values.PropertyValue{}, false
	}
	pos, ok := idx.colPos[prop]
	if !ok {
		return values.PropertyValue{}, false
	}
	return row[pos], true
}

// startSet is everything the Start-Set Resolver hands to the Step Engine.
type startSet struct {
	ids   []values.VertexID
	index *pipelineIndex // nil when FROM is INSTANT
	bt    *backTracker
}

// resolveStarts materializes the initial vertex id set from the plan's FROM
// clause: literal ids, a named variable's column, or the pipeline input's
// column. Empty input is not an error — callers detect startSet.ids being
// empty and short-circuit to an empty result.
func resolveStarts(p *plan, input ast.InterimResult, vars ast.VariableHolder) (*startSet, error) {
	ss := &startSet{}
	if p.needBackTrack {
		ss.bt = newBackTracker()
	}

	switch p.from.Mode {
	case ast.FromInstant:
		ss.ids = p.instantStarts

	case ast.FromPipe:
		if input == nil {
			return ss, nil // no pipeline input bound at all: treat as empty
		}
		idx, err := buildIndex(input, p.from.PipeColumn)
		if err != nil {
			return nil, err
		}
		ss.index = idx
		for vid := range idx.byVID {
			ss.ids = append(ss.ids, vid)
		}

	case ast.FromVariable:
		result, ok := vars.Get(p.from.VarName)
		if !ok {
			return nil, newErr(NameError, "undefined variable $%s", p.from.VarName)
		}
		idx, err := buildIndex(result, p.from.VarColumn)
		if err != nil {
			return nil, err
		}
		ss.index = idx
		for vid := range idx.byVID {
			ss.ids = append(ss.ids, vid)
		}
	}

	if p.distinct {
		ss.ids = dedupVertexIDs(ss.ids)
	}
	return ss, nil
}

func dedupVertexIDs(ids []values.VertexID) []values.VertexID {
	seen := map[values.VertexID]bool{}
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
