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
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/values"
)

// yieldColumn is a resolved projection: the expression to evaluate and the
// name to report it under.
type yieldColumn struct {
	expr  ast.Expr
	alias string
}

// edgeRef is one resolved edge in the OVER clause: its logical (positive)
// type and the name queries address it by (`edgeName.prop`, `edgeName._dst`).
type edgeRef struct {
	name string
	typ  values.EdgeType // positive, logical; direction lives in plan.reversely
}

// plan is everything the Query Preparer produces from a GoSentence: names
// resolved to ids, properties classified by source, and the push-down
// decisions. Nothing here issues an RPC; plan is pure preparation output.
type plan struct {
	space values.SpaceID

	steps          int
	needBackTrack  bool // steps > 1

	from ast.FromClause
	instantStarts []values.VertexID // evaluated FromInstant ids, if Mode == FromInstant

	edges     []edgeRef
	reversely bool

	filter         ast.Expr // nil if no WHERE
	pushDownFilter []byte   // non-nil iff WHERE present, forward, and filter_pushdown enabled; sent on the final step only

	yield    []yieldColumn
	distinct bool

	srcTagProps []storage.PropDef
	dstTagProps []storage.PropDef
	aliasProps  []storage.PropDef

	hasInputProp    bool
	hasVariableProp bool

	distinctPushDown bool
}

// edgeByName finds the resolved edge matching name, if any.
func (p *plan) edgeByName(name string) (edgeRef, bool) {
	for _, e := range p.edges {
		if e.name == name {
			return e, true
		}
	}
	return edgeRef{}, false
}
