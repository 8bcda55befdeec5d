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
	"encoding/json"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/zhuchaokn/nebula/graph/ast"
	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/values"
)

// prepare runs the Query Preparer: it validates sentence, resolves every
// name against mgr, and produces a plan. No RPC is issued; every error
// returned here is synchronous and fatal, per the spec's preparation
// semantics.
func prepare(sentence *ast.GoSentence, space values.SpaceID, mgr schema.Manager, opts Options) (*plan, error) {
	p := &plan{space: space}

	if err := resolveStep(sentence.Step, p); err != nil {
		return nil, err
	}
	if err := resolveFrom(sentence.From, p); err != nil {
		return nil, err
	}
	if err := resolveOver(sentence.Over, space, mgr, p); err != nil {
		return nil, err
	}
	if err := resolveWhere(sentence.Where, opts, p); err != nil {
		return nil, err
	}
	if err := resolveYield(sentence.Yield, p); err != nil {
		return nil, err
	}
	if err := resolveNeededProps(p, space, mgr); err != nil {
		return nil, err
	}
	resolveDistinct(sentence.Yield, p)

	return p, nil
}

func resolveStep(clause ast.StepClause, p *plan) error {
	if clause.Upto {
		return newErr(Unsupported, "UPTO step variant is not supported")
	}
	if clause.Steps < 1 {
		return newErr(SyntaxError, "step count must be >= 1, got %d", clause.Steps)
	}
	p.steps = clause.Steps
	p.needBackTrack = clause.Steps > 1
	return nil
}

func resolveFrom(clause ast.FromClause, p *plan) error {
	p.from = clause
	switch clause.Mode {
	case ast.FromInstant:
		ids, err := evalInstantIDs(clause.InstantIDs)
		if err != nil {
			return err
		}
		p.instantStarts = ids
	case ast.FromPipe:
		if clause.PipeColumn == "*" {
			return newErr(SyntaxError, "FROM $-.* is not a valid column reference")
		}
	case ast.FromVariable:
		if clause.VarColumn == "*" {
			return newErr(SyntaxError, "FROM $var.* is not a valid column reference")
		}
	}
	return nil
}

// evalInstantIDs evaluates each FROM INSTANT id expression: a literal
// integer/vid, or a near(...) call whose evaluated string result is split on
// commas (see ast.FunctionCallExpr).
func evalInstantIDs(exprs []ast.Expr) ([]values.VertexID, error) {
	var ids []values.VertexID
	for _, e := range exprs {
		switch v := e.(type) {
		case ast.LiteralExpr:
			id, err := literalToVertexID(v.Value)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		case ast.FunctionCallExpr:
			if v.Name != "near" {
				return nil, newErr(NameError, "unsupported function %q in FROM clause", v.Name)
			}
			more, err := evalNear(v.Args)
			if err != nil {
				return nil, err
			}
			ids = append(ids, more...)
		default:
			return nil, newErr(TypeError, "FROM id expression must be a literal or near(...) call")
		}
	}
	return ids, nil
}

func literalToVertexID(v values.PropertyValue) (values.VertexID, error) {
	switch v.Type() {
	case values.TypeInt:
		return values.VertexID(v.AsInt()), nil
	case values.TypeVID:
		return v.AsVertexID(), nil
	default:
		return 0, newErr(TypeError, "FROM id literal must be an integer, got %s", v.Type())
	}
}

func evalNear(args []ast.Expr) ([]values.VertexID, error) {
	var parts []string
	for _, a := range args {
		lit, ok := a.(ast.LiteralExpr)
		if !ok || lit.Value.Type() != values.TypeString {
			return nil, newErr(TypeError, "near(...) arguments must be string literals")
		}
		parts = append(parts, lit.Value.AsString())
	}
	var ids []values.VertexID
	for _, field := range strings.Split(strings.Join(parts, ","), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, newErr(TypeError, "near(...) produced a non-integer id %q", field)
		}
		ids = append(ids, values.VertexID(n))
	}
	return ids, nil
}

func resolveOver(clause ast.OverClause, space values.SpaceID, mgr schema.Manager, p *plan) error {
	p.reversely = clause.Reversely

	var names []string
	if clause.AllEdges {
		all, err := mgr.GetAllEdge(space)
		if err != nil {
			return wrapErr(NameError, err, "resolving OVER *")
		}
		names = all
	} else {
		for _, e := range clause.Edges {
			names = append(names, e.Name)
		}
	}

	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			return newErr(DuplicateAlias, "edge alias %q repeated in OVER clause", name)
		}
		seen[name] = true
		typ, err := mgr.ToEdgeType(space, name)
		if err != nil {
			return wrapErr(NameError, err, "resolving edge %q", name)
		}
		p.edges = append(p.edges, edgeRef{name: name, typ: typ.Abs()})
	}

	if len(p.edges) == 0 {
		return newErr(SyntaxError, "OVER clause resolved to no edge types")
	}
	return nil
}

func resolveWhere(clause *ast.WhereClause, opts Options, p *plan) error {
	if clause == nil {
		return nil
	}
	p.filter = clause.Filter

	if !opts.FilterPushdown {
		return nil
	}
	if p.reversely {
		log.Debug("filter push-down requested for a reverse traversal; falling back to local evaluation")
		return nil
	}
	// Push-down is only valid for the final step; stepengine attaches
	// pushDownFilter only when issuing the last hop, using this serialized
	// form computed once here.
	b, err := json.Marshal(exprDebugString(clause.Filter))
	if err != nil {
		return wrapErr(InternalError, err, "serializing push-down filter")
	}
	p.pushDownFilter = b
	return nil
}

func resolveYield(clause ast.YieldClause, p *plan) error {
	for _, col := range clause.Columns {
		if containsFunctionCall(col.Expr) {
			return newErr(SyntaxError, "aggregate functions are not supported without GROUP BY")
		}
	}

	if len(clause.Columns) == 0 && len(p.edges) > 0 && isOverAllEdgeEmptyYield(clause, p) {
		for _, e := range p.edges {
			p.yield = append(p.yield, yieldColumn{
				expr:  ast.EdgeDstIdExpr{EdgeName: e.name},
				alias: e.name + "._dst",
			})
		}
		return nil
	}

	for i, col := range clause.Columns {
		alias := col.Alias
		if alias == "" {
			alias = strconv.Itoa(i)
		}
		p.yield = append(p.yield, yieldColumn{expr: col.Expr, alias: alias})
	}
	return nil
}

// isOverAllEdgeEmptyYield reports whether the synthetic destination-id
// projection applies. It checks only that the YIELD list is empty: it
// applies to an explicit OVER edge list as well as to OVER *, and on the
// reverse branch as well as forward (see SPEC_FULL.md's supplemented
// features), so this has no reversely guard.
func isOverAllEdgeEmptyYield(clause ast.YieldClause, p *plan) bool {
	return len(clause.Columns) == 0
}

func containsFunctionCall(e ast.Expr) bool {
	switch v := e.(type) {
	case ast.FunctionCallExpr:
		return true
	case ast.RelationalExpr:
		return containsFunctionCall(v.Left) || containsFunctionCall(v.Right)
	case ast.LogicalExpr:
		if v.Op == ast.OpNot {
			return containsFunctionCall(v.Left)
		}
		return containsFunctionCall(v.Left) || containsFunctionCall(v.Right)
	case ast.TypeCastingExpr:
		return containsFunctionCall(v.Operand)
	default:
		return false
	}
}

func resolveNeededProps(p *plan, space values.SpaceID, mgr schema.Manager) error {
	seenSrc := map[[2]string]bool{}
	seenDst := map[[2]string]bool{}
	seenAlias := map[[2]string]bool{}

	addSrc := func(tag, propName string) error {
		key := [2]string{tag, propName}
		if seenSrc[key] {
			return nil
		}
		seenSrc[key] = true
		id, err := mgr.ToTagID(space, tag)
		if err != nil {
			return wrapErr(NameError, err, "resolving source tag %q", tag)
		}
		p.srcTagProps = append(p.srcTagProps, storage.PropDef{Owner: storage.OwnerSource, Tag: id, Name: propName})
		return nil
	}
	addDst := func(tag, propName string) error {
		key := [2]string{tag, propName}
		if seenDst[key] {
			return nil
		}
		seenDst[key] = true
		id, err := mgr.ToTagID(space, tag)
		if err != nil {
			return wrapErr(NameError, err, "resolving destination tag %q", tag)
		}
		p.dstTagProps = append(p.dstTagProps, storage.PropDef{Owner: storage.OwnerDest, Tag: id, Name: propName})
		return nil
	}
	addAlias := func(edgeName, propName string) error {
		e, ok := p.edgeByName(edgeName)
		if !ok {
			return newErr(NameError, "edge alias %q not found in OVER clause", edgeName)
		}
		key := [2]string{edgeName, propName}
		if seenAlias[key] {
			return nil
		}
		seenAlias[key] = true
		p.aliasProps = append(p.aliasProps, storage.PropDef{Owner: storage.OwnerEdge, EdgeType: e.typ, Name: propName})
		return nil
	}

	var walk func(e ast.Expr) error
	walk = func(e ast.Expr) error {
		switch v := e.(type) {
		case ast.SrcPropExpr:
			return addSrc(v.Tag, v.Prop)
		case ast.DstPropExpr:
			return addDst(v.Tag, v.Prop)
		case ast.AliasPropExpr:
			return addAlias(v.EdgeName, v.Prop)
		case ast.InputPropExpr:
			if p.from.Mode != ast.FromPipe {
				return newErr(NameError, "$-.%s referenced but FROM is not the pipeline input", v.Prop)
			}
			p.hasInputProp = true
		case ast.VariablePropExpr:
			if p.from.Mode != ast.FromVariable || p.from.VarName != v.Var {
				return newErr(NameError, "$%s.%s referenced but FROM does not bind variable %q", v.Var, v.Prop, v.Var)
			}
			p.hasVariableProp = true
		case ast.RelationalExpr:
			if err := walk(v.Left); err != nil {
				return err
			}
			return walk(v.Right)
		case ast.LogicalExpr:
			if err := walk(v.Left); err != nil {
				return err
			}
			if v.Op == ast.OpNot {
				return nil
			}
			return walk(v.Right)
		case ast.TypeCastingExpr:
			return walk(v.Operand)
		case ast.FunctionCallExpr:
			for _, a := range v.Args {
				if err := walk(a); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if p.filter != nil {
		if err := walk(p.filter); err != nil {
			return err
		}
	}
	for _, y := range p.yield {
		if err := walk(y.expr); err != nil {
			return err
		}
	}
	return nil
}

func resolveDistinct(clause ast.YieldClause, p *plan) {
	p.distinct = clause.Distinct
	hasSrcOrEdge := len(p.srcTagProps) > 0 || len(p.aliasProps) > 0
	hasDst := len(p.dstTagProps) > 0
	p.distinctPushDown = !(hasSrcOrEdge && hasDst)
}

// exprDebugString renders e as a compact, human-readable string for the
// opaque push-down filter payload. The storage tier is expected to treat
// this as an opaque blob; no implementation here parses it back.
func exprDebugString(e ast.Expr) string {
	switch v := e.(type) {
	case ast.RelationalExpr:
		return "(" + exprDebugString(v.Left) + " " + string(v.Op) + " " + exprDebugString(v.Right) + ")"
	case ast.LogicalExpr:
		if v.Op == ast.OpNot {
			return "NOT " + exprDebugString(v.Left)
		}
		return "(" + exprDebugString(v.Left) + " " + string(v.Op) + " " + exprDebugString(v.Right) + ")"
	case ast.AliasPropExpr:
		return v.EdgeName + "." + v.Prop
	case ast.SrcPropExpr:
		return "$^." + v.Tag + "." + v.Prop
	case ast.DstPropExpr:
		return "$$." + v.Tag + "." + v.Prop
	case ast.LiteralExpr:
		return v.Value.String()
	default:
		return "<expr>"
	}
}
