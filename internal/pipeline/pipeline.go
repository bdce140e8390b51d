// Package pipeline composes P1..P5 into the single entry point spec
// §1 describes: DependencyGraph orders the program's APIs, then each
// phase runs over that order in turn, threading one Session and one
// bootstrap global scope through all of them. Modeled on the
// teacher's internal/pipeline.Pipeline (a Config-driven struct owning
// one Compile-shaped method over the whole frontend-to-backend
// chain), generalized from AILANG's single-module Core/eval chain to
// Orbit's multi-API backend chain with recursive import compilation.
package pipeline

import (
	"github.com/llir/llvm/ir"

	"github.com/orbitlang/orbit-backend/internal/apimap"
	"github.com/orbitlang/orbit-backend/internal/ast"
	"github.com/orbitlang/orbit-backend/internal/codegen"
	"github.com/orbitlang/orbit-backend/internal/dependency"
	"github.com/orbitlang/orbit-backend/internal/extract"
	"github.com/orbitlang/orbit-backend/internal/resolve"
	"github.com/orbitlang/orbit-backend/internal/resolver"
	"github.com/orbitlang/orbit-backend/internal/scope"
	"github.com/orbitlang/orbit-backend/internal/session"
	"github.com/orbitlang/orbit-backend/internal/typecheck"
)

// Result is the output of one top-level compilation: the ordered
// APIs, their extracted API-Maps, and one LLVM module per API, keyed
// by canonical name (spec §4.1-§4.5).
type Result struct {
	OrderedAPIs []*ast.Expression
	APIMaps     []*apimap.APIMap
	Modules     map[string]*ir.Module
}

// Pipeline owns the process-wide bootstrap scope and the external
// SourceResolver collaborator, and runs P1..P5 over one Root at a
// time. Construct one per process; Compile is safe to call
// recursively (P2's InnerCompile hook below calls back into it) but
// not concurrently for overlapping Sessions (spec §5).
type Pipeline struct {
	find   resolver.SourceResolver
	global *scope.Scope
}

// New creates a Pipeline backed by find, the external file finder and
// source parser spec §1 places out of scope.
func New(find resolver.SourceResolver) *Pipeline {
	return &Pipeline{
		find:   find,
		global: scope.NewGlobal(),
	}
}

// Compile runs the full P1..P5 chain over root under sess.
func (p *Pipeline) Compile(sess *session.Session, root *ast.Expression) (*Result, error) {
	ordered, err := dependency.Order(sess, root)
	if err != nil {
		return nil, err
	}

	ex := extract.New(sess, p.find, p.innerCompile)
	maps, err := ex.Run(ordered)
	if err != nil {
		return nil, err
	}

	res := resolve.New(sess, p.global)
	if err := res.Run(ordered, maps); err != nil {
		return nil, err
	}

	checker := typecheck.New(newTraitIndex(root))
	if err := checker.Check(ordered); err != nil {
		return nil, err
	}

	gen := codegen.New(sess)
	modules, err := gen.Run(ordered, maps)
	if err != nil {
		return nil, err
	}

	return &Result{OrderedAPIs: ordered, APIMaps: maps, Modules: modules}, nil
}

// innerCompile implements extract.InnerCompile: a `with` import backed
// by a .orb source file is compiled recursively through this same
// Pipeline (spec §4.2 step 2), sharing the bootstrap global scope and
// sess, including its warning sink.
func (p *Pipeline) innerCompile(sess *session.Session, sourceRoot *ast.Expression) ([]*apimap.APIMap, error) {
	res, err := p.Compile(sess, sourceRoot)
	if err != nil {
		return nil, err
	}
	return res.APIMaps, nil
}
