// Package extract implements P2 TypeExtractor (spec §4.2): for each
// API, build an APIMap naming every declared type and exported method
// signature, resolving `with` imports from either a local APIMap, a
// precompiled .api file, or a recursive inner compile of a .orb
// source file. Modeled on the teacher's internal/module (loader +
// resolver) for import search, and internal/iface/builder.go for the
// shape of "extract exports from declarations".
package extract

import (
	"fmt"

	"github.com/orbitlang/orbit-backend/internal/annotation"
	"github.com/orbitlang/orbit-backend/internal/apimap"
	"github.com/orbitlang/orbit-backend/internal/ast"
	orbiterrors "github.com/orbitlang/orbit-backend/internal/errors"
	"github.com/orbitlang/orbit-backend/internal/resolver"
	"github.com/orbitlang/orbit-backend/internal/session"
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// PhaseID namespaces this phase's annotation extensions (spec §6.3).
const PhaseID = "Orbit.Compiler.Backend.TypeExtractor"

// InnerCompile recursively runs the full P1..P5 pipeline over a .orb
// source file discovered while resolving a `with` import, returning
// its API-Maps (spec §4.2 step 2). Supplied by the top-level pipeline
// orchestrator to avoid an import cycle between extract and pipeline.
type InnerCompile func(sess *session.Session, sourceRoot *ast.Expression) ([]*apimap.APIMap, error)

// Context is the phase-specific state threaded through extension
// dispatch (the `ctx interface{}` of annotation.PhaseExtension).
type Context struct {
	Session *session.Session
	Current *apimap.APIMap
}

// Extractor runs P2 over a dependency-ordered list of APIs.
type Extractor struct {
	sess     *session.Session
	find     resolver.SourceResolver
	inner    InnerCompile
	registry *annotation.Registry
	byName   map[string]*apimap.APIMap // local APIMaps built so far, keyed by canonical name
}

// New creates an Extractor. find supplies the external file finder
// (spec §6.2); inner recursively compiles .orb imports.
func New(sess *session.Session, find resolver.SourceResolver, inner InnerCompile) *Extractor {
	e := &Extractor{
		sess:   sess,
		find:   find,
		inner:  inner,
		byName: make(map[string]*apimap.APIMap),
	}
	e.registry = annotation.NewRegistry(PhaseID)
	e.registry.Register(&insertTypeExtension{})
	return e
}

// Registry exposes the extension registry so callers (and tests) can
// register additional built-ins.
func (e *Extractor) Registry() *annotation.Registry { return e.registry }

// Run extracts one APIMap per API, in order, resolving imports as it
// goes (spec §4.2).
func (e *Extractor) Run(orderedAPIs []*ast.Expression) ([]*apimap.APIMap, error) {
	var out []*apimap.APIMap
	for _, api := range orderedAPIs {
		m, err := e.extractOne(api)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		e.byName[m.CanonicalName] = m
	}
	return out, nil
}

func canonicalName(api *ast.Expression) string {
	if api.API.Within != "" {
		return api.API.Within + "." + api.API.Name
	}
	return api.API.Name
}

func (e *Extractor) extractOne(api *ast.Expression) (*apimap.APIMap, error) {
	m := apimap.New(canonicalName(api))

	for _, w := range api.API.With {
		if w == api.API.Name {
			continue // P1 already warned and skipped the self-edge
		}
		imported, err := e.resolveImport(w)
		if err != nil {
			return nil, err
		}
		m.ImportAll(imported)
	}

	ctx := &Context{Session: e.sess, Current: m}

	for i, child := range api.API.Body {
		switch child.Kind {
		case ast.KindTypeDef:
			if err := e.extractType(m, child); err != nil {
				return nil, err
			}
		case ast.KindMethod:
			if err := e.extractMethod(m, child); err != nil {
				return nil, err
			}
		case ast.KindAnnotation:
			// Extensions that synthesise a TypeDef (e.g. InsertType)
			// already export it into m themselves; extracting it again
			// here would see the FullName it just exported and reject
			// it as a duplicate.
			replacement, err := e.runExtension(ctx, api, child)
			if err != nil {
				return nil, err
			}
			if replacement != nil {
				api.API.Body[i] = replacement
			}
		}
	}

	return m, nil
}

func (e *Extractor) runExtension(ctx *Context, host *ast.Expression, call *ast.Expression) (*ast.Expression, error) {
	return e.registry.Dispatch(ctx, host, call)
}

// resolveImport implements spec §4.2's three-step import resolution.
func (e *Extractor) resolveImport(name string) (*apimap.APIMap, error) {
	if m, ok := e.byName[name]; ok {
		return m, nil
	}

	located, err := e.find.Find(name)
	if err != nil {
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.EXT001,
			fmt.Sprintf("dependency not found: %s", name),
			nil,
			map[string]any{"name": name},
		))
	}

	switch located.Format {
	case resolver.FormatPrecompiled:
		data, err := e.find.ReadPrecompiled(located.Path)
		if err != nil {
			return nil, err
		}
		m, err := apimap.FromJSON(data)
		if err != nil {
			return nil, err
		}
		markAllImported(m)
		e.byName[name] = m
		return m, nil

	case resolver.FormatSource:
		sourceRoot, err := e.find.ParseSource(located.Path)
		if err != nil {
			return nil, err
		}
		maps, err := e.inner(e.sess, sourceRoot)
		if err != nil {
			return nil, orbiterrors.WrapReport(orbiterrors.New(
				orbiterrors.EXT005,
				fmt.Sprintf("recursive compile of %s failed: %v", located.Path, err),
				nil,
				map[string]any{"path": located.Path},
			))
		}
		for _, m := range maps {
			markAllImported(m)
			e.byName[m.CanonicalName] = m
			if m.CanonicalName == name {
				return m, nil
			}
		}
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.EXT001,
			fmt.Sprintf("recursive compile of %s never produced %s", located.Path, name),
			nil,
			map[string]any{"name": name},
		))
	}

	return nil, fmt.Errorf("unknown import format for %s", name)
}

func markAllImported(m *apimap.APIMap) {
	for _, t := range m.ExportedTypes() {
		m.MarkImported(t.FullName)
	}
	for _, s := range m.ExportedMethods() {
		m.MarkImported(s.FullName)
	}
}

func (e *Extractor) extractType(m *apimap.APIMap, def *ast.Expression) error {
	fullName := m.CanonicalName + "." + def.TypeDef.Name

	for _, existing := range m.ExportedTypes() {
		if existing.FullName == fullName {
			return orbiterrors.WrapReport(orbiterrors.New(
				orbiterrors.EXT002,
				fmt.Sprintf("duplicate type: %s", fullName),
				&def.Pos,
				map[string]any{"name": fullName},
			))
		}
	}

	var members []*typerecord.Record
	allFound := true
	for _, prop := range def.TypeDef.Properties {
		propType, ok := m.FindType(prop.Pair.Type.TypeID.Name)
		if !ok {
			allFound = false
			break
		}
		if prop.Pair.Type.TypeID.IsList {
			propType = typerecord.ListOf(propType)
		}
		members = append(members, propType)
	}

	var rec *typerecord.Record
	if allFound && len(members) > 0 {
		rec = typerecord.NewCompoundType(def.TypeDef.Name, fullName, members)
	} else if len(def.TypeDef.Properties) == 0 {
		rec = typerecord.NewType(def.TypeDef.Name, fullName)
	} else {
		return orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.EXT003,
			fmt.Sprintf("property type not found while extracting %s", fullName),
			&def.Pos,
			map[string]any{"type": fullName},
		))
	}

	typerecord.Annotate(def, rec)
	m.ExportType(rec)
	return nil
}

func (e *Extractor) extractMethod(m *apimap.APIMap, method *ast.Expression) error {
	sig := method.Method.Signature
	recv, ok := m.FindType(sig.Signature.Receiver.TypeID.Name)
	if !ok {
		return orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.EXT003,
			fmt.Sprintf("receiver type not found: %s", sig.Signature.Receiver.TypeID.Name),
			&sig.Pos,
			nil,
		))
	}

	var args []*typerecord.Record
	for _, p := range sig.Signature.Params {
		argType, ok := m.FindType(p.Pair.Type.TypeID.Name)
		if !ok {
			return orbiterrors.WrapReport(orbiterrors.New(
				orbiterrors.EXT003,
				fmt.Sprintf("param type not found: %s", p.Pair.Type.TypeID.Name),
				&p.Pos,
				nil,
			))
		}
		if p.Pair.Type.TypeID.IsList {
			argType = typerecord.ListOf(argType)
		}
		args = append(args, argType)
	}

	ret := typerecord.Unit
	if sig.Signature.Return != nil {
		r, ok := m.FindType(sig.Signature.Return.TypeID.Name)
		if !ok {
			return orbiterrors.WrapReport(orbiterrors.New(
				orbiterrors.EXT003,
				fmt.Sprintf("return type not found: %s", sig.Signature.Return.TypeID.Name),
				&sig.Pos,
				nil,
			))
		}
		ret = r
		if sig.Signature.Return.TypeID.IsList {
			ret = typerecord.ListOf(r)
		}
	}

	record := typerecord.NewSignature(sig.Signature.Name, recv, args, ret)
	typerecord.Annotate(sig, record)
	m.ExportMethod(record)
	return nil
}

// insertTypeExtension is the built-in `InsertType(Identifier)`
// extension (spec §4.2, §6.3): injects a synthetic TypeDef and records
// a type with the given name.
type insertTypeExtension struct{}

func (insertTypeExtension) Name() string { return "InsertType" }

func (insertTypeExtension) Run(rawCtx interface{}, host *ast.Expression, call *ast.Expression) (*ast.Expression, error) {
	if err := annotation.CheckArity("InsertType", call, 1); err != nil {
		return nil, err
	}
	ctx := rawCtx.(*Context)
	if call.Annot.Params[0].Kind != ast.KindIdentifier {
		return nil, &annotation.ArityError{Extension: "InsertType", Expected: 1, Actual: len(call.Annot.Params)}
	}
	name := call.Annot.Params[0].Identifier.Name

	synthetic := &ast.Expression{
		ID:   call.ID,
		Pos:  call.Pos,
		Kind: ast.KindTypeDef,
		TypeDef: &ast.TypeDefExpr{
			Name: name,
		},
	}

	fullName := ctx.Current.CanonicalName + "." + name
	rec := typerecord.NewType(name, fullName)
	typerecord.Annotate(synthetic, rec)
	ctx.Current.ExportType(rec)

	return synthetic, nil
}
