// Package resolve implements P3 TypeResolver (spec §4.3): annotates
// every expression with a TypeAnnotation, builds scope chains for
// methods, and rewrites operators into method dispatch by name.
// Modeled on the teacher's internal/types/typechecker*.go value
// dispatch and internal/elaborate's operator-to-method rewriting,
// generalized from Hindley-Milner inference to spec §4.3's direct
// scope-lookup resolution.
package resolve

import (
	"fmt"

	"github.com/orbitlang/orbit-backend/internal/annotation"
	"github.com/orbitlang/orbit-backend/internal/apimap"
	"github.com/orbitlang/orbit-backend/internal/ast"
	orbiterrors "github.com/orbitlang/orbit-backend/internal/errors"
	"github.com/orbitlang/orbit-backend/internal/scope"
	"github.com/orbitlang/orbit-backend/internal/session"
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// PhaseID namespaces this phase's annotation extensions (spec §6.3).
const PhaseID = "Orbit.Compiler.Backend.TypeResolver"

// Context is the phase-specific state threaded through extension
// dispatch.
type Context struct {
	Session *session.Session
	Scope   *scope.Scope
}

// Resolver runs P3 over the dependency-ordered (RootAST, API-Maps)
// pair.
type Resolver struct {
	sess     *session.Session
	global   *scope.Scope
	registry *annotation.Registry
}

// New creates a Resolver seeded with the process-wide global scope.
func New(sess *session.Session, global *scope.Scope) *Resolver {
	r := &Resolver{sess: sess, global: global}
	r.registry = annotation.NewRegistry(PhaseID)
	r.registry.Register(&aliasTypeExtension{})
	r.registry.Register(&specialExtension{})
	r.registry.Register(&addExtension{})
	return r
}

// Registry exposes the extension registry for registering additional
// built-ins or for tests.
func (r *Resolver) Registry() *annotation.Registry { return r.registry }

// Run resolves every API in orderedAPIs against the incrementally
// merged view of maps (spec §5: "later APIs see earlier APIs'
// exports").
func (r *Resolver) Run(orderedAPIs []*ast.Expression, maps []*apimap.APIMap) error {
	merged := apimap.New("")
	for i, api := range orderedAPIs {
		if i < len(maps) {
			merged.ImportAll(maps[i])
		}
		apiScope := r.global.Child()
		for _, t := range merged.ExportedTypes() {
			apiScope.DeclareType(t)
		}
		for _, m := range merged.ExportedMethods() {
			apiScope.DeclareType(m)
		}
		scope.Annotate(api, apiScope)

		if err := r.resolveAPI(api, apiScope); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveAPI(api *ast.Expression, apiScope *scope.Scope) error {
	// API-level annotations (AliasType, Special, Add, ...) run first:
	// they extend the scope that TypeDef/Method resolution below reads
	// from (spec §6.3).
	for i, child := range api.API.Body {
		if child.Kind == ast.KindAnnotation {
			ctx := &Context{Session: r.sess, Scope: apiScope}
			replacement, err := r.registry.Dispatch(ctx, api, child)
			if err != nil {
				return err
			}
			if replacement != nil {
				api.API.Body[i] = replacement
			}
		}
	}
	for _, child := range api.API.Body {
		if child.Kind == ast.KindTypeDef {
			if err := r.resolveTypeDef(child, apiScope); err != nil {
				return err
			}
		}
	}
	for _, child := range api.API.Body {
		if child.Kind == ast.KindMethod {
			if err := r.resolveMethod(child, apiScope); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) resolveTypeDef(def *ast.Expression, s *scope.Scope) error {
	for _, prop := range def.TypeDef.Properties {
		propType, err := s.FindType(prop.Pair.Type.TypeID.Name)
		if err != nil {
			return wrapUnknownType(prop.Pair.Type.TypeID.Name, prop.Pos, err)
		}
		if prop.Pair.Type.TypeID.IsList {
			propType = typerecord.ListOf(propType)
		}
		typerecord.Annotate(prop, propType)
		typerecord.Annotate(prop.Pair.Type, propType)
	}
	rec, err := s.FindType(def.TypeDef.Name)
	if err != nil {
		return wrapUnknownType(def.TypeDef.Name, def.Pos, err)
	}
	typerecord.Annotate(def, rec)
	return nil
}

func (r *Resolver) resolveMethod(method *ast.Expression, apiScope *scope.Scope) error {
	sigExpr := method.Method.Signature
	recv, err := apiScope.FindType(sigExpr.Signature.Receiver.TypeID.Name)
	if err != nil {
		return wrapUnknownType(sigExpr.Signature.Receiver.TypeID.Name, sigExpr.Pos, err)
	}

	var args []*typerecord.Record
	for _, p := range sigExpr.Signature.Params {
		t, err := apiScope.FindType(p.Pair.Type.TypeID.Name)
		if err != nil {
			return wrapUnknownType(p.Pair.Type.TypeID.Name, p.Pos, err)
		}
		if p.Pair.Type.TypeID.IsList {
			t = typerecord.ListOf(t)
		}
		args = append(args, t)
		typerecord.Annotate(p, t)
	}

	ret := typerecord.Unit
	if sigExpr.Signature.Return != nil {
		t, err := apiScope.FindType(sigExpr.Signature.Return.TypeID.Name)
		if err != nil {
			return wrapUnknownType(sigExpr.Signature.Return.TypeID.Name, sigExpr.Pos, err)
		}
		if sigExpr.Signature.Return.TypeID.IsList {
			t = typerecord.ListOf(t)
		}
		ret = t
	}

	sigRecord := typerecord.NewSignature(sigExpr.Signature.Name, recv, args, ret)
	typerecord.Annotate(sigExpr, sigRecord)

	methodScope := apiScope.Child()
	for i, p := range sigExpr.Signature.Params {
		if err := methodScope.Bind(p.Pair.Name, args[i]); err != nil {
			return err
		}
	}
	scope.Annotate(method, methodScope)

	methodRecord := typerecord.NewMethod(sigRecord)
	apiScope.DeclareType(methodRecord)

	if err := r.resolveBlock(method.Method.Body, methodScope); err != nil {
		return err
	}
	typerecord.Annotate(method, methodRecord)
	return nil
}

func (r *Resolver) resolveBlock(block *ast.Expression, s *scope.Scope) error {
	for i, stmt := range block.Block.Statements {
		if stmt.Kind == ast.KindAnnotation {
			ctx := &Context{Session: r.sess, Scope: s}
			replacement, err := r.registry.Dispatch(ctx, block, stmt)
			if err != nil {
				return err
			}
			if replacement != nil {
				block.Block.Statements[i] = replacement
				// Extensions that synthesise a TypeDef (e.g. Special)
				// already attach its TypeAnnotation themselves; anything
				// else still needs the ordinary value dispatch.
				if replacement.Kind != ast.KindAnnotation && replacement.Kind != ast.KindTypeDef {
					if _, err := r.resolveValue(replacement, s); err != nil {
						return err
					}
				}
			}
			continue
		}
		if _, err := r.resolveValue(stmt, s); err != nil {
			return err
		}
	}
	if block.Block.Return == nil {
		typerecord.Annotate(block, typerecord.Unit)
		return nil
	}
	retVal, err := r.resolveValue(block.Block.Return.Return.Value, s)
	if err != nil {
		return err
	}
	typerecord.Annotate(block.Block.Return, retVal)
	typerecord.Annotate(block, retVal)
	return nil
}

// resolveValue dispatches on e.Kind per spec §4.3's value switch,
// annotating e with its TypeAnnotation and returning that record.
func (r *Resolver) resolveValue(e *ast.Expression, s *scope.Scope) (*typerecord.Record, error) {
	switch e.Kind {
	case ast.KindInt:
		typerecord.Annotate(e, typerecord.Int)
		return typerecord.Int, nil

	case ast.KindReal:
		typerecord.Annotate(e, typerecord.Real)
		return typerecord.Real, nil

	case ast.KindString:
		typerecord.Annotate(e, typerecord.Str)
		return typerecord.Str, nil

	case ast.KindList:
		var elemType *typerecord.Record
		if len(e.List.Elements) > 0 {
			t, err := r.resolveValue(e.List.Elements[0], s)
			if err != nil {
				return nil, err
			}
			elemType = t
			for _, rest := range e.List.Elements[1:] {
				if _, err := r.resolveValue(rest, s); err != nil {
					return nil, err
				}
			}
		} else {
			elemType = typerecord.Unit
		}
		listType := typerecord.ListOf(elemType)
		typerecord.Annotate(e, listType)
		return listType, nil

	case ast.KindIdentifier:
		t, err := s.LookupBinding(e.Identifier.Name)
		if err != nil {
			return nil, orbiterrors.WrapReport(orbiterrors.New(
				orbiterrors.RES002,
				fmt.Sprintf("unbound name: %s", e.Identifier.Name),
				&e.Pos,
				map[string]any{"name": e.Identifier.Name},
			))
		}
		typerecord.Annotate(e, t)
		return t, nil

	case ast.KindTypeIdentifier:
		t, err := s.FindType(e.TypeID.Name)
		if err != nil {
			return nil, wrapUnknownType(e.TypeID.Name, e.Pos, err)
		}
		if e.TypeID.IsList {
			t = typerecord.ListOf(t)
		}
		typerecord.Annotate(e, t)
		return t, nil

	case ast.KindUnary:
		return r.resolveUnary(e, s)

	case ast.KindBinary:
		return r.resolveBinary(e, s)

	case ast.KindStaticCall:
		return r.resolveStaticCall(e, s)

	case ast.KindInstanceCall:
		return r.resolveInstanceCall(e, s)

	case ast.KindConstructorCall:
		return r.resolveConstructorCall(e, s)

	case ast.KindAssignment:
		return r.resolveAssignment(e, s)

	case ast.KindBlock:
		if err := r.resolveBlock(e, s); err != nil {
			return nil, err
		}
		t, _ := typerecord.Of(e)
		return t, nil

	case ast.KindAnnotation:
		for _, p := range e.Annot.Params {
			if _, err := r.resolveValue(p, s); err != nil {
				return nil, err
			}
		}
		scope.Annotate(e, s)
		return typerecord.Unit, nil
	}

	return nil, fmt.Errorf("resolve: unsupported statement kind %s", e.Kind)
}

func (r *Resolver) resolveUnary(e *ast.Expression, s *scope.Scope) (*typerecord.Record, error) {
	v, err := r.resolveValue(e.Unary.Value, s)
	if err != nil {
		return nil, err
	}
	methodName := typerecord.OperatorMethodName(e.Unary.Op, v, nil)
	method, err := s.FindType(methodName)
	if err != nil {
		return nil, unsupportedOperator(e.Unary.Op, []string{v.FullName}, e.Pos)
	}
	typerecord.Annotate(e, method.Return)
	typerecord.AnnotateMetaData(e, "OperatorFunction", method)
	return method.Return, nil
}

func (r *Resolver) resolveBinary(e *ast.Expression, s *scope.Scope) (*typerecord.Record, error) {
	l, err := r.resolveValue(e.Binary.Left, s)
	if err != nil {
		return nil, err
	}
	rt, err := r.resolveValue(e.Binary.Right, s)
	if err != nil {
		return nil, err
	}
	methodName := typerecord.OperatorMethodName(e.Binary.Op, l, rt)
	method, err := s.FindType(methodName)
	if err != nil {
		return nil, unsupportedOperator(e.Binary.Op, []string{l.FullName, rt.FullName}, e.Pos)
	}
	typerecord.Annotate(e, method.Return)
	typerecord.AnnotateMetaData(e, "OperatorFunction", method)
	return method.Return, nil
}

func (r *Resolver) resolveStaticCall(e *ast.Expression, s *scope.Scope) (*typerecord.Record, error) {
	recv, err := r.resolveValue(e.StaticCall.ReceiverType, s)
	if err != nil {
		return nil, err
	}
	var argTypes []*typerecord.Record
	for _, a := range e.StaticCall.Args {
		t, err := r.resolveValue(a, s)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, t)
	}
	expanded := typerecord.StaticCallMethodName(recv, e.StaticCall.Method, argTypes)
	method, err := s.FindType(expanded)
	if err != nil {
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.RES005,
			fmt.Sprintf("unknown method: %s", expanded),
			&e.Pos,
			map[string]any{"method": expanded},
		))
	}
	typerecord.Annotate(e, method.Return)
	typerecord.AnnotateMetaData(e, "ExpandedMethodName", expanded)
	return method.Return, nil
}

func (r *Resolver) resolveInstanceCall(e *ast.Expression, s *scope.Scope) (*typerecord.Record, error) {
	recv, err := r.resolveValue(e.InstCall.Receiver, s)
	if err != nil {
		return nil, err
	}
	var argTypes []*typerecord.Record
	for _, a := range e.InstCall.Args {
		t, err := r.resolveValue(a, s)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, t)
	}
	expanded := typerecord.StaticCallMethodName(recv, e.InstCall.Method, argTypes)
	method, err := s.FindType(expanded)
	if err != nil {
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.RES005,
			fmt.Sprintf("unknown method: %s", expanded),
			&e.Pos,
			map[string]any{"method": expanded},
		))
	}
	typerecord.Annotate(e, method.Return)
	typerecord.AnnotateMetaData(e, "ExpandedMethodName", expanded)
	return method.Return, nil
}

func (r *Resolver) resolveConstructorCall(e *ast.Expression, s *scope.Scope) (*typerecord.Record, error) {
	t, err := r.resolveValue(e.CtorCall.Type, s)
	if err != nil {
		return nil, err
	}

	var argTypes []*typerecord.Record
	for _, a := range e.CtorCall.Args {
		at, err := r.resolveValue(a, s)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, at)
	}

	if t.Variant == typerecord.VariantCompoundType {
		if len(argTypes) != len(t.MemberTypes) {
			return nil, orbiterrors.WrapReport(orbiterrors.New(
				orbiterrors.RES006,
				fmt.Sprintf("constructor arity mismatch: expected %d, got %d", len(t.MemberTypes), len(argTypes)),
				&e.Pos,
				map[string]any{"expected": len(t.MemberTypes), "actual": len(argTypes)},
			))
		}
		for i, member := range t.MemberTypes {
			if !typerecord.Equal(member, argTypes[i]) {
				return nil, orbiterrors.WrapReport(orbiterrors.New(
					orbiterrors.RES007,
					fmt.Sprintf("constructor arg %d type mismatch: expected %s, got %s", i, member.FullName, argTypes[i].FullName),
					&e.CtorCall.Args[i].Pos,
					map[string]any{"index": i, "expected": member.FullName, "actual": argTypes[i].FullName},
				))
			}
			typerecord.Annotate(e.CtorCall.Args[i], member)
		}
	}

	typerecord.Annotate(e, t)
	return t, nil
}

func (r *Resolver) resolveAssignment(e *ast.Expression, s *scope.Scope) (*typerecord.Record, error) {
	rhs, err := r.resolveValue(e.Assignment.Value, s)
	if err != nil {
		return nil, err
	}

	declared := rhs
	if e.Assignment.Type != nil && e.Assignment.Value.Kind != ast.KindAnnotation {
		d, err := r.resolveValue(e.Assignment.Type, s)
		if err != nil {
			return nil, err
		}
		if !typerecord.Equal(d, rhs) {
			return nil, orbiterrors.WrapReport(orbiterrors.New(
				orbiterrors.RES004,
				fmt.Sprintf("assignment type mismatch: declared %s, got %s", d.FullName, rhs.FullName),
				&e.Pos,
				map[string]any{"declared": d.FullName, "actual": rhs.FullName},
			))
		}
		declared = d
	}

	if err := s.Bind(e.Assignment.Name, declared); err != nil {
		return nil, err
	}
	typerecord.Annotate(e, declared)
	return declared, nil
}

func wrapUnknownType(name string, pos ast.Pos, cause error) error {
	if amb, ok := cause.(*scope.AmbiguousTypeError); ok {
		return orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.RES003,
			fmt.Sprintf("ambiguous type: %s", name),
			&pos,
			map[string]any{"name": name, "candidates": len(amb.Candidates)},
		))
	}
	return orbiterrors.WrapReport(orbiterrors.New(
		orbiterrors.RES001,
		fmt.Sprintf("unknown type: %s", name),
		&pos,
		map[string]any{"name": name},
	))
}

func unsupportedOperator(op string, operandTypes []string, pos ast.Pos) error {
	return orbiterrors.WrapReport(orbiterrors.New(
		orbiterrors.RES008,
		fmt.Sprintf("unsupported operator %q for operand types %v", op, operandTypes),
		&pos,
		map[string]any{"operator": op, "operands": operandTypes},
	))
}

// aliasTypeExtension is the built-in `AliasType(source, target)`
// extension (spec §4.3, §6.3): introduces a scope alias.
type aliasTypeExtension struct{}

func (aliasTypeExtension) Name() string { return "AliasType" }

func (aliasTypeExtension) Run(rawCtx interface{}, host *ast.Expression, call *ast.Expression) (*ast.Expression, error) {
	if err := annotation.CheckArity("AliasType", call, 2); err != nil {
		return nil, err
	}
	ctx := rawCtx.(*Context)
	source := call.Annot.Params[0]
	target := call.Annot.Params[1]
	if source.Kind != ast.KindIdentifier || target.Kind != ast.KindTypeIdentifier {
		return nil, &annotation.ArityError{Extension: "AliasType", Expected: 2, Actual: len(call.Annot.Params)}
	}
	t, err := ctx.Scope.FindType(target.TypeID.Name)
	if err != nil {
		return nil, wrapUnknownType(target.TypeID.Name, call.Pos, err)
	}
	ctx.Scope.Alias(source.Identifier.Name, t)
	return nil, nil
}

// specialExtension is the built-in `Special(TypeIdentifier,
// TypeIdentifier+)` extension (spec §4.3, §6.3): instantiates a
// generic, synthesising a TypeDef node with its type annotation
// already attached.
type specialExtension struct{}

func (specialExtension) Name() string { return "Special" }

func (specialExtension) Run(rawCtx interface{}, host *ast.Expression, call *ast.Expression) (*ast.Expression, error) {
	if len(call.Annot.Params) < 2 {
		return nil, &annotation.ArityError{Extension: "Special", Expected: 2, Actual: len(call.Annot.Params)}
	}
	ctx := rawCtx.(*Context)

	base, err := ctx.Scope.FindType(call.Annot.Params[0].TypeID.Name)
	if err != nil {
		return nil, wrapUnknownType(call.Annot.Params[0].TypeID.Name, call.Pos, err)
	}
	var params []*typerecord.Record
	for _, p := range call.Annot.Params[1:] {
		t, err := ctx.Scope.FindType(p.TypeID.Name)
		if err != nil {
			return nil, wrapUnknownType(p.TypeID.Name, call.Pos, err)
		}
		params = append(params, t)
	}

	generic := typerecord.NewGenericType(base, params)
	ctx.Scope.DeclareType(generic)

	synthetic := &ast.Expression{
		ID:   call.ID,
		Pos:  call.Pos,
		Kind: ast.KindTypeDef,
		TypeDef: &ast.TypeDefExpr{
			Name: generic.ShortName,
		},
	}
	typerecord.Annotate(synthetic, generic)
	return synthetic, nil
}

// addExtension is the built-in `Add(TypeIdentifier, TypeIdentifier)`
// extension (spec §4.3/§4.5, §6.3): declares the
// `Operator.+.<lhs>.<rhs>` dispatch signature in scope so later
// binary `+` usages between the named types resolve, without
// requiring a user-written method body. LLVMGen's own Add extension
// later supplies the native instruction for the same signature.
type addExtension struct{}

func (addExtension) Name() string { return "Add" }

func (addExtension) Run(rawCtx interface{}, host *ast.Expression, call *ast.Expression) (*ast.Expression, error) {
	if err := annotation.CheckArity("Add", call, 2); err != nil {
		return nil, err
	}
	ctx := rawCtx.(*Context)
	lhsID, rhsID := call.Annot.Params[0], call.Annot.Params[1]
	if lhsID.Kind != ast.KindTypeIdentifier || rhsID.Kind != ast.KindTypeIdentifier {
		return nil, &annotation.ArityError{Extension: "Add", Expected: 2, Actual: 2}
	}

	lhs, err := ctx.Scope.FindType(lhsID.TypeID.Name)
	if err != nil {
		return nil, wrapUnknownType(lhsID.TypeID.Name, call.Pos, err)
	}
	rhs, err := ctx.Scope.FindType(rhsID.TypeID.Name)
	if err != nil {
		return nil, wrapUnknownType(rhsID.TypeID.Name, call.Pos, err)
	}

	opName := typerecord.OperatorMethodName("+", lhs, rhs)
	sig := &typerecord.Record{
		Variant:   typerecord.VariantSignature,
		ShortName: opName,
		FullName:  opName,
		Receiver:  lhs,
		Args:      []*typerecord.Record{rhs},
		Return:    lhs,
	}
	ctx.Scope.DeclareType(sig)
	return nil, nil
}
