// Package codegen implements P5 LLVMGen (spec §4.5): emits one LLVM
// IR module per API, translating every TypeDef into a struct type and
// every Method into a function, guided by the TypeAnnotation and
// MetaData the resolver left behind. Built on github.com/llir/llvm's
// ir/types/constant/value packages rather than hand-rolled IR structs
// or text emission, grounded on the teacher's LLVM-targeting sibling
// example (a toy-language-to-IR generator keeping an old/new index of
// top-level entities per module).
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/orbitlang/orbit-backend/internal/annotation"
	"github.com/orbitlang/orbit-backend/internal/apimap"
	"github.com/orbitlang/orbit-backend/internal/ast"
	orbiterrors "github.com/orbitlang/orbit-backend/internal/errors"
	"github.com/orbitlang/orbit-backend/internal/scope"
	"github.com/orbitlang/orbit-backend/internal/session"
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// PhaseID namespaces this phase's annotation extensions (spec §6.3).
const PhaseID = "Orbit.Compiler.Backend.LLVMGen"

// Context is the phase-specific state threaded through codegen and
// through extension dispatch: one instance per API module.
type Context struct {
	Session *session.Session
	Module  *ir.Module
	Scope   *scope.Scope

	Types          map[string]types.Type         // by TypeRecord.FullName
	Funcs          map[string]*ir.Func           // by Signature/Method FullName
	Records        map[string]*typerecord.Record // Funcs' keys, for MetaData lookups
	Strings        map[string]*ir.Global         // pooled string constants, by literal text
	Entry          *ir.Func                      // set once the EntryPoint target is generated
	EntryPointName string                        // method short-name named by an EntryPoint annotation, if any
}

// Generator runs P5 over the dependency-ordered (RootAST, API-Maps)
// pair.
type Generator struct {
	sess     *session.Session
	registry *annotation.Registry
}

// New creates a Generator with the built-in LLVM-namespaced
// extensions registered.
func New(sess *session.Session) *Generator {
	g := &Generator{sess: sess}
	g.registry = annotation.NewRegistry(PhaseID)
	g.registry.Register(&entryPointExtension{})
	g.registry.Register(&integerAliasExtension{})
	g.registry.Register(&floatAliasExtension{})
	g.registry.Register(&addExtension{})
	return g
}

// Registry exposes the extension registry for registering additional
// built-ins or for tests.
func (g *Generator) Registry() *annotation.Registry { return g.registry }

// Run emits one *ir.Module per API, keyed by canonical name.
func (g *Generator) Run(orderedAPIs []*ast.Expression, maps []*apimap.APIMap) (map[string]*ir.Module, error) {
	out := make(map[string]*ir.Module, len(orderedAPIs))
	for i, api := range orderedAPIs {
		apiScope, _ := scope.Of(api)
		ctx := &Context{
			Session: g.sess,
			Module:  ir.NewModule(),
			Scope:   apiScope,
			Types:   make(map[string]types.Type),
			Funcs:   make(map[string]*ir.Func),
			Records: make(map[string]*typerecord.Record),
			Strings: make(map[string]*ir.Global),
		}

		if i < len(maps) {
			if err := g.declareImports(ctx, maps[i]); err != nil {
				return nil, err
			}
		}

		// API-level annotations (IntegerAlias, FloatAlias, Add, ...) run
		// first: Add in particular must install its native function
		// before any method body's ensureFunc call can declare an empty
		// stand-in under the same name (spec §6.3).  EntryPoint is the
		// exception — it names a method by identifier, so its effect is
		// applied lazily from declareMethod once that function exists.
		for i, child := range api.API.Body {
			if child.Kind == ast.KindAnnotation {
				replacement, err := g.registry.Dispatch(ctx, api, child)
				if err != nil {
					return nil, err
				}
				if replacement != nil {
					api.API.Body[i] = replacement
				}
			}
		}
		for _, child := range api.API.Body {
			if child.Kind == ast.KindTypeDef {
				if err := g.genTypeDef(ctx, child); err != nil {
					return nil, err
				}
			}
		}
		for _, child := range api.API.Body {
			if child.Kind == ast.KindMethod {
				if err := g.declareMethod(ctx, child); err != nil {
					return nil, err
				}
			}
		}
		for _, child := range api.API.Body {
			if child.Kind == ast.KindMethod {
				if err := g.genMethodBody(ctx, child); err != nil {
					return nil, err
				}
			}
		}
		if ctx.Session != nil && ctx.EntryPointName != "" && ctx.Entry == nil {
			return nil, orbiterrors.WrapReport(orbiterrors.New(
				orbiterrors.GEN004,
				fmt.Sprintf("EntryPoint target %q not found among generated methods", ctx.EntryPointName),
				nil,
				map[string]any{"method": ctx.EntryPointName},
			))
		}

		canonical := api.API.Name
		if api.API.Within != "" {
			canonical = api.API.Within + "." + api.API.Name
		}
		out[canonical] = ctx.Module
	}
	return out, nil
}

func (g *Generator) declareImports(ctx *Context, m *apimap.APIMap) error {
	for _, t := range m.ExportedTypes() {
		if m.IsImported(t.FullName) {
			if _, err := ensureType(ctx, t); err != nil {
				return err
			}
		}
	}
	for _, sig := range m.ExportedMethods() {
		if m.IsImported(sig.FullName) {
			if _, err := ensureFunc(ctx, sig); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Generator) genTypeDef(ctx *Context, def *ast.Expression) error {
	rec, ok := typerecord.Of(def)
	if !ok {
		return fmt.Errorf("codegen: TypeDef %s has no TypeAnnotation", def.TypeDef.Name)
	}
	_, err := ensureType(ctx, rec)
	return err
}

func (g *Generator) declareMethod(ctx *Context, method *ast.Expression) error {
	rec, ok := typerecord.Of(method)
	if !ok {
		return fmt.Errorf("codegen: Method %s has no TypeAnnotation", method.Method.Signature.Signature.Name)
	}
	fn, err := ensureFunc(ctx, rec)
	if err != nil {
		return err
	}
	if ctx.EntryPointName != "" && rec.ShortName == ctx.EntryPointName {
		fn.SetName("main")
		ctx.Entry = fn
	}
	return nil
}

func (g *Generator) genMethodBody(ctx *Context, method *ast.Expression) error {
	rec, _ := typerecord.Of(method)
	fn := ctx.Funcs[rec.FullName]

	values := make(map[string]value.Value)
	params := fn.Params
	// params[0] is the implicit receiver; named parameters follow in
	// signature order.
	sigParams := method.Method.Signature.Signature.Params
	for i, p := range sigParams {
		if i+1 < len(params) {
			values[p.Pair.Name] = params[i+1]
		}
	}

	entry := fn.NewBlock("entry")
	_, err := g.genBlock(ctx, entry, method.Method.Body, values)
	return err
}

// genBlock emits the statements and terminating return of a Block
// node into cur, returning the block the terminator was attached to
// (codegen may have opened further blocks for control flow the
// current operation set does not need, so callers should not assume
// cur is still open afterwards).
func (g *Generator) genBlock(ctx *Context, cur *ir.Block, block *ast.Expression, values map[string]value.Value) (*ir.Block, error) {
	for i, stmt := range block.Block.Statements {
		if stmt.Kind == ast.KindAnnotation {
			replacement, err := g.registry.Dispatch(ctx, block, stmt)
			if err != nil {
				return nil, err
			}
			if replacement != nil {
				block.Block.Statements[i] = replacement
			}
			continue
		}
		v, next, err := g.genValue(ctx, cur, stmt, values)
		if err != nil {
			return nil, err
		}
		_ = v
		cur = next
	}

	if block.Block.Return == nil {
		cur.NewRet(nil)
		return cur, nil
	}

	retVal, next, err := g.genValue(ctx, cur, block.Block.Return.Return.Value, values)
	if err != nil {
		return nil, err
	}
	next.NewRet(retVal)
	return next, nil
}

// genValue lowers a value-position expression into IR, returning the
// produced value and the block subsequent instructions should append
// to (mirrors spec §4.3's resolve-phase dispatch, but yields IR values
// instead of TypeRecords).
func (g *Generator) genValue(ctx *Context, cur *ir.Block, e *ast.Expression, values map[string]value.Value) (value.Value, *ir.Block, error) {
	switch e.Kind {
	case ast.KindInt:
		// Default width is 32 bits (spec §4.5); IntegerAlias overrides it
		// per type via ctx.Types, but a bare literal always lowers here.
		v := constant.NewInt(types.I32, e.Int.Value)
		Annotate(e, v)
		return v, cur, nil

	case ast.KindReal:
		// Default width is 32-bit float (spec §4.5); FloatAlias overrides
		// it per type via ctx.Types.
		v := constant.NewFloat(types.Float, e.Real.Value)
		Annotate(e, v)
		return v, cur, nil

	case ast.KindString:
		// String constants are pooled as module globals by name so the
		// same literal text always resolves to the same global.
		ptr := g.internString(ctx, e.Str.Value)
		Annotate(e, ptr)
		return ptr, cur, nil

	case ast.KindIdentifier:
		v, ok := values[e.Identifier.Name]
		if !ok {
			return nil, nil, orbiterrors.WrapReport(orbiterrors.New(
				orbiterrors.GEN002,
				fmt.Sprintf("no IR value bound for %s", e.Identifier.Name),
				&e.Pos,
				map[string]any{"name": e.Identifier.Name},
			))
		}
		Annotate(e, v)
		return v, cur, nil

	case ast.KindUnary:
		v, next, err := g.genValue(ctx, cur, e.Unary.Value, values)
		if err != nil {
			return nil, nil, err
		}
		return g.genOperatorCall(ctx, next, e, []value.Value{v})

	case ast.KindBinary:
		l, next, err := g.genValue(ctx, cur, e.Binary.Left, values)
		if err != nil {
			return nil, nil, err
		}
		r, next2, err := g.genValue(ctx, next, e.Binary.Right, values)
		if err != nil {
			return nil, nil, err
		}
		return g.genOperatorCall(ctx, next2, e, []value.Value{l, r})

	case ast.KindStaticCall:
		return g.genExpandedCall(ctx, cur, e, nil, e.StaticCall.Args, values)

	case ast.KindInstanceCall:
		recv, next, err := g.genValue(ctx, cur, e.InstCall.Receiver, values)
		if err != nil {
			return nil, nil, err
		}
		return g.genExpandedCall(ctx, next, e, recv, e.InstCall.Args, values)

	case ast.KindConstructorCall:
		return g.genConstructorCall(ctx, cur, e, values)

	case ast.KindAssignment:
		v, next, err := g.genValue(ctx, cur, e.Assignment.Value, values)
		if err != nil {
			return nil, nil, err
		}
		values[e.Assignment.Name] = v
		Annotate(e, v)
		return v, next, nil

	case ast.KindList:
		return g.genList(ctx, cur, e, values)
	}

	return nil, nil, fmt.Errorf("codegen: unsupported value kind %s", e.Kind)
}

// internString returns the pointer-to-first-byte value for a pooled
// string constant global, creating it on first use.
func (g *Generator) internString(ctx *Context, text string) *constant.ExprGetElementPtr {
	global, ok := ctx.Strings[text]
	if !ok {
		init := constant.NewCharArrayFromString(text + "\x00")
		global = ir.NewGlobalDef(LegalName(fmt.Sprintf("str.%x", text)), init)
		ctx.Module.Globals = append(ctx.Module.Globals, global)
		ctx.Strings[text] = global
	}
	zero := constant.NewInt(types.I64, 0)
	return constant.NewGetElementPtr(global.ContentType, global, zero, zero)
}

func (g *Generator) genOperatorCall(ctx *Context, cur *ir.Block, e *ast.Expression, args []value.Value) (value.Value, *ir.Block, error) {
	md, ok := typerecord.MetaDataOf(e, "OperatorFunction")
	if !ok {
		return nil, nil, fmt.Errorf("codegen: operator node missing OperatorFunction metadata")
	}
	rec, ok := md.(*typerecord.Record)
	if !ok {
		return nil, nil, fmt.Errorf("codegen: OperatorFunction metadata is not a TypeRecord")
	}
	fn, err := ensureFunc(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	call := cur.NewCall(fn, args...)
	Annotate(e, call)
	return call, cur, nil
}

func (g *Generator) genExpandedCall(ctx *Context, cur *ir.Block, e *ast.Expression, recv value.Value, argExprs []*ast.Expression, values map[string]value.Value) (value.Value, *ir.Block, error) {
	md, ok := typerecord.MetaDataOf(e, "ExpandedMethodName")
	if !ok {
		return nil, nil, fmt.Errorf("codegen: call node missing ExpandedMethodName metadata")
	}
	name, _ := md.(string)
	rec, ok := ctx.Records[name]
	if !ok {
		return nil, nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.GEN002,
			fmt.Sprintf("no IR function registered for %s", name),
			&e.Pos,
			map[string]any{"method": name},
		))
	}
	fn := ctx.Funcs[rec.FullName]

	var args []value.Value
	if recv != nil {
		args = append(args, recv)
	}
	for _, a := range argExprs {
		v, next, err := g.genValue(ctx, cur, a, values)
		if err != nil {
			return nil, nil, err
		}
		cur = next
		args = append(args, v)
	}

	call := cur.NewCall(fn, args...)
	Annotate(e, call)
	return call, cur, nil
}

func (g *Generator) genConstructorCall(ctx *Context, cur *ir.Block, e *ast.Expression, values map[string]value.Value) (value.Value, *ir.Block, error) {
	rec, ok := typerecord.Of(e)
	if !ok {
		return nil, nil, fmt.Errorf("codegen: ConstructorCall has no TypeAnnotation")
	}
	structType, err := ensureType(ctx, rec)
	if err != nil {
		return nil, nil, err
	}

	ptr := cur.NewAlloca(structType)
	for i, argExpr := range e.CtorCall.Args {
		v, next, err := g.genValue(ctx, cur, argExpr, values)
		if err != nil {
			return nil, nil, err
		}
		cur = next
		fieldPtr := cur.NewGetElementPtr(structType, ptr,
			constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(i)))
		cur.NewStore(v, fieldPtr)
	}

	loaded := cur.NewLoad(structType, ptr)
	Annotate(e, loaded)
	return loaded, cur, nil
}

// genList emits a stack-allocated array and decays it to a pointer to
// its first element (spec §9's Open Question on unsized list types:
// treated here, as in resolve, as `[element]` with no static size
// carried beyond the literal's own element count).
func (g *Generator) genList(ctx *Context, cur *ir.Block, e *ast.Expression, values map[string]value.Value) (value.Value, *ir.Block, error) {
	rec, ok := typerecord.Of(e)
	if !ok {
		return nil, nil, fmt.Errorf("codegen: List literal has no TypeAnnotation")
	}
	elemRec := typerecord.ListBase
	if len(rec.TypeParameters) == 1 {
		elemRec = rec.TypeParameters[0]
	}
	elemType, err := ensureType(ctx, elemRec)
	if err != nil {
		return nil, nil, err
	}

	arrType := types.NewArray(uint64(len(e.List.Elements)), elemType)
	ptr := cur.NewAlloca(arrType)
	for i, el := range e.List.Elements {
		v, next, err := g.genValue(ctx, cur, el, values)
		if err != nil {
			return nil, nil, err
		}
		cur = next
		slot := cur.NewGetElementPtr(arrType, ptr,
			constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(i)))
		cur.NewStore(v, slot)
	}
	decayed := cur.NewGetElementPtr(arrType, ptr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	Annotate(e, decayed)
	return decayed, cur, nil
}

// ensureType lowers a TypeRecord to an LLVM type, memoised by
// FullName on ctx so repeated references share one definition.
func ensureType(ctx *Context, rec *typerecord.Record) (types.Type, error) {
	if t, ok := ctx.Types[rec.FullName]; ok {
		return t, nil
	}

	var t types.Type
	switch {
	case typerecord.Equal(rec, typerecord.Unit):
		t = types.Void
	case typerecord.Equal(rec, typerecord.Int):
		t = types.I32
	case typerecord.Equal(rec, typerecord.Real):
		t = types.Float
	case typerecord.Equal(rec, typerecord.Str):
		t = types.NewPointer(types.I8)
	case rec.Variant == typerecord.VariantCompoundType:
		members := make([]types.Type, len(rec.MemberTypes))
		for i, m := range rec.MemberTypes {
			mt, err := ensureType(ctx, m)
			if err != nil {
				return nil, err
			}
			members[i] = mt
		}
		st := types.NewStruct(members...)
		st.SetName(LegalName(rec.FullName))
		ctx.Module.TypeDefs = append(ctx.Module.TypeDefs, st)
		t = st
	case rec.Variant == typerecord.VariantGenericType && typerecord.Equal(rec.BaseType, typerecord.ListBase):
		var elem types.Type = types.I8
		if len(rec.TypeParameters) == 1 {
			e, err := ensureType(ctx, rec.TypeParameters[0])
			if err != nil {
				return nil, err
			}
			elem = e
		}
		t = types.NewPointer(elem)
	case rec.Variant == typerecord.VariantType:
		st := types.NewStruct()
		st.SetName(LegalName(rec.FullName))
		ctx.Module.TypeDefs = append(ctx.Module.TypeDefs, st)
		t = st
	default:
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.GEN001,
			fmt.Sprintf("no IR type for %s", rec.FullName),
			nil,
			map[string]any{"type": rec.FullName},
		))
	}

	ctx.Types[rec.FullName] = t
	return t, nil
}

// ensureFunc lowers a Signature/Method TypeRecord to an *ir.Func,
// memoised by FullName. Declaring it twice (once on import, once on
// local use) is a no-op the second time.
func ensureFunc(ctx *Context, rec *typerecord.Record) (*ir.Func, error) {
	if f, ok := ctx.Funcs[rec.FullName]; ok {
		return f, nil
	}

	retType, err := ensureType(ctx, rec.Return)
	if err != nil {
		return nil, err
	}
	recvType, err := ensureType(ctx, rec.Receiver)
	if err != nil {
		return nil, err
	}

	params := []*ir.Param{ir.NewParam("self", recvType)}
	for i, a := range rec.Args {
		at, err := ensureType(ctx, a)
		if err != nil {
			return nil, err
		}
		params = append(params, ir.NewParam(fmt.Sprintf("arg%d", i), at))
	}

	f := ctx.Module.NewFunc(LegalName(rec.FullName), retType, params...)
	ctx.Funcs[rec.FullName] = f
	ctx.Records[rec.FullName] = rec
	return f, nil
}
