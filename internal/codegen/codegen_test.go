package codegen

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlang/orbit-backend/internal/apimap"
	"github.com/orbitlang/orbit-backend/internal/ast"
	"github.com/orbitlang/orbit-backend/internal/scope"
	"github.com/orbitlang/orbit-backend/internal/session"
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

func typeIdent(name string) *ast.Expression {
	return &ast.Expression{Kind: ast.KindTypeIdentifier, TypeID: &ast.TypeIdentifierRef{Name: name}}
}

func ident(name string) *ast.Expression {
	return &ast.Expression{Kind: ast.KindIdentifier, Identifier: &ast.IdentifierRef{Name: name}}
}

func annotationNode(name string, params ...*ast.Expression) *ast.Expression {
	return &ast.Expression{Kind: ast.KindAnnotation, Annot: &ast.AnnotationExpr{Name: name, Params: params}}
}

func intLit(v int64) *ast.Expression {
	e := &ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: v}}
	typerecord.Annotate(e, typerecord.Int)
	return e
}

// entryMethodNode builds a Method node whose shape mirrors what resolve
// leaves behind: a Signature TypeAnnotation, a TypeAnnotation on the
// method itself, and an OperatorFunction MetaData on the binary node
// matching codegen's own Add extension output.
func entryMethodNode(t *testing.T, shortName string, opFullName string) *ast.Expression {
	t.Helper()
	binary := &ast.Expression{
		Kind: ast.KindBinary,
		Binary: &ast.BinaryExpr{
			Op:    "+",
			Left:  intLit(1),
			Right: intLit(2),
		},
	}
	typerecord.AnnotateMetaData(binary, "OperatorFunction", &typerecord.Record{
		Variant:   typerecord.VariantSignature,
		ShortName: opFullName,
		FullName:  opFullName,
		Receiver:  typerecord.Int,
		Args:      []*typerecord.Record{typerecord.Int},
		Return:    typerecord.Int,
	})

	body := &ast.Expression{
		Kind: ast.KindBlock,
		Block: &ast.BlockExpr{
			Return: &ast.Expression{Kind: ast.KindReturn, Return: &ast.ReturnExpr{Value: binary}},
		},
	}

	sigExpr := &ast.Expression{
		Kind:      ast.KindSignature,
		Signature: &ast.SignatureExpr{Receiver: typeIdent("Unit"), Name: shortName, Return: typeIdent("Int")},
	}
	sigRec := typerecord.NewSignature(shortName, typerecord.Unit, nil, typerecord.Int)
	typerecord.Annotate(sigExpr, sigRec)

	m := &ast.Expression{Kind: ast.KindMethod, Method: &ast.MethodExpr{Signature: sigExpr, Body: body}}
	typerecord.Annotate(m, typerecord.NewMethod(sigRec))
	return m
}

func newCodegenAPI(t *testing.T, body ...*ast.Expression) *ast.Expression {
	t.Helper()
	api := &ast.Expression{Kind: ast.KindAPI, API: &ast.APIExpr{Name: "Math", Body: body}}
	scope.Annotate(api, scope.NewGlobal())
	return api
}

func TestGenerateAddExtensionInstallsNativeFunction(t *testing.T) {
	opName := typerecord.OperatorMethodName("+", typerecord.Int, typerecord.Int)
	addAnnot := annotationNode("Add", typeIdent("Int"), typeIdent("Int"))
	m := entryMethodNode(t, "sum", opName)
	api := newCodegenAPI(t, addAnnot, m)

	g := New(session.New(nil, ""))
	modules, err := g.Run([]*ast.Expression{api}, []*apimap.APIMap{apimap.New("Math")})
	require.NoError(t, err)

	mod, ok := modules["Math"]
	require.True(t, ok)

	var found bool
	for _, fn := range mod.Funcs {
		if fn.Name() == LegalName(opName) {
			found = true
		}
	}
	assert.True(t, found, "Add extension must install a native function for the operator dispatch name")
}

func TestEntryPointRenamesTargetFunction(t *testing.T) {
	opName := typerecord.OperatorMethodName("+", typerecord.Int, typerecord.Int)
	addAnnot := annotationNode("Add", typeIdent("Int"), typeIdent("Int"))
	entryAnnot := annotationNode("EntryPoint", ident("run"))
	m := entryMethodNode(t, "run", opName)
	api := newCodegenAPI(t, addAnnot, entryAnnot, m)

	g := New(session.New(nil, ""))
	modules, err := g.Run([]*ast.Expression{api}, []*apimap.APIMap{apimap.New("Math")})
	require.NoError(t, err)

	mod := modules["Math"]
	var foundMain bool
	for _, fn := range mod.Funcs {
		if fn.Name() == "main" {
			foundMain = true
		}
	}
	assert.True(t, foundMain, "EntryPoint must rename its target method's function to main")
}

func TestEntryPointMissingTargetFails(t *testing.T) {
	opName := typerecord.OperatorMethodName("+", typerecord.Int, typerecord.Int)
	addAnnot := annotationNode("Add", typeIdent("Int"), typeIdent("Int"))
	entryAnnot := annotationNode("EntryPoint", ident("nonexistent"))
	m := entryMethodNode(t, "run", opName)
	api := newCodegenAPI(t, addAnnot, entryAnnot, m)

	g := New(session.New(nil, ""))
	_, err := g.Run([]*ast.Expression{api}, []*apimap.APIMap{apimap.New("Math")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEN004")
}

func TestEnsureTypeMemoizesByFullName(t *testing.T) {
	ctx := &Context{
		Module: ir.NewModule(),
		Types:  make(map[string]types.Type),
	}
	rec := typerecord.NewType("Point", "Geo.Point")

	first, err := ensureType(ctx, rec)
	require.NoError(t, err)
	second, err := ensureType(ctx, rec)
	require.NoError(t, err)

	assert.Same(t, first, second, "repeated ensureType calls for the same FullName must share one definition")
	assert.Len(t, ctx.Module.TypeDefs, 1)
}

func TestEnsureTypeBootstrapsMapToPrimitives(t *testing.T) {
	ctx := &Context{Module: ir.NewModule(), Types: make(map[string]types.Type)}

	// Unaliased defaults are Int = 32 bits, Real = 32-bit float (spec
	// §4.5); IntegerAlias/FloatAlias override these per type.
	intType, err := ensureType(ctx, typerecord.Int)
	require.NoError(t, err)
	assert.Equal(t, types.I32, intType)

	realType, err := ensureType(ctx, typerecord.Real)
	require.NoError(t, err)
	assert.Equal(t, types.Float, realType)
}

func TestEnsureFuncMemoizesByFullName(t *testing.T) {
	ctx := &Context{
		Module:  ir.NewModule(),
		Types:   make(map[string]types.Type),
		Funcs:   make(map[string]*ir.Func),
		Records: make(map[string]*typerecord.Record),
	}
	sig := typerecord.NewSignature("norm", typerecord.Unit, nil, typerecord.Int)

	first, err := ensureFunc(ctx, sig)
	require.NoError(t, err)
	second, err := ensureFunc(ctx, sig)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, ctx.Module.Funcs, 1)
}
