package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlang/orbit-backend/internal/ast"
	"github.com/orbitlang/orbit-backend/internal/resolver"
	"github.com/orbitlang/orbit-backend/internal/session"
)

// noopResolver reports every import as undefined, standing in for the
// external file finder: both fixtures below only import APIs present
// in the same root, so Find is never called in a passing run.
type noopResolver struct{}

func (noopResolver) Find(name string) (resolver.Located, error) {
	return resolver.Located{}, assert.AnError
}
func (noopResolver) ReadPrecompiled(path string) ([]byte, error) { return nil, assert.AnError }
func (noopResolver) ParseSource(path string) (*ast.Expression, error) {
	return nil, assert.AnError
}

func typeIdentP(name string) *ast.Expression {
	return &ast.Expression{Kind: ast.KindTypeIdentifier, TypeID: &ast.TypeIdentifierRef{Name: name}}
}

func pairP(name, typeName string) *ast.Expression {
	return &ast.Expression{Kind: ast.KindPair, Pair: &ast.PairExpr{Name: name, Type: typeIdentP(typeName)}}
}

func typeDefP(name string, props ...*ast.Expression) *ast.Expression {
	return &ast.Expression{Kind: ast.KindTypeDef, TypeDef: &ast.TypeDefExpr{Name: name, Properties: props}}
}

func blockReturningP(value *ast.Expression) *ast.Expression {
	return &ast.Expression{
		Kind: ast.KindBlock,
		Block: &ast.BlockExpr{
			Return: &ast.Expression{Kind: ast.KindReturn, Return: &ast.ReturnExpr{Value: value}},
		},
	}
}

func methodP(receiver, name string, params []*ast.Expression, ret string, body *ast.Expression) *ast.Expression {
	sig := &ast.Expression{
		Kind: ast.KindSignature,
		Signature: &ast.SignatureExpr{
			Receiver: typeIdentP(receiver),
			Name:     name,
			Params:   params,
		},
	}
	if ret != "" {
		sig.Signature.Return = typeIdentP(ret)
	}
	return &ast.Expression{Kind: ast.KindMethod, Method: &ast.MethodExpr{Signature: sig, Body: body}}
}

func apiP(name string, with []string, body ...*ast.Expression) *ast.Expression {
	return &ast.Expression{Kind: ast.KindAPI, API: &ast.APIExpr{Name: name, With: with, Body: body}}
}

func rootP(apis ...*ast.Expression) *ast.Expression {
	return &ast.Expression{
		Kind: ast.KindRoot,
		Root: &ast.RootExpr{Body: []*ast.Expression{
			{Kind: ast.KindProgram, Program: &ast.ProgramExpr{APIs: apis}},
		}},
	}
}

func TestPipelineCompilesTwoAPIsWithImport(t *testing.T) {
	geo := apiP("Geo", nil,
		typeDefP("Scalar"),
		typeDefP("Point", pairP("x", "Scalar"), pairP("y", "Scalar")),
	)
	app := apiP("App", []string{"Geo"},
		methodP("Unit", "identity", []*ast.Expression{pairP("n", "Int")}, "Int", blockReturningP(
			&ast.Expression{Kind: ast.KindIdentifier, Identifier: &ast.IdentifierRef{Name: "n"}},
		)),
	)
	root := rootP(app, geo)

	p := New(noopResolver{})
	sess := session.New(nil, "")

	result, err := p.Compile(sess, root)
	require.NoError(t, err)

	gotNames := make([]string, len(result.OrderedAPIs))
	for i, a := range result.OrderedAPIs {
		gotNames[i] = a.API.Name
	}
	assert.Equal(t, []string{"Geo", "App"}, gotNames, "Geo must be ordered before App since App imports it")

	require.Len(t, result.APIMaps, 2)
	appMap := result.APIMaps[1]
	got, ok := appMap.FindType("Geo.Point")
	require.True(t, ok)
	assert.True(t, appMap.IsImported(got.FullName))

	require.Contains(t, result.Modules, "Geo")
	require.Contains(t, result.Modules, "App")
}

func TestPipelineFailsOnTypeCheckMismatch(t *testing.T) {
	badMethod := methodP("Unit", "wrong", nil, "Int", blockReturningP(
		&ast.Expression{Kind: ast.KindReal, Real: &ast.RealLit{Value: 1.5}},
	))
	app := apiP("App", nil, badMethod)
	root := rootP(app)

	p := New(noopResolver{})
	sess := session.New(nil, "")

	_, err := p.Compile(sess, root)
	assert.Error(t, err)
}
