package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlang/orbit-backend/internal/apimap"
	"github.com/orbitlang/orbit-backend/internal/ast"
	"github.com/orbitlang/orbit-backend/internal/resolver"
	"github.com/orbitlang/orbit-backend/internal/session"
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// fakeResolver serves precompiled APIMaps from an in-memory map,
// standing in for the external file finder (spec §6.2).
type fakeResolver struct {
	precompiled map[string][]byte
}

func (f *fakeResolver) Find(name string) (resolver.Located, error) {
	if _, ok := f.precompiled[name]; ok {
		return resolver.Located{Path: name, Format: resolver.FormatPrecompiled}, nil
	}
	return resolver.Located{}, assert.AnError
}

func (f *fakeResolver) ReadPrecompiled(path string) ([]byte, error) {
	return f.precompiled[path], nil
}

func (f *fakeResolver) ParseSource(path string) (*ast.Expression, error) {
	return nil, assert.AnError
}

func typeIdent(name string) *ast.Expression {
	return &ast.Expression{Kind: ast.KindTypeIdentifier, TypeID: &ast.TypeIdentifierRef{Name: name}}
}

func pair(name, typeName string) *ast.Expression {
	return &ast.Expression{Kind: ast.KindPair, Pair: &ast.PairExpr{Name: name, Type: typeIdent(typeName)}}
}

func typeDef(name string, props ...*ast.Expression) *ast.Expression {
	return &ast.Expression{Kind: ast.KindTypeDef, TypeDef: &ast.TypeDefExpr{Name: name, Properties: props}}
}

func method(receiver, name string, params []*ast.Expression, ret string) *ast.Expression {
	sig := &ast.Expression{
		Kind: ast.KindSignature,
		Signature: &ast.SignatureExpr{
			Receiver: typeIdent(receiver),
			Name:     name,
			Params:   params,
		},
	}
	if ret != "" {
		sig.Signature.Return = typeIdent(ret)
	}
	return &ast.Expression{
		Kind:   ast.KindMethod,
		Method: &ast.MethodExpr{Signature: sig, Body: &ast.Expression{Kind: ast.KindBlock, Block: &ast.BlockExpr{}}},
	}
}

func apiOf(name string, with []string, body ...*ast.Expression) *ast.Expression {
	return &ast.Expression{Kind: ast.KindAPI, API: &ast.APIExpr{Name: name, With: with, Body: body}}
}

func TestExtractOneTypeAndMethod(t *testing.T) {
	sess := session.New(nil, "")
	e := New(sess, &fakeResolver{}, nil)

	api := apiOf("Geo", nil,
		typeDef("Scalar"),
		typeDef("Point", pair("x", "Scalar"), pair("y", "Scalar")),
		method("Point", "norm", nil, "Scalar"),
	)

	maps, err := e.Run([]*ast.Expression{api})
	require.NoError(t, err)
	require.Len(t, maps, 1)

	m := maps[0]
	require.Len(t, m.ExportedTypes(), 2)
	got, ok := m.FindType("Point")
	require.True(t, ok)
	assert.Equal(t, "Geo.Point", got.FullName)
	require.Len(t, m.ExportedMethods(), 1)
	assert.Equal(t, "norm", m.ExportedMethods()[0].ShortName)
}

func TestExtractDuplicateTypeFails(t *testing.T) {
	sess := session.New(nil, "")
	e := New(sess, &fakeResolver{}, nil)

	api := apiOf("Geo", nil, typeDef("Point"), typeDef("Point"))
	_, err := e.Run([]*ast.Expression{api})
	assert.Error(t, err)
}

func TestExtractResolvesPrecompiledImport(t *testing.T) {
	geoMap := apimap.New("Geo")
	geoMap.ExportType(typerecord.NewType("Point", "Geo.Point"))
	data, err := geoMap.ToJSON()
	require.NoError(t, err)

	sess := session.New(nil, "")
	e := New(sess, &fakeResolver{precompiled: map[string][]byte{"Geo": data}}, nil)

	api := apiOf("App", []string{"Geo"})
	maps, err := e.Run([]*ast.Expression{api})
	require.NoError(t, err)

	appMap := maps[0]
	got, ok := appMap.FindType("Geo.Point")
	require.True(t, ok)
	assert.True(t, appMap.IsImported(got.FullName))
}

func TestInsertTypeExtension(t *testing.T) {
	sess := session.New(nil, "")
	e := New(sess, &fakeResolver{}, nil)

	annot := &ast.Expression{
		Kind: ast.KindAnnotation,
		Annot: &ast.AnnotationExpr{
			Name:   "InsertType",
			Params: []*ast.Expression{{Kind: ast.KindIdentifier, Identifier: &ast.IdentifierRef{Name: "Synthetic"}}},
		},
	}
	api := apiOf("Geo", nil, annot)

	maps, err := e.Run([]*ast.Expression{api})
	require.NoError(t, err)

	_, ok := maps[0].FindType("Synthetic")
	assert.True(t, ok)
}
