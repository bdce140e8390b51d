package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlang/orbit-backend/internal/ast"
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// fakeTraits is a TraitIndex test double with counts set explicitly per
// test, standing in for a real whole-program trait scan.
type fakeTraits map[string]int

func (f fakeTraits) Implementors(traitFullName string) int { return f[traitFullName] }

func annotated(e *ast.Expression, t *typerecord.Record) *ast.Expression {
	typerecord.Annotate(e, t)
	return e
}

func signatureNode(name string, recv *typerecord.Record, args []*typerecord.Record, ret *typerecord.Record) *ast.Expression {
	sigExpr := &ast.Expression{
		Kind:      ast.KindSignature,
		Signature: &ast.SignatureExpr{Name: name},
	}
	rec := typerecord.NewSignature(name, recv, args, ret)
	typerecord.Annotate(sigExpr, rec)
	return sigExpr
}

func blockOf(retType *typerecord.Record, retValue *ast.Expression, stmts ...*ast.Expression) *ast.Expression {
	block := &ast.Expression{Kind: ast.KindBlock, Block: &ast.BlockExpr{Statements: stmts}}
	if retValue != nil {
		retExpr := annotated(&ast.Expression{Kind: ast.KindReturn, Return: &ast.ReturnExpr{Value: retValue}}, retType)
		block.Block.Return = retExpr
	}
	typerecord.Annotate(block, retType)
	return block
}

func methodNode(sig *ast.Expression, body *ast.Expression) *ast.Expression {
	return &ast.Expression{Kind: ast.KindMethod, Method: &ast.MethodExpr{Signature: sig, Body: body}}
}

func apiNode(body ...*ast.Expression) *ast.Expression {
	return &ast.Expression{Kind: ast.KindAPI, API: &ast.APIExpr{Body: body}}
}

func TestCheckPassesWhenAnnotationsAndReturnTypeAgree(t *testing.T) {
	intLit := annotated(&ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 1}}, typerecord.Int)
	sig := signatureNode("one", typerecord.Unit, nil, typerecord.Int)
	body := blockOf(typerecord.Int, intLit)
	m := methodNode(sig, body)
	api := apiNode(m)

	c := New(nil)
	err := c.Check([]*ast.Expression{api})
	assert.NoError(t, err)
}

func TestCheckFailsOnMissingAnnotation(t *testing.T) {
	intLit := &ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 1}} // never annotated
	sig := signatureNode("one", typerecord.Unit, nil, typerecord.Int)
	body := blockOf(typerecord.Int, intLit)
	m := methodNode(sig, body)
	api := apiNode(m)

	c := New(nil)
	err := c.Check([]*ast.Expression{api})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHK001")
}

func TestCheckStopsAtFirstFailure(t *testing.T) {
	// First method fails CHK001 (missing annotation); second method
	// would independently fail CHK003. Per spec §4.4/§7, Check must
	// report only the first mismatch and never reach the second.
	missing := &ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 1}} // never annotated
	sig1 := signatureNode("one", typerecord.Unit, nil, typerecord.Int)
	body1 := blockOf(typerecord.Int, missing)
	m1 := methodNode(sig1, body1)

	mismatched := annotated(&ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 2}}, typerecord.Int)
	sig2 := signatureNode("two", typerecord.Unit, nil, typerecord.Real)
	body2 := blockOf(typerecord.Int, mismatched)
	m2 := methodNode(sig2, body2)

	api := apiNode(m1, m2)

	c := New(nil)
	err := c.Check([]*ast.Expression{api})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHK001")
	assert.NotContains(t, err.Error(), "CHK003")
}

func TestCheckFailsOnReturnTypeMismatch(t *testing.T) {
	intLit := annotated(&ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 1}}, typerecord.Int)
	sig := signatureNode("one", typerecord.Unit, nil, typerecord.Real)
	body := blockOf(typerecord.Int, intLit)
	m := methodNode(sig, body)
	api := apiNode(m)

	c := New(nil)
	err := c.Check([]*ast.Expression{api})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHK003")
}

func TestCheckFailsOnAmbiguousTraitReturn(t *testing.T) {
	traitType := typerecord.NewType("Shape", "Geo.Shape")
	intLit := annotated(&ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 1}}, traitType)
	sig := signatureNode("area", typerecord.Unit, nil, traitType)
	body := blockOf(traitType, intLit)
	m := methodNode(sig, body)
	api := apiNode(m)

	c := New(fakeTraits{"Geo.Shape": 2})
	err := c.Check([]*ast.Expression{api})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHK005")
}

func TestCheckConstructorArityMismatch(t *testing.T) {
	pointType := typerecord.NewCompoundType("Point", "Geo.Point", []*typerecord.Record{typerecord.Real, typerecord.Real})
	ctor := annotated(&ast.Expression{
		Kind: ast.KindConstructorCall,
		CtorCall: &ast.ConstructorCallExpr{
			Type: annotated(&ast.Expression{Kind: ast.KindTypeIdentifier, TypeID: &ast.TypeIdentifierRef{Name: "Point"}}, pointType),
			Args: []*ast.Expression{annotated(&ast.Expression{Kind: ast.KindReal, Real: &ast.RealLit{Value: 1}}, typerecord.Real)},
		},
	}, pointType)

	sig := signatureNode("make", typerecord.Unit, nil, pointType)
	body := blockOf(pointType, ctor)
	m := methodNode(sig, body)
	api := apiNode(m)

	c := New(nil)
	err := c.Check([]*ast.Expression{api})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHK002")
}

func TestCheckOperatorMissingMetaDataFails(t *testing.T) {
	binary := annotated(&ast.Expression{
		Kind: ast.KindBinary,
		Binary: &ast.BinaryExpr{
			Op:    "+",
			Left:  annotated(&ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 1}}, typerecord.Int),
			Right: annotated(&ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 2}}, typerecord.Int),
		},
	}, typerecord.Int) // no OperatorFunction metadata attached

	sig := signatureNode("sum", typerecord.Unit, nil, typerecord.Int)
	body := blockOf(typerecord.Int, binary)
	m := methodNode(sig, body)
	api := apiNode(m)

	c := New(nil)
	err := c.Check([]*ast.Expression{api})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHK004")
}

func TestCheckOperatorWithMetaDataPasses(t *testing.T) {
	opRec := typerecord.NewSignature("+", typerecord.Int, []*typerecord.Record{typerecord.Int}, typerecord.Int)
	binary := &ast.Expression{
		Kind: ast.KindBinary,
		Binary: &ast.BinaryExpr{
			Op:    "+",
			Left:  annotated(&ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 1}}, typerecord.Int),
			Right: annotated(&ast.Expression{Kind: ast.KindInt, Int: &ast.IntLit{Value: 2}}, typerecord.Int),
		},
	}
	typerecord.Annotate(binary, typerecord.Int)
	typerecord.AnnotateMetaData(binary, "OperatorFunction", opRec)

	sig := signatureNode("sum", typerecord.Unit, nil, typerecord.Int)
	body := blockOf(typerecord.Int, binary)
	m := methodNode(sig, body)
	api := apiNode(m)

	c := New(nil)
	err := c.Check([]*ast.Expression{api})
	assert.NoError(t, err)
}
