// Package typecheck implements P4 TypeChecker (spec §4.4): re-walks
// the annotated tree the resolver produced and verifies every
// TypeAnnotation is present and internally consistent, rather than
// inferring anything new. Modeled on the teacher's
// internal/types.TypeChecker verification passes, generalized from
// Hindley-Milner inference to straight annotation verification; per
// spec §4.4 ("Reports first mismatch as fatal") and §7's propagation
// policy, Check short-circuits on the first failure rather than
// accumulating a multi-error report.
package typecheck

import (
	"fmt"

	"github.com/orbitlang/orbit-backend/internal/ast"
	orbiterrors "github.com/orbitlang/orbit-backend/internal/errors"
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// TraitIndex answers, for a trait's full name, how many concrete types
// adopt it — the input CHK005 needs to reject an ambiguous trait
// return. Supplied by the caller (built once from the whole program's
// TypeDefs, spec §4.4).
type TraitIndex interface {
	Implementors(traitFullName string) int
}

// Checker verifies the tree P3 annotated.
type Checker struct {
	traits TraitIndex
}

// New creates a Checker. traits may be nil if no TraitDefs exist in
// the program (CHK005 is then never triggered).
func New(traits TraitIndex) *Checker {
	return &Checker{traits: traits}
}

// Check verifies every API in orderedAPIs, stopping at and returning
// the first failure (spec §4.4, §7).
func (c *Checker) Check(orderedAPIs []*ast.Expression) error {
	for _, api := range orderedAPIs {
		if err := c.checkAPI(api); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) fail(code, message string, pos ast.Pos, data map[string]any) error {
	return orbiterrors.WrapReport(orbiterrors.New(code, message, &pos, data))
}

func (c *Checker) checkAPI(api *ast.Expression) error {
	for _, child := range api.API.Body {
		switch child.Kind {
		case ast.KindTypeDef:
			if err := c.checkTypeDef(child); err != nil {
				return err
			}
		case ast.KindMethod:
			if err := c.checkMethod(child); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Checker) requireAnnotation(e *ast.Expression) (*typerecord.Record, error) {
	t, ok := typerecord.Of(e)
	if !ok {
		return nil, c.fail(orbiterrors.CHK001, fmt.Sprintf("missing type annotation on %s node", e.Kind), e.Pos, map[string]any{"kind": e.Kind.String()})
	}
	return t, nil
}

func (c *Checker) checkTypeDef(def *ast.Expression) error {
	if _, err := c.requireAnnotation(def); err != nil {
		return err
	}
	for _, prop := range def.TypeDef.Properties {
		if _, err := c.requireAnnotation(prop); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkMethod(method *ast.Expression) error {
	sig := method.Method.Signature
	sigRecord, err := c.requireAnnotation(sig)
	if err != nil {
		return err
	}
	for _, p := range sig.Signature.Params {
		if _, err := c.requireAnnotation(p); err != nil {
			return err
		}
	}

	bodyType, err := c.checkBlock(method.Method.Body)
	if err != nil {
		return err
	}

	declaredReturn := sigRecord.Return
	if declaredReturn == nil {
		declaredReturn = typerecord.Unit
	}
	if !typerecord.Equal(declaredReturn, bodyType) {
		return c.fail(orbiterrors.CHK003,
			fmt.Sprintf("method %s: body returns %s, signature declares %s", sigRecord.FullName, bodyType.FullName, declaredReturn.FullName),
			method.Pos,
			map[string]any{"method": sigRecord.FullName, "declared": declaredReturn.FullName, "actual": bodyType.FullName})
	}

	if c.traits != nil && c.traits.Implementors(declaredReturn.FullName) > 1 {
		return c.fail(orbiterrors.CHK005,
			fmt.Sprintf("method %s: return type %s is a trait with more than one implementor", sigRecord.FullName, declaredReturn.FullName),
			method.Pos,
			map[string]any{"method": sigRecord.FullName, "trait": declaredReturn.FullName})
	}
	return nil
}

func (c *Checker) checkBlock(block *ast.Expression) (*typerecord.Record, error) {
	t, err := c.requireAnnotation(block)
	if err != nil {
		return nil, err
	}
	for _, stmt := range block.Block.Statements {
		if err := c.checkValue(stmt); err != nil {
			return nil, err
		}
	}
	if block.Block.Return != nil {
		if _, err := c.requireAnnotation(block.Block.Return); err != nil {
			return nil, err
		}
		if err := c.checkValue(block.Block.Return.Return.Value); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// checkValue verifies e and, recursively, every subexpression it
// owns, per spec §4.4's node-shaped checks.
func (c *Checker) checkValue(e *ast.Expression) error {
	t, err := c.requireAnnotation(e)
	if err != nil {
		return err
	}

	switch e.Kind {
	case ast.KindList:
		for _, el := range e.List.Elements {
			if err := c.checkValue(el); err != nil {
				return err
			}
		}

	case ast.KindUnary:
		if err := c.checkValue(e.Unary.Value); err != nil {
			return err
		}
		if err := c.checkOperatorMetaData(e); err != nil {
			return err
		}

	case ast.KindBinary:
		if err := c.checkValue(e.Binary.Left); err != nil {
			return err
		}
		if err := c.checkValue(e.Binary.Right); err != nil {
			return err
		}
		if err := c.checkOperatorMetaData(e); err != nil {
			return err
		}

	case ast.KindStaticCall:
		if err := c.checkValue(e.StaticCall.ReceiverType); err != nil {
			return err
		}
		for _, a := range e.StaticCall.Args {
			if err := c.checkValue(a); err != nil {
				return err
			}
		}

	case ast.KindInstanceCall:
		if err := c.checkValue(e.InstCall.Receiver); err != nil {
			return err
		}
		for _, a := range e.InstCall.Args {
			if err := c.checkValue(a); err != nil {
				return err
			}
		}

	case ast.KindConstructorCall:
		if err := c.checkValue(e.CtorCall.Type); err != nil {
			return err
		}
		for _, a := range e.CtorCall.Args {
			if err := c.checkValue(a); err != nil {
				return err
			}
		}
		if ctorType, ok := typerecord.Of(e.CtorCall.Type); ok && ctorType.Variant == typerecord.VariantCompoundType {
			if len(e.CtorCall.Args) != len(ctorType.MemberTypes) {
				return c.fail(orbiterrors.CHK002,
					fmt.Sprintf("constructor %s: %d args, %d properties", ctorType.FullName, len(e.CtorCall.Args), len(ctorType.MemberTypes)),
					e.Pos,
					map[string]any{"type": ctorType.FullName})
			}
			for i, member := range ctorType.MemberTypes {
				argType, ok := typerecord.Of(e.CtorCall.Args[i])
				if ok && !typerecord.Equal(member, argType) {
					return c.fail(orbiterrors.CHK002,
						fmt.Sprintf("constructor %s arg %d: expected %s, got %s", ctorType.FullName, i, member.FullName, argType.FullName),
						e.CtorCall.Args[i].Pos,
						map[string]any{"type": ctorType.FullName, "index": i})
				}
			}
		}

	case ast.KindAssignment:
		if err := c.checkValue(e.Assignment.Value); err != nil {
			return err
		}
		rhsType, ok := typerecord.Of(e.Assignment.Value)
		if ok && !typerecord.Equal(t, rhsType) {
			return c.fail(orbiterrors.CHK002,
				fmt.Sprintf("assignment %s: declared %s, value resolved to %s", e.Assignment.Name, t.FullName, rhsType.FullName),
				e.Pos,
				map[string]any{"name": e.Assignment.Name, "declared": t.FullName, "actual": rhsType.FullName})
		}

	case ast.KindBlock:
		if _, err := c.checkBlock(e); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkOperatorMetaData(e *ast.Expression) error {
	md, ok := typerecord.MetaDataOf(e, "OperatorFunction")
	if !ok {
		return c.fail(orbiterrors.CHK004, "operator node missing OperatorFunction metadata", e.Pos, nil)
	}
	method, ok := md.(*typerecord.Record)
	if !ok || (method.Variant != typerecord.VariantMethod && method.Variant != typerecord.VariantSignature) {
		return c.fail(orbiterrors.CHK004, "operator node's OperatorFunction metadata is not a method record", e.Pos, nil)
	}
	return nil
}
