package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/orbitlang/orbit-backend/internal/annotation"
	"github.com/orbitlang/orbit-backend/internal/ast"
	orbiterrors "github.com/orbitlang/orbit-backend/internal/errors"
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// entryPointExtension is the built-in `EntryPoint(Identifier)`
// extension (spec §4.5, §6.3): marks the named method as the API's
// program entry point. It runs before any method is generated, so it
// only records the target name here; declareMethod applies the actual
// rename once that method's function exists, and Run verifies the
// target was found after all methods are processed.
type entryPointExtension struct{}

func (entryPointExtension) Name() string { return "EntryPoint" }

func (entryPointExtension) Run(rawCtx interface{}, host *ast.Expression, call *ast.Expression) (*ast.Expression, error) {
	if err := annotation.CheckArity("EntryPoint", call, 1); err != nil {
		return nil, err
	}
	ctx := rawCtx.(*Context)
	if call.Annot.Params[0].Kind != ast.KindIdentifier {
		return nil, &annotation.ArityError{Extension: "EntryPoint", Expected: 1, Actual: 1}
	}
	ctx.EntryPointName = call.Annot.Params[0].Identifier.Name
	return nil, nil
}

// integerAliasExtension is the built-in `IntegerAlias(TypeIdentifier,
// Int)` extension (spec §4.5, §6.3): maps a declared type directly
// onto an LLVM integer type of the given bit width instead of
// generating an opaque struct for it.
type integerAliasExtension struct{}

func (integerAliasExtension) Name() string { return "IntegerAlias" }

func (integerAliasExtension) Run(rawCtx interface{}, host *ast.Expression, call *ast.Expression) (*ast.Expression, error) {
	if err := annotation.CheckArity("IntegerAlias", call, 2); err != nil {
		return nil, err
	}
	ctx := rawCtx.(*Context)
	target := call.Annot.Params[0]
	width := call.Annot.Params[1]
	if target.Kind != ast.KindTypeIdentifier || width.Kind != ast.KindInt {
		return nil, &annotation.ArityError{Extension: "IntegerAlias", Expected: 2, Actual: 2}
	}

	rec, err := ctx.Scope.FindType(target.TypeID.Name)
	if err != nil {
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.RES001,
			fmt.Sprintf("unknown type: %s", target.TypeID.Name),
			&call.Pos,
			map[string]any{"name": target.TypeID.Name},
		))
	}

	it, err := integerTypeForWidth(width.Int.Value, call.Pos)
	if err != nil {
		return nil, err
	}
	ctx.Types[rec.FullName] = it
	return nil, nil
}

func integerTypeForWidth(width int64, pos ast.Pos) (types.Type, error) {
	switch width {
	case 1:
		return types.I1, nil
	case 8:
		return types.I8, nil
	case 16:
		return types.I16, nil
	case 32:
		return types.I32, nil
	case 64:
		return types.I64, nil
	case 128:
		return types.I128, nil
	default:
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.GEN003,
			fmt.Sprintf("unsupported integer width: %d", width),
			&pos,
			map[string]any{"width": width},
		))
	}
}

// floatAliasExtension is the built-in `FloatAlias(TypeIdentifier,
// Int)` extension (spec §4.5, §6.3): maps a declared type onto an
// LLVM float type of the given bit width (32 or 64).
type floatAliasExtension struct{}

func (floatAliasExtension) Name() string { return "FloatAlias" }

func (floatAliasExtension) Run(rawCtx interface{}, host *ast.Expression, call *ast.Expression) (*ast.Expression, error) {
	if err := annotation.CheckArity("FloatAlias", call, 2); err != nil {
		return nil, err
	}
	ctx := rawCtx.(*Context)
	target := call.Annot.Params[0]
	width := call.Annot.Params[1]
	if target.Kind != ast.KindTypeIdentifier || width.Kind != ast.KindInt {
		return nil, &annotation.ArityError{Extension: "FloatAlias", Expected: 2, Actual: 2}
	}

	rec, err := ctx.Scope.FindType(target.TypeID.Name)
	if err != nil {
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.RES001,
			fmt.Sprintf("unknown type: %s", target.TypeID.Name),
			&call.Pos,
			map[string]any{"name": target.TypeID.Name},
		))
	}

	var ft types.Type
	switch width.Int.Value {
	case 32:
		ft = types.Float
	case 64:
		ft = types.Double
	default:
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.GEN003,
			fmt.Sprintf("unsupported float width: %d", width.Int.Value),
			&call.Pos,
			map[string]any{"width": width.Int.Value},
		))
	}
	ctx.Types[rec.FullName] = ft
	return nil, nil
}

// addExtension is the built-in `Add(TypeIdentifier, TypeIdentifier)`
// extension (spec §4.5, §6.3): wires the `Operator.+.<lhs>.<rhs>`
// dispatch name directly to a native add instruction rather than
// requiring a user-written method body, for primitive numeric types.
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
		return nil, orbiterrors.WrapReport(orbiterrors.New(orbiterrors.RES001, fmt.Sprintf("unknown type: %s", lhsID.TypeID.Name), &call.Pos, nil))
	}
	rhs, err := ctx.Scope.FindType(rhsID.TypeID.Name)
	if err != nil {
		return nil, orbiterrors.WrapReport(orbiterrors.New(orbiterrors.RES001, fmt.Sprintf("unknown type: %s", rhsID.TypeID.Name), &call.Pos, nil))
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

	lhsType, err := ensureType(ctx, lhs)
	if err != nil {
		return nil, err
	}

	fn := ctx.Module.NewFunc(LegalName(opName), lhsType,
		ir.NewParam("self", lhsType), ir.NewParam("arg0", lhsType))
	block := fn.NewBlock("entry")
	block.NewRet(block.NewAdd(fn.Params[0], fn.Params[1]))

	ctx.Funcs[sig.FullName] = fn
	ctx.Records[sig.FullName] = sig
	return nil, nil
}
