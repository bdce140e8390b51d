package codegen

import (
	"github.com/llir/llvm/ir/value"

	"github.com/orbitlang/orbit-backend/internal/ast"
)

// AnnotationName is the well-known key under which LLVMGen attaches
// the IR value it generated for an expression (spec §3's IRValue
// annotation). genValue records it but does not consult it before
// lowering a node.
const AnnotationName = "IRValue"

// Annotate attaches v to e as an IRValueAnnotation.
func Annotate(e *ast.Expression, v value.Value) {
	e.Annotate(AnnotationName, ast.Annotation{Kind: ast.AnnotationIRValue, Value: v})
}

// Of retrieves the IR value attached to e, if any.
func Of(e *ast.Expression) (value.Value, bool) {
	a, ok := e.Lookup(AnnotationName)
	if !ok || a.Kind != ast.AnnotationIRValue {
		return nil, false
	}
	v, ok := a.Value.(value.Value)
	return v, ok
}
