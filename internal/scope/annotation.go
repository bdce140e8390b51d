package scope

import "github.com/orbitlang/orbit-backend/internal/ast"

// AnnotationName is the well-known key under which TypeResolver (and
// LLVMGen, which reuses resolved scopes) attaches a ScopeAnnotation.
const AnnotationName = "Scope"

// Annotate attaches s to e as a ScopeAnnotation.
func Annotate(e *ast.Expression, s *Scope) {
	e.Annotate(AnnotationName, ast.Annotation{Kind: ast.AnnotationScope, Value: s})
}

// Of retrieves the Scope annotation attached to e, if any.
func Of(e *ast.Expression) (*Scope, bool) {
	a, ok := e.Lookup(AnnotationName)
	if !ok || a.Kind != ast.AnnotationScope {
		return nil, false
	}
	s, ok := a.Value.(*Scope)
	return s, ok
}
