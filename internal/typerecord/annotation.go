package typerecord

import "github.com/orbitlang/orbit-backend/internal/ast"

// AnnotationName is the well-known key under which TypeResolver
// attaches a TypeAnnotation to a resolved expression (spec §3/§4.3).
const AnnotationName = "Type"

// Annotate attaches t to e as a TypeAnnotation.
func Annotate(e *ast.Expression, t *Record) {
	e.Annotate(AnnotationName, ast.Annotation{Kind: ast.AnnotationType, Value: t})
}

// Of retrieves the TypeAnnotation attached to e, if any.
func Of(e *ast.Expression) (*Record, bool) {
	a, ok := e.Lookup(AnnotationName)
	if !ok || a.Kind != ast.AnnotationType {
		return nil, false
	}
	r, ok := a.Value.(*Record)
	return r, ok
}

// MetaDataOf retrieves the MetaData annotation named key, if any.
func MetaDataOf(e *ast.Expression, key string) (interface{}, bool) {
	a, ok := e.Lookup("MetaData")
	if !ok || a.Kind != ast.AnnotationMetaData {
		return nil, false
	}
	md, ok := a.Value.(ast.MetaData)
	if !ok {
		return nil, false
	}
	v, ok := md[key]
	return v, ok
}

// AnnotateMetaData merges key -> value into e's MetaData annotation,
// creating it if absent.
func AnnotateMetaData(e *ast.Expression, key string, value interface{}) {
	var md ast.MetaData
	if a, ok := e.Lookup("MetaData"); ok && a.Kind == ast.AnnotationMetaData {
		if existing, ok := a.Value.(ast.MetaData); ok {
			md = existing
		}
	}
	if md == nil {
		md = make(ast.MetaData)
	}
	md[key] = value
	e.Annotate("MetaData", ast.Annotation{Kind: ast.AnnotationMetaData, Value: md})
}
