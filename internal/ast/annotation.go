package ast

// Annotation is an immutable record attached to an expression by
// identifier (spec §3). The core carries five variants; exactly one
// field of Annotation is meaningful, selected by AnnotationKind.
type AnnotationKind int

const (
	AnnotationType AnnotationKind = iota
	AnnotationScope
	AnnotationMetaData
	AnnotationPhase
	AnnotationIRValue
)

// Annotation wraps one of the five annotation payloads. Concrete
// payload types live in the packages that own them (typerecord.Record
// for TypeAnnotation, scope.Scope for ScopeAnnotation, ...); ast stays
// free of cross-package type dependencies by carrying them as
// interface{} and exposing typed accessors is the job of the owning
// package's helpers (see typerecord.AnnotationOf, scope.AnnotationOf).
type Annotation struct {
	Kind  AnnotationKind
	Value interface{}
}

// MetaData is the payload for AnnotationMetaData: a small key->value
// map used for facts like "OperatorFunction" and "ExpandedMethodName"
// (spec §4.3).
type MetaData map[string]interface{}

// RewriteChild replaces, in one of a composite node's child slots, the
// child whose ID matches oldChild's with a replacement node.
// This is the single parent-local mutation operation described in
// spec §5; it is not re-entrant, and callers must have finished all
// annotation work on oldChild before calling it.
//
// RewriteChild only knows how to rewrite slots that hold []*Expression
// or *Expression fields reachable from the Kind-specific payload of
// parent. It returns false if oldChild's ID was not found among
// parent's children.
func RewriteChild(parent *Expression, oldChild *Expression, newChild *Expression) bool {
	replaceSlice := func(slice []*Expression) bool {
		for i, c := range slice {
			if c != nil && c.ID == oldChild.ID {
				slice[i] = newChild
				return true
			}
		}
		return false
	}
	replaceSingle := func(slot **Expression) bool {
		if *slot != nil && (*slot).ID == oldChild.ID {
			*slot = newChild
			return true
		}
		return false
	}

	switch parent.Kind {
	case KindAPI:
		return replaceSlice(parent.API.Body)
	case KindProgram:
		return replaceSlice(parent.Program.APIs)
	case KindRoot:
		return replaceSlice(parent.Root.Body)
	case KindBlock:
		if replaceSlice(parent.Block.Statements) {
			return true
		}
		return replaceSingle(&parent.Block.Return)
	case KindTypeDef:
		if replaceSlice(parent.TypeDef.Properties) {
			return true
		}
		return replaceSlice(parent.TypeDef.ConstructorSigs)
	case KindTraitDef:
		return replaceSlice(parent.TraitDef.Methods)
	case KindMethod:
		if replaceSingle(&parent.Method.Signature) {
			return true
		}
		return replaceSingle(&parent.Method.Body)
	case KindSignature:
		if replaceSlice(parent.Signature.Params) {
			return true
		}
		return replaceSingle(&parent.Signature.Return)
	case KindAnnotation:
		return replaceSlice(parent.Annot.Params)
	case KindList:
		return replaceSlice(parent.List.Elements)
	case KindStaticCall:
		return replaceSlice(parent.StaticCall.Args)
	case KindInstanceCall:
		if replaceSingle(&parent.InstCall.Receiver) {
			return true
		}
		return replaceSlice(parent.InstCall.Args)
	case KindConstructorCall:
		return replaceSlice(parent.CtorCall.Args)
	case KindBinary:
		if replaceSingle(&parent.Binary.Left) {
			return true
		}
		return replaceSingle(&parent.Binary.Right)
	case KindUnary:
		return replaceSingle(&parent.Unary.Value)
	case KindAssignment:
		return replaceSingle(&parent.Assignment.Value)
	case KindReturn:
		return replaceSingle(&parent.Return.Value)
	}
	return false
}
