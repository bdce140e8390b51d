// Package ast defines the Expression tagged variant that is the shared,
// mutable spine of the Orbit backend (spec §3). Every phase reads
// annotations left by earlier phases and attaches its own; nothing here
// downcasts — callers switch on Kind.
package ast

import "fmt"

// Pos is a source position: file, line, column. The frontend supplies
// these on every node it produces; the backend never invents one.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// ID is a stable identity used for keyed lookup and parent-rewrite.
// The frontend assigns these; the backend treats them as opaque.
type ID uint64

// Kind tags the closed variant of node shapes described in spec §3.
type Kind int

const (
	KindInt Kind = iota
	KindReal
	KindString
	KindList

	KindIdentifier
	KindTypeIdentifier

	KindPair

	KindStaticCall
	KindInstanceCall
	KindConstructorCall

	KindUnary
	KindBinary

	KindTypeDef
	KindTraitDef
	KindSignature
	KindMethod
	KindBlock
	KindAssignment
	KindReturn

	KindAPI
	KindProgram
	KindRoot
	KindAnnotation
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindReal:
		return "Real"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindIdentifier:
		return "Identifier"
	case KindTypeIdentifier:
		return "TypeIdentifier"
	case KindPair:
		return "Pair"
	case KindStaticCall:
		return "StaticCall"
	case KindInstanceCall:
		return "InstanceCall"
	case KindConstructorCall:
		return "ConstructorCall"
	case KindUnary:
		return "Unary"
	case KindBinary:
		return "Binary"
	case KindTypeDef:
		return "TypeDef"
	case KindTraitDef:
		return "TraitDef"
	case KindSignature:
		return "Signature"
	case KindMethod:
		return "Method"
	case KindBlock:
		return "Block"
	case KindAssignment:
		return "Assignment"
	case KindReturn:
		return "Return"
	case KindAPI:
		return "API"
	case KindProgram:
		return "Program"
	case KindRoot:
		return "Root"
	case KindAnnotation:
		return "Annotation"
	default:
		return "Unknown"
	}
}

// Expression is a node in the AST. Every expression carries identity,
// position, a kind tag, a variant-specific payload, and the set of
// annotations attached by prior phases.
type Expression struct {
	ID          ID
	Pos         Pos
	Kind        Kind
	Annotations map[string]Annotation

	// Exactly one of the following is populated, selected by Kind.
	Int        *IntLit
	Real       *RealLit
	Str        *StringLit
	List       *ListLit
	Identifier *IdentifierRef
	TypeID     *TypeIdentifierRef
	Pair       *PairExpr
	StaticCall *StaticCallExpr
	InstCall   *InstanceCallExpr
	CtorCall   *ConstructorCallExpr
	Unary      *UnaryExpr
	Binary     *BinaryExpr
	TypeDef    *TypeDefExpr
	TraitDef   *TraitDefExpr
	Signature  *SignatureExpr
	Method     *MethodExpr
	Block      *BlockExpr
	Assignment *AssignmentExpr
	Return     *ReturnExpr
	API        *APIExpr
	Program    *ProgramExpr
	Root       *RootExpr
	Annot      *AnnotationExpr
}

// Annotate attaches (or replaces) the annotation with the given
// identifier. Annotation attachment is monotonic in the sense required
// by spec §8: phases only add or replace their own annotation by name,
// never remove another phase's.
func (e *Expression) Annotate(name string, a Annotation) {
	if e.Annotations == nil {
		e.Annotations = make(map[string]Annotation)
	}
	e.Annotations[name] = a
}

// Lookup returns the annotation under name, if present.
func (e *Expression) Lookup(name string) (Annotation, bool) {
	a, ok := e.Annotations[name]
	return a, ok
}

func (e *Expression) String() string {
	return fmt.Sprintf("%s@%s", e.Kind, e.Pos)
}

// --- literal / reference payloads -----------------------------------

type IntLit struct{ Value int64 }
type RealLit struct{ Value float64 }
type StringLit struct{ Value string }

// ListLit is an ordered sequence of value expressions.
type ListLit struct{ Elements []*Expression }

// IdentifierRef names a value binding.
type IdentifierRef struct{ Name string }

// TypeIdentifierRef names a type; IsList marks `[T]` syntax.
type TypeIdentifierRef struct {
	Name   string
	IsList bool
}

// PairExpr is a (name, type) pair used for parameters and properties.
type PairExpr struct {
	Name string
	Type *Expression // Kind == KindTypeIdentifier
}

// --- calls ------------------------------------------------------------

// StaticCallExpr is `ReceiverType.method(args...)`.
type StaticCallExpr struct {
	ReceiverType *Expression // KindTypeIdentifier
	Method       string
	Args         []*Expression
}

// InstanceCallExpr is `receiverValue.method(args...)`.
type InstanceCallExpr struct {
	Receiver *Expression
	Method   string
	Args     []*Expression
}

// ConstructorCallExpr is `TypeName(args...)`.
type ConstructorCallExpr struct {
	Type *Expression // KindTypeIdentifier
	Args []*Expression
}

// --- operators ----------------------------------------------------------

type UnaryExpr struct {
	Op    string
	Value *Expression
}

type BinaryExpr struct {
	Op    string
	Left  *Expression
	Right *Expression
}

// --- structure ----------------------------------------------------------

// TypeDefExpr declares a product type.
type TypeDefExpr struct {
	Name            string
	Properties      []*Expression // KindPair, ordered
	AdoptedTraits   []string
	ConstructorSigs []*Expression // KindSignature
}

type TraitDefExpr struct {
	Name    string
	Methods []*Expression // KindSignature
}

// SignatureExpr is `(receiver) name(params...) (return?)`.
type SignatureExpr struct {
	Receiver *Expression // KindTypeIdentifier
	Name     string
	Params   []*Expression // KindPair
	Return   *Expression   // KindTypeIdentifier, nil => Unit
}

type MethodExpr struct {
	Signature *Expression // KindSignature
	Body      *Expression // KindBlock
}

type BlockExpr struct {
	Statements []*Expression
	Return     *Expression // optional, KindReturn
}

type AssignmentExpr struct {
	Name  string
	Type  *Expression // optional declared type, KindTypeIdentifier
	Value *Expression
}

type ReturnExpr struct {
	Value *Expression
}

// --- module -------------------------------------------------------------

// APIExpr is a named compilation unit.
type APIExpr struct {
	Name   string
	Within string // optional dotted nesting prefix
	With   []string
	Body   []*Expression
}

type ProgramExpr struct {
	APIs []*Expression // KindAPI
}

type RootExpr struct {
	Body []*Expression // first element is typically KindProgram
}

// AnnotationExpr is a source-level `@Name(params...)` decoration.
type AnnotationExpr struct {
	Name   string
	Params []*Expression
}
