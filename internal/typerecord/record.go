// Package typerecord implements the canonical, comparable type
// description used throughout resolution and codegen (spec §3).
package typerecord

import (
	"fmt"
	"strings"
)

// Variant tags the closed set of TypeRecord shapes.
type Variant int

const (
	VariantType Variant = iota
	VariantCompoundType
	VariantGenericType
	VariantSignature
	VariantMethod
)

// Record is a canonical type description. Equality and hashing follow
// spec §3's invariants exactly:
//
//	equal(a, b) ⇔ a.ShortName == b.ShortName || a.FullName == b.FullName
//	hash(a) is derived from a.FullName only
type Record struct {
	Variant Variant

	ShortName string
	FullName  string

	// CompoundType: ordered member types (product type fields).
	MemberTypes []*Record

	// GenericType: base type and ordered type parameters.
	BaseType       *Record
	TypeParameters []*Record

	// Signature / Method: receiver, ordered args, return.
	Receiver *Record
	Args     []*Record
	Return   *Record

	// Method embeds a Signature; Signature is non-nil only when
	// Variant == VariantMethod.
	Signature *Record
}

// NewType constructs a plain Type record.
func NewType(shortName, fullName string) *Record {
	return &Record{Variant: VariantType, ShortName: shortName, FullName: fullName}
}

// NewCompoundType constructs a CompoundType record (a Type plus
// ordered member types, used for product types / constructors).
func NewCompoundType(shortName, fullName string, members []*Record) *Record {
	return &Record{
		Variant:     VariantCompoundType,
		ShortName:   shortName,
		FullName:    fullName,
		MemberTypes: members,
	}
}

// NewGenericType constructs a GenericType record. Short/full names are
// derived from the base type and type parameters:
//
//	short = base.ShortName<p0.ShortName,p1.ShortName,...>
//	full  = base.FullName<p0.FullName,p1.FullName,...>
func NewGenericType(base *Record, params []*Record) *Record {
	shorts := make([]string, len(params))
	fulls := make([]string, len(params))
	for i, p := range params {
		shorts[i] = p.ShortName
		fulls[i] = p.FullName
	}
	return &Record{
		Variant:        VariantGenericType,
		ShortName:      fmt.Sprintf("%s<%s>", base.ShortName, strings.Join(shorts, ",")),
		FullName:       fmt.Sprintf("%s<%s>", base.FullName, strings.Join(fulls, ",")),
		BaseType:       base,
		TypeParameters: params,
	}
}

// NewSignature constructs a Signature record. FullName is derived per
// spec §3: `receiver.name.arg0.arg1...` (the return type is NOT part
// of the mangled full-name).
func NewSignature(shortName string, receiver *Record, args []*Record, ret *Record) *Record {
	parts := []string{receiver.FullName, shortName}
	for _, a := range args {
		parts = append(parts, a.FullName)
	}
	return &Record{
		Variant:   VariantSignature,
		ShortName: shortName,
		FullName:  strings.Join(parts, "."),
		Receiver:  receiver,
		Args:      args,
		Return:    ret,
	}
}

// NewMethod wraps a Signature as a Method record. FullName equals the
// embedded signature's FullName.
func NewMethod(sig *Record) *Record {
	return &Record{
		Variant:   VariantMethod,
		ShortName: sig.ShortName,
		FullName:  sig.FullName,
		Signature: sig,
		Receiver:  sig.Receiver,
		Args:      sig.Args,
		Return:    sig.Return,
	}
}

// Equal implements spec §3's permissive equality rule: equal if either
// ShortName or FullName matches. Reflexive and symmetric by
// construction.
func Equal(a, b *Record) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ShortName == b.ShortName || a.FullName == b.FullName
}

// Hash derives a stable hash from FullName only, so
// a.FullName == b.FullName implies Hash(a) == Hash(b) (spec §8).
func Hash(r *Record) uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for i := 0; i < len(r.FullName); i++ {
		h ^= uint64(r.FullName[i])
		h *= 1099511628211
	}
	return h
}

// OperatorMethodName synthesises the dispatch name for a unary or
// binary operator per spec §3/§4.3:
//
//	unary:  <v.FullName>.<op>.<v.FullName>
//	binary: Operator.<op>.<lhs.FullName>.<rhs.FullName>
func OperatorMethodName(op string, lhs *Record, rhs *Record) string {
	if rhs == nil {
		return fmt.Sprintf("%s.%s.%s", lhs.FullName, op, lhs.FullName)
	}
	return fmt.Sprintf("Operator.%s.%s.%s", op, lhs.FullName, rhs.FullName)
}

// StaticCallMethodName synthesises the expanded name for a static
// call per spec §4.3: `<recv.FullName>.<name>.<arg0.FullName>...`.
func StaticCallMethodName(recv *Record, name string, args []*Record) string {
	parts := []string{recv.FullName, name}
	for _, a := range args {
		parts = append(parts, a.FullName)
	}
	return strings.Join(parts, ".")
}

func (r *Record) String() string {
	return r.FullName
}
