package typerecord

// Bootstrap type records for the global scope (spec §3): Unit, Int,
// Real, String, Operator, List. Operator has no fields of its own; it exists
// only as the namespace prefix synthesised by OperatorMethodName.
var (
	Unit     = NewType("Unit", "Orb.Core.Types.Unit")
	Int      = NewType("Int", "Orb.Core.Types.Int")
	Real     = NewType("Real", "Orb.Core.Types.Real")
	Str      = NewType("String", "Orb.Core.Types.String")
	Operator = NewType("Operator", "Orb.Core.Types.Operator")
	ListBase = NewType("List", "Orb.Core.Types.List")
)

// BootstrapTypes returns the records that seed the global scope.
func BootstrapTypes() []*Record {
	return []*Record{Unit, Int, Real, Str, Operator, ListBase}
}

// ListOf builds the GenericType record for `[element]`.
func ListOf(element *Record) *Record {
	return NewGenericType(ListBase, []*Record{element})
}
