// Package errors provides centralized error code definitions for the
// Orbit backend. All error codes follow a consistent phase-prefixed
// taxonomy, mirroring the teacher's internal/errors package.
package errors

// Error code constants organized by phase (spec §7).
const (
	// ============================================================
	// Shared infra / structural errors (CORE###)
	// ============================================================

	// CORE001 indicates an annotation extension name has no registered
	// PhaseExtension under the current phase's namespace.
	CORE001 = "CORE001"
	// CORE002 indicates an extension was invoked with the wrong number
	// or kind of parameters.
	CORE002 = "CORE002"
	// CORE003 indicates a required key was missing from a serialised
	// API-Map JSON document.
	CORE003 = "CORE003"

	// ============================================================
	// Dependency errors (DEP###) — P1 DependencyGraph
	// ============================================================

	// DEP001 indicates a circular `with` dependency between local APIs.
	DEP001 = "DEP001"
	// DEP002 indicates a `with` import naming the API itself (warning).
	DEP002 = "DEP002"

	// ============================================================
	// Extraction errors (EXT###) — P2 TypeExtractor
	// ============================================================

	// EXT001 indicates an imported API name could not be resolved
	// locally or via the file finder.
	EXT001 = "EXT001"
	// EXT002 indicates two types in the same API share a full-name.
	EXT002 = "EXT002"
	// EXT003 indicates a property's declared type could not be found.
	EXT003 = "EXT003"
	// EXT004 indicates an unknown annotation extension under this
	// phase's namespace.
	EXT004 = "EXT004"
	// EXT005 indicates a recursive inner compile (of a .orb source
	// import) failed; the inner error is wrapped, not replaced.
	EXT005 = "EXT005"

	// ============================================================
	// Resolution errors (RES###) — P3 TypeResolver
	// ============================================================

	// RES001 indicates a type name resolves to nothing in scope.
	RES001 = "RES001"
	// RES002 indicates an identifier has no binding in scope.
	RES002 = "RES002"
	// RES003 indicates a type name resolves to more than one
	// full-name-distinct candidate.
	RES003 = "RES003"
	// RES004 indicates an assignment's declared type disagrees with
	// its value's resolved type.
	RES004 = "RES004"
	// RES005 indicates a method name has no matching signature.
	RES005 = "RES005"
	// RES006 indicates a constructor call supplied the wrong number of
	// arguments for the target compound type.
	RES006 = "RES006"
	// RES007 indicates a constructor argument's type does not match
	// the corresponding property's type.
	RES007 = "RES007"
	// RES008 indicates an operator has no corresponding dispatch
	// method for its operand types.
	RES008 = "RES008"
	// RES009 indicates an unknown phase extension under the resolver's
	// namespace.
	RES009 = "RES009"

	// ============================================================
	// Type-check errors (CHK###) — P4 TypeChecker
	// ============================================================

	// CHK001 indicates a node that should carry a TypeAnnotation does
	// not.
	CHK001 = "CHK001"
	// CHK002 indicates an assignment's LHS/RHS types disagree, or a
	// constructor call's argument count or types disagree with the
	// type's properties, at verification time.
	CHK002 = "CHK002"
	// CHK003 indicates a method body's return type disagrees with its
	// signature's declared return.
	CHK003 = "CHK003"
	// CHK004 indicates a Binary node is missing its required
	// OperatorFunction metadata.
	CHK004 = "CHK004"
	// CHK005 is the design-level rejection of a method whose return
	// type is a trait implemented by more than one concrete type.
	CHK005 = "CHK005"

	// ============================================================
	// Codegen errors (GEN###) — P5 LLVMGen
	// ============================================================

	// GEN001 indicates no IR type is registered for a type record's
	// full-name (and no alias-pool override exists either).
	GEN001 = "GEN001"
	// GEN002 indicates a call site referencing an undeclared IR
	// function.
	GEN002 = "GEN002"
	// GEN003 indicates a FloatAlias/IntegerAlias extension was given an
	// unsupported bit width.
	GEN003 = "GEN003"
	// GEN004 indicates an EntryPoint annotation could not find its
	// target method.
	GEN004 = "GEN004"
	// GEN005 indicates an API compiled to completion without ever
	// producing a designated entry point, when one was required.
	GEN005 = "GEN005"
)

// ErrorInfo provides structured information about an error code.
type ErrorInfo struct {
	Code        string
	Phase       string
	Category    string
	Description string
}

// ErrorRegistry maps error codes to their information.
var ErrorRegistry = map[string]ErrorInfo{
	CORE001: {CORE001, "shared", "extension", "Unknown phase extension"},
	CORE002: {CORE002, "shared", "extension", "Bad extension arity"},
	CORE003: {CORE003, "shared", "apimap", "Missing API-Map key"},

	DEP001: {DEP001, "dependency", "cycle", "Circular dependency"},
	DEP002: {DEP002, "dependency", "cycle", "Self import"},

	EXT001: {EXT001, "extract", "resolution", "Dependency not found"},
	EXT002: {EXT002, "extract", "namespace", "Duplicate type"},
	EXT003: {EXT003, "extract", "resolution", "Type not found"},
	EXT004: {EXT004, "extract", "extension", "Unknown extension"},
	EXT005: {EXT005, "extract", "recursion", "Inner compile failed"},

	RES001: {RES001, "resolve", "type", "Unknown type"},
	RES002: {RES002, "resolve", "scope", "Unbound name"},
	RES003: {RES003, "resolve", "type", "Ambiguous type"},
	RES004: {RES004, "resolve", "type", "Assignment type mismatch"},
	RES005: {RES005, "resolve", "method", "Unknown method"},
	RES006: {RES006, "resolve", "constructor", "Constructor arity mismatch"},
	RES007: {RES007, "resolve", "constructor", "Constructor arg type mismatch"},
	RES008: {RES008, "resolve", "operator", "Unsupported operator"},
	RES009: {RES009, "resolve", "extension", "Unknown extension"},

	CHK001: {CHK001, "typecheck", "annotation", "Missing type annotation"},
	CHK002: {CHK002, "typecheck", "type", "Assignment type mismatch"},
	CHK003: {CHK003, "typecheck", "type", "Return type mismatch"},
	CHK004: {CHK004, "typecheck", "operator", "Missing operator metadata"},
	CHK005: {CHK005, "typecheck", "trait", "Ambiguous trait return"},

	GEN001: {GEN001, "codegen", "type", "IR type missing"},
	GEN002: {GEN002, "codegen", "function", "IR function missing"},
	GEN003: {GEN003, "codegen", "alias", "Bad float/int width"},
	GEN004: {GEN004, "codegen", "entrypoint", "Missing main"},
	GEN005: {GEN005, "codegen", "entrypoint", "No entry point emitted"},
}

// GetErrorInfo returns information about an error code.
func GetErrorInfo(code string) (ErrorInfo, bool) {
	info, exists := ErrorRegistry[code]
	return info, exists
}

// IsDependencyError reports whether code belongs to P1.
func IsDependencyError(code string) bool {
	info, exists := GetErrorInfo(code)
	return exists && info.Phase == "dependency"
}

// IsCodegenError reports whether code belongs to P5.
func IsCodegenError(code string) bool {
	info, exists := GetErrorInfo(code)
	return exists && info.Phase == "codegen"
}
