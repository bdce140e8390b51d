// Package annotation implements the phase-extension mechanism shared
// by P2, P3, and P5 (spec §4.2, §4.3, §4.5, §6.3): source-level
// `@Name(params...)` expressions select a registered PhaseExtension by
// name, which rewrites or augments the AST at its host phase.
package annotation

import (
	"fmt"

	"github.com/orbitlang/orbit-backend/internal/ast"
	orbiterrors "github.com/orbitlang/orbit-backend/internal/errors"
)

// PhaseExtension is a plug-in keyed by annotation name. Ctx is
// phase-specific (e.g. *extract.Context, *resolve.Context,
// *codegen.Context) and passed as interface{} so this package has no
// dependency on any single phase; extensions type-assert the
// concrete context they expect.
type PhaseExtension interface {
	// Name is the dotted identifier this extension answers to, without
	// the phase-identifier prefix (e.g. "InsertType", "AliasType",
	// "EntryPoint").
	Name() string

	// Run executes the extension against the annotation expression
	// (KindAnnotation) and the node it decorates, returning the
	// replacement expression the caller should splice into the parent
	// via ast.RewriteChild.
	Run(ctx interface{}, host *ast.Expression, call *ast.Expression) (*ast.Expression, error)
}

// Registry holds the PhaseExtensions registered under one phase's
// namespace (spec §6.3: "the phase identifier prefix selects which
// phase will execute the annotation's extension").
type Registry struct {
	phaseID    string
	extensions map[string]PhaseExtension
}

// NewRegistry creates an empty registry for phaseID (e.g.
// "Orbit.Compiler.Backend.TypeExtractor").
func NewRegistry(phaseID string) *Registry {
	return &Registry{phaseID: phaseID, extensions: make(map[string]PhaseExtension)}
}

// Register adds ext under its own Name().
func (r *Registry) Register(ext PhaseExtension) {
	r.extensions[ext.Name()] = ext
}

// Selects reports whether annotationName is namespaced under this
// registry's phase and, if so, returns the bare extension name.
func (r *Registry) Selects(annotationName string) (string, bool) {
	prefix := r.phaseID + "."
	if len(annotationName) > len(prefix) && annotationName[:len(prefix)] == prefix {
		return annotationName[len(prefix):], true
	}
	// Bare names (no phase prefix) are accepted directly too, since
	// spec §6.3's worked examples (`Special(...)`, `Add(...)`) omit the
	// prefix for brevity.
	if _, ok := r.extensions[annotationName]; ok {
		return annotationName, true
	}
	return "", false
}

// Dispatch looks up and runs the extension selected by call's
// annotation name. UnknownExtension (spec §4.2/§4.3/§7) is fatal.
func (r *Registry) Dispatch(ctx interface{}, host *ast.Expression, call *ast.Expression) (*ast.Expression, error) {
	if call.Kind != ast.KindAnnotation {
		return nil, fmt.Errorf("dispatch target is not an Annotation node")
	}
	bare, ok := r.Selects(call.Annot.Name)
	if !ok {
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.CORE001,
			fmt.Sprintf("unknown extension %q under phase %q", call.Annot.Name, r.phaseID),
			&call.Pos,
			map[string]any{"annotation": call.Annot.Name, "phase": r.phaseID},
		))
	}
	ext, ok := r.extensions[bare]
	if !ok {
		return nil, orbiterrors.WrapReport(orbiterrors.New(
			orbiterrors.CORE001,
			fmt.Sprintf("unknown extension %q under phase %q", call.Annot.Name, r.phaseID),
			&call.Pos,
			map[string]any{"annotation": call.Annot.Name, "phase": r.phaseID},
		))
	}
	return ext.Run(ctx, host, call)
}

// ArityError reports a mismatch between an extension's declared
// parameter shape and the annotation call site (spec §6.3: "Extension
// parameter types are declared; mismatches are fatal at dispatch
// time.").
type ArityError struct {
	Extension string
	Expected  int
	Actual    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: extension %q expects %d parameter(s), got %d",
		orbiterrors.CORE002, e.Extension, e.Expected, e.Actual)
}

// CheckArity validates call.Annot.Params has exactly n elements.
func CheckArity(extName string, call *ast.Expression, n int) error {
	if len(call.Annot.Params) != n {
		return &ArityError{Extension: extName, Expected: n, Actual: len(call.Annot.Params)}
	}
	return nil
}
