// Package resolver defines the contract for the external file finder
// and source resolver collaborators spec §1 places out of scope
// ("Source file I/O and path resolution (SourceResolver,
// findOrbitFile)... supply RootExpression + tokens"). Orbit's backend
// depends only on these narrow interfaces; a real lexer/parser/FS
// layer (not built here) implements them. Modeled on the shape of the
// teacher's internal/module.Resolver and internal/module.Loader, which
// play the same external-collaborator role for AILANG's own frontend.
package resolver

import "github.com/orbitlang/orbit-backend/internal/ast"

// Format tags how a resolved dependency is packaged on disk (spec
// §6.2).
type Format int

const (
	FormatSource      Format = iota // .orb — compile recursively (P1..P5)
	FormatPrecompiled               // .api — parse as APIMap JSON (spec §6.1)
)

// Located is what the external file finder returns for a canonical
// API name (spec §6.2).
type Located struct {
	Path   string
	Format Format
}

// SourceResolver is the external collaborator that turns a canonical
// API name into a file location, and a resolved path into parsed
// frontend output. The Orbit backend never implements this itself —
// P2's import resolution (spec §4.2) calls through it.
type SourceResolver interface {
	// Find locates the canonical API name w, returning its path and
	// format. Returns an error if undefined or ambiguous (spec §4.2
	// step 3: "Fail if the name is undefined or yields multiple
	// matches.").
	Find(canonicalName string) (Located, error)

	// ReadPrecompiled returns the raw .api JSON bytes at path.
	ReadPrecompiled(path string) ([]byte, error)

	// ParseSource runs the external lexer/parser over the .orb file at
	// path, returning a frontend-produced Root expression ready for
	// P1..P5 (spec §4.2 step 2's "Source (.orb): run the full
	// frontend+backend pipeline recursively").
	ParseSource(path string) (*ast.Expression, error)
}
