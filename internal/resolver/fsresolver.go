package resolver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/orbitlang/orbit-backend/internal/ast"
)

// FSResolver is the default SourceResolver: it searches a list of
// directories for <name>.api (precompiled) or <name>.orb (source),
// preferring the precompiled form when both exist in one directory
// (spec §6.2); a name found in more than one directory is an error. It
// cannot parse .orb source itself — lexing and parsing are external
// to this module (spec §1) — so ParseSource always fails; projects
// that only ship precompiled dependencies never hit that path.
type FSResolver struct {
	SearchPaths []string
}

// NewFS creates an FSResolver over the given search paths, in order.
func NewFS(searchPaths []string) *FSResolver {
	return &FSResolver{SearchPaths: searchPaths}
}

func (f *FSResolver) Find(canonicalName string) (Located, error) {
	rel := filepath.FromSlash(canonicalName)
	var matches []Located
	for _, dir := range f.SearchPaths {
		apiPath := filepath.Join(dir, rel+".api")
		if fileExists(apiPath) {
			matches = append(matches, Located{Path: apiPath, Format: FormatPrecompiled})
			continue
		}
		orbPath := filepath.Join(dir, rel+".orb")
		if fileExists(orbPath) {
			matches = append(matches, Located{Path: orbPath, Format: FormatSource})
		}
	}
	switch len(matches) {
	case 0:
		return Located{}, fmt.Errorf("resolver: %s not found in search paths %v", canonicalName, f.SearchPaths)
	case 1:
		return matches[0], nil
	}
	return Located{}, fmt.Errorf("resolver: %s is ambiguous: found in %d search paths", canonicalName, len(matches))
}

func (f *FSResolver) ReadPrecompiled(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (f *FSResolver) ParseSource(path string) (*ast.Expression, error) {
	return nil, fmt.Errorf("resolver: no frontend available to parse %s; supply a precompiled .api or a SourceResolver with ParseSource wired to a lexer/parser", path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
