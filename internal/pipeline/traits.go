package pipeline

import "github.com/orbitlang/orbit-backend/internal/ast"

// traitIndex implements typecheck.TraitIndex by counting, for each
// trait name, how many TypeDefs across the whole root declare it in
// AdoptedTraits (spec §4.4's CHK005: a method may not declare a trait
// return type more than one concrete type implements).
type traitIndex struct {
	implementors map[string]int
}

func newTraitIndex(root *ast.Expression) *traitIndex {
	idx := &traitIndex{implementors: make(map[string]int)}
	if root.Kind != ast.KindRoot {
		return idx
	}
	for _, child := range root.Root.Body {
		if child.Kind != ast.KindProgram {
			continue
		}
		for _, api := range child.Program.APIs {
			idx.collectAPI(api)
		}
	}
	return idx
}

func (idx *traitIndex) collectAPI(api *ast.Expression) {
	prefix := api.API.Name
	if api.API.Within != "" {
		prefix = api.API.Within + "." + api.API.Name
	}
	for _, child := range api.API.Body {
		if child.Kind != ast.KindTypeDef {
			continue
		}
		for _, trait := range child.TypeDef.AdoptedTraits {
			idx.implementors[qualify(prefix, trait)]++
			idx.implementors[trait]++
		}
	}
}

// qualify mirrors how a trait name declared within the same API as its
// implementor would appear as a TypeAnnotation FullName: namespaced
// under that API's canonical name unless already dotted.
func qualify(prefix, name string) string {
	if name == "" {
		return name
	}
	for _, r := range name {
		if r == '.' {
			return name
		}
	}
	return prefix + "." + name
}

// Implementors returns how many TypeDefs across the whole root adopt
// the trait named traitFullName, tried both as given and, if
// unqualified, dotted under each declaring API (spec §4.4).
func (idx *traitIndex) Implementors(traitFullName string) int {
	return idx.implementors[traitFullName]
}
