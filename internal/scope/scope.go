// Package scope implements the lexical environment tree described in
// spec §3: a parent chain of bindings, declared types, and aliases.
// Modeled on the teacher's internal/types/env.go TypeEnv, generalized
// from a single binding map to the three maps spec §3 requires.
package scope

import (
	"fmt"
	"sort"

	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// Scope is one node of the lexical environment tree.
type Scope struct {
	bindings map[string]*typerecord.Record // value bindings: identifier -> type
	types    []*typerecord.Record          // declared types visible at this level
	aliases  map[string]*typerecord.Record // short-name -> type record, optional
	parent   *Scope
}

// New creates a root scope with no parent.
func New() *Scope {
	return &Scope{
		bindings: make(map[string]*typerecord.Record),
		aliases:  make(map[string]*typerecord.Record),
	}
}

// Child creates a new scope whose parent is s.
func (s *Scope) Child() *Scope {
	return &Scope{
		bindings: make(map[string]*typerecord.Record),
		aliases:  make(map[string]*typerecord.Record),
		parent:   s,
	}
}

// Bind declares a value binding in this scope. Redeclaration in the
// same scope is an error per spec §5 ("bindings respect declaration
// order; redeclaration is an error").
func (s *Scope) Bind(name string, t *typerecord.Record) error {
	if _, exists := s.bindings[name]; exists {
		return fmt.Errorf("redeclaration of %q in scope", name)
	}
	s.bindings[name] = t
	return nil
}

// DeclareType adds a type record to this scope's local type map.
func (s *Scope) DeclareType(t *typerecord.Record) {
	s.types = append(s.types, t)
}

// Alias introduces a short-name -> type-record alias visible in this
// scope (used by the TypeResolver's AliasType extension, spec §6.3).
func (s *Scope) Alias(shortName string, t *typerecord.Record) {
	s.aliases[shortName] = t
}

// LookupBinding implements spec §3's lookup-binding: local, else
// parent; absent is an error.
func (s *Scope) LookupBinding(name string) (*typerecord.Record, error) {
	if t, ok := s.bindings[name]; ok {
		return t, nil
	}
	if s.parent != nil {
		return s.parent.LookupBinding(name)
	}
	return nil, fmt.Errorf("unbound name: %s", name)
}

// AmbiguousTypeError lists the candidates found for a name that
// resolved to more than one full-name-distinct type record.
type AmbiguousTypeError struct {
	Name       string
	Candidates []*typerecord.Record
}

func (e *AmbiguousTypeError) Error() string {
	return fmt.Sprintf("ambiguous type %q: %d candidates", e.Name, len(e.Candidates))
}

// FindType implements spec §3's find-type: alias first, else filter
// the full local+parent type-map chain by ShortName or FullName. Zero
// matches is an error. Multiple matches are admissible only when every
// candidate shares the same FullName (the same record reached via
// different import paths); otherwise it's an AmbiguousTypeError.
func (s *Scope) FindType(name string) (*typerecord.Record, error) {
	if t, ok := s.lookupAlias(name); ok {
		return t, nil
	}

	var candidates []*typerecord.Record
	seen := make(map[string]bool)
	for cur := s; cur != nil; cur = cur.parent {
		for _, t := range cur.types {
			if t.ShortName == name || t.FullName == name {
				if !seen[t.FullName] {
					seen[t.FullName] = true
					candidates = append(candidates, t)
				}
			}
		}
	}

	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("unknown type: %s", name)
	case 1:
		return candidates[0], nil
	default:
		full := candidates[0].FullName
		for _, c := range candidates[1:] {
			if c.FullName != full {
				sortCandidates(candidates)
				return nil, &AmbiguousTypeError{Name: name, Candidates: candidates}
			}
		}
		return candidates[0], nil
	}
}

func (s *Scope) lookupAlias(name string) (*typerecord.Record, bool) {
	if t, ok := s.aliases[name]; ok {
		return t, true
	}
	if s.parent != nil {
		return s.parent.lookupAlias(name)
	}
	return nil, false
}

func sortCandidates(cands []*typerecord.Record) {
	sort.Slice(cands, func(i, j int) bool { return cands[i].FullName < cands[j].FullName })
}

// AllTypes returns every type record visible from this scope, walking
// up the parent chain, local types first.
func (s *Scope) AllTypes() []*typerecord.Record {
	var out []*typerecord.Record
	for cur := s; cur != nil; cur = cur.parent {
		out = append(out, cur.types...)
	}
	return out
}

// NewGlobal builds the process-wide bootstrap global scope (spec §3,
// §5): seeded once with Unit/Int/Real/String/Operator/List and never mutated
// after construction. Callers should construct this exactly once per
// process and treat the returned Scope as read-only from then on.
func NewGlobal() *Scope {
	g := New()
	for _, t := range typerecord.BootstrapTypes() {
		g.DeclareType(t)
	}
	return g
}
