// Package apimap implements APIMap, the exportable surface of one API
// (spec §3), and its JSON (de)serialisation (spec §6.1). Modeled on
// the teacher's internal/iface package, generalized from a
// Haskell-flavoured function/constructor interface to Orbit's
// type+method surface.
package apimap

import (
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// APIMap is the exportable surface of one API.
type APIMap struct {
	CanonicalName string

	exportedTypes   []*typerecord.Record
	exportedMethods []*typerecord.Record // Variant == VariantSignature

	// imported tracks, by FullName, whether a contained record was
	// imported-by-reference rather than locally declared.
	imported map[string]bool
}

// New creates an empty APIMap for canonicalName.
func New(canonicalName string) *APIMap {
	return &APIMap{
		CanonicalName: canonicalName,
		imported:      make(map[string]bool),
	}
}

// ExportType adds t to the exported type list. Idempotent on
// FullName (spec §3 invariant): exporting the same FullName twice
// yields one entry, not two.
func (m *APIMap) ExportType(t *typerecord.Record) {
	for _, existing := range m.exportedTypes {
		if existing.FullName == t.FullName {
			return
		}
	}
	m.exportedTypes = append(m.exportedTypes, t)
}

// ExportMethod adds a Signature record to the exported method list,
// idempotent on FullName the same way ExportType is.
func (m *APIMap) ExportMethod(sig *typerecord.Record) {
	for _, existing := range m.exportedMethods {
		if existing.FullName == sig.FullName {
			return
		}
	}
	m.exportedMethods = append(m.exportedMethods, sig)
}

// MarkImported records that the record at fullName was brought in by
// import rather than declared locally in this API.
func (m *APIMap) MarkImported(fullName string) {
	m.imported[fullName] = true
}

// IsImported reports whether fullName was imported rather than
// declared locally.
func (m *APIMap) IsImported(fullName string) bool {
	return m.imported[fullName]
}

// ExportedTypes returns the ordered, unique-by-FullName type records.
func (m *APIMap) ExportedTypes() []*typerecord.Record { return m.exportedTypes }

// ExportedMethods returns the ordered, unique-by-FullName method
// signatures.
func (m *APIMap) ExportedMethods() []*typerecord.Record { return m.exportedMethods }

// FindType looks up a type by ShortName or FullName: first among the
// exported types, in export order, then among the bootstrap types
// (typerecord.BootstrapTypes). It returns the first match and does
// not check for ambiguity.
func (m *APIMap) FindType(name string) (*typerecord.Record, bool) {
	for _, t := range m.exportedTypes {
		if t.ShortName == name || t.FullName == name {
			return t, true
		}
	}
	for _, t := range typerecord.BootstrapTypes() {
		if t.ShortName == name || t.FullName == name {
			return t, true
		}
	}
	return nil, false
}

// ImportAll prepends other's exports into m, marking them imported.
// Duplicate FullNames (already present in m) are elided, per spec §3's
// import-all invariant.
func (m *APIMap) ImportAll(other *APIMap) {
	existingTypes := make(map[string]bool, len(m.exportedTypes))
	for _, t := range m.exportedTypes {
		existingTypes[t.FullName] = true
	}
	existingMethods := make(map[string]bool, len(m.exportedMethods))
	for _, s := range m.exportedMethods {
		existingMethods[s.FullName] = true
	}

	var newTypes []*typerecord.Record
	for _, t := range other.exportedTypes {
		if existingTypes[t.FullName] {
			continue
		}
		newTypes = append(newTypes, t)
		m.imported[t.FullName] = true
	}
	m.exportedTypes = append(newTypes, m.exportedTypes...)

	var newMethods []*typerecord.Record
	for _, s := range other.exportedMethods {
		if existingMethods[s.FullName] {
			continue
		}
		newMethods = append(newMethods, s)
		m.imported[s.FullName] = true
	}
	m.exportedMethods = append(newMethods, m.exportedMethods...)
}
