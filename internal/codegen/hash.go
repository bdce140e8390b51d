package codegen

import (
	"crypto/sha1"
	"fmt"
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// legalLLVMIdent matches any character outside the class LLVM accepts
// unescaped in a global/local identifier ([A-Za-z0-9_.]).
var legalLLVMIdent = regexp.MustCompile(`[^A-Za-z0-9_.]`)

// LegalName derives an LLVM-legal identifier from a TypeRecord
// FullName (spec §4.5): Unicode-normalise to NFC first so visually
// identical names hash identically, replace illegal characters, and
// if anything was replaced, suffix a short SHA-1 digest of the
// original so two distinct full names can never collide onto the
// same sanitised identifier.
func LegalName(fullName string) string {
	normalized := norm.NFC.String(fullName)
	sanitized := legalLLVMIdent.ReplaceAllString(normalized, "_")
	if sanitized == normalized {
		return sanitized
	}
	sum := sha1.Sum([]byte(normalized))
	return fmt.Sprintf("%s.%x", sanitized, sum[:6])
}
