// Package session defines the process-wide Session value threaded
// explicitly through every phase constructor (spec §5). Session
// carries read-only configuration and a write-only warning sink; it is
// never a package-level singleton.
package session

import (
	"fmt"
	"sync"

	"github.com/orbitlang/orbit-backend/internal/ast"
)

// CallingConvention names an ABI. It is recorded on the Session;
// LLVMGen does not read it, and emits functions with llir's default
// calling convention.
type CallingConvention string

const (
	CallingConventionC      CallingConvention = "c"
	CallingConventionFastCC CallingConvention = "fastcc"
)

// Warning is a non-fatal diagnostic pushed to the Session sink. Unlike
// phase errors, warnings never halt compilation (spec §7).
type Warning struct {
	Code    string
	Message string
	Pos     *ast.Pos
}

func (w Warning) String() string {
	if w.Pos != nil {
		return fmt.Sprintf("%s: %s (%s)", w.Code, w.Message, w.Pos)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Session carries configuration read by every phase plus a mutable,
// append-only warning sink. Construct one per top-level compilation;
// pass it explicitly into phase constructors. The only process-wide
// state outside of Session is the bootstrap global scope, which is
// initialised once and never mutated thereafter (spec §5).
type Session struct {
	// SearchPaths are directories searched, in order, for precompiled
	// (.api) or source (.orb) files when resolving `with` imports that
	// are not present in the local program (spec §6.2).
	SearchPaths []string

	// CallingConvention is the configured ABI; codegen does not read it.
	CallingConvention CallingConvention

	mu       sync.Mutex
	warnings []Warning
}

// New constructs a Session with the given search paths and calling
// convention.
func New(searchPaths []string, cc CallingConvention) *Session {
	if cc == "" {
		cc = CallingConventionC
	}
	return &Session{
		SearchPaths:       searchPaths,
		CallingConvention: cc,
	}
}

// Warn appends a warning to the sink. Safe for concurrent use, though
// spec §5 guarantees single-threaded cooperative execution within one
// compilation; the lock only protects against a recursive inner
// compile sharing this Session (spec §5's one exception to "no shared
// mutable state").
func (s *Session) Warn(w Warning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, w)
}

// Warnings returns a snapshot of all warnings recorded so far.
func (s *Session) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}
