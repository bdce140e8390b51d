// Package dependency implements P1 DependencyGraph (spec §4.1):
// reordering Program.apis so every API appears after every API it
// imports via `with`, rejecting cycles. Modeled on the teacher's
// internal/link/topo.go depth-first topological sort, generalized
// from a loader-backed module graph to the in-memory Program.apis
// slice spec §4.1 operates over.
package dependency

import (
	"fmt"
	"strings"

	"github.com/orbitlang/orbit-backend/internal/ast"
	orbiterrors "github.com/orbitlang/orbit-backend/internal/errors"
	"github.com/orbitlang/orbit-backend/internal/session"
)

// CircularDependencyError lists the offending `with` chain (spec §7).
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("%s: circular dependency: %s", orbiterrors.DEP001, strings.Join(e.Chain, " -> "))
}

// Order reorders the APIs of root's Program (root.Body[0]) so that
// every API appears after all APIs it imports via `with` (spec §4.1).
// A `with` naming an API not present locally is left as-is: it may
// still resolve from disk in P2, so P1 does not fail on it (spec
// §4.1 edge cases). A `with` naming the importing API itself is
// reported as a warning on sess and the edge is skipped.
func Order(sess *session.Session, root *ast.Expression) ([]*ast.Expression, error) {
	if root.Kind != ast.KindRoot || len(root.Root.Body) == 0 {
		return nil, fmt.Errorf("dependency.Order: root has no Program body")
	}
	prog := root.Root.Body[0]
	if prog.Kind != ast.KindProgram {
		return nil, fmt.Errorf("dependency.Order: root's first body element is not a Program")
	}

	byName := make(map[string]*ast.Expression, len(prog.Program.APIs))
	order := make([]*ast.Expression, len(prog.Program.APIs))
	copy(order, prog.Program.APIs)
	for _, api := range prog.Program.APIs {
		byName[api.API.Name] = api
	}

	// inPath / path power the cycle detector: if we re-enter an API
	// that is still on the current recursion stack, we have a cycle.
	// There is no edge-dedup here: spec §4.1's algorithm re-asserts
	// `moveAfter` for every (a, w) pair every time a is visited, and
	// that repetition is load-bearing — a later sibling's move can
	// undo an earlier one's (e.g. a diamond import), and only
	// revisiting the edge on the outer loop's subsequent passes
	// self-corrects it. Skipping "already seen" edges would leave
	// such an undone move in place.
	inPath := make(map[string]bool)
	var path []string

	var orderAPI func(name string) error
	orderAPI = func(name string) error {
		api, ok := byName[name]
		if !ok {
			// Not present locally; P2 may still resolve it from disk.
			return nil
		}

		inPath[name] = true
		path = append(path, name)
		defer func() {
			inPath[name] = false
			path = path[:len(path)-1]
		}()

		for _, w := range api.API.With {
			if w == name {
				sess.Warn(session.Warning{
					Code:    orbiterrors.DEP002,
					Message: fmt.Sprintf("API %q imports itself; edge skipped", name),
					Pos:     &api.Pos,
				})
				continue
			}

			if inPath[w] {
				chain := append(append([]string{}, path...), w)
				return &CircularDependencyError{Chain: chain}
			}

			if err := orderAPI(w); err != nil {
				return err
			}

			order = moveAfter(order, name, w)
		}
		return nil
	}

	for _, api := range prog.Program.APIs {
		if err := orderAPI(api.API.Name); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// moveAfter relocates the API named name to the slot immediately
// after the API named after, preserving relative order of everything
// else (spec §4.1's algorithm: "move a to the slot immediately after
// w"), and returns the resulting slice. A no-op if name is already
// positioned after "after", or if either name is absent from order
// (not locally present).
func moveAfter(order []*ast.Expression, name, after string) []*ast.Expression {
	nameIdx, afterIdx := -1, -1
	for i, api := range order {
		switch api.API.Name {
		case name:
			nameIdx = i
		case after:
			afterIdx = i
		}
	}
	if nameIdx == -1 || afterIdx == -1 || nameIdx > afterIdx {
		return order
	}

	moved := order[nameIdx]
	rest := append(append([]*ast.Expression{}, order[:nameIdx]...), order[nameIdx+1:]...)
	if afterIdx > nameIdx {
		afterIdx--
	}
	insertAt := afterIdx + 1

	out := make([]*ast.Expression, 0, len(rest)+1)
	out = append(out, rest[:insertAt]...)
	out = append(out, moved)
	out = append(out, rest[insertAt:]...)
	return out
}
