package dependency

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlang/orbit-backend/internal/ast"
	"github.com/orbitlang/orbit-backend/internal/session"
)

func apiNamed(name string, with ...string) *ast.Expression {
	return &ast.Expression{
		Kind: ast.KindAPI,
		API:  &ast.APIExpr{Name: name, With: with},
	}
}

func rootOf(apis ...*ast.Expression) *ast.Expression {
	return &ast.Expression{
		Kind: ast.KindRoot,
		Root: &ast.RootExpr{Body: []*ast.Expression{
			{Kind: ast.KindProgram, Program: &ast.ProgramExpr{APIs: apis}},
		}},
	}
}

func names(apis []*ast.Expression) []string {
	out := make([]string, len(apis))
	for i, a := range apis {
		out[i] = a.API.Name
	}
	return out
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestOrderPlacesDependenciesFirst(t *testing.T) {
	sess := session.New(nil, "")
	root := rootOf(
		apiNamed("App", "Geo"),
		apiNamed("Geo"),
	)

	ordered, err := Order(sess, root)
	require.NoError(t, err)

	got := names(ordered)
	assert.Less(t, indexOf(got, "Geo"), indexOf(got, "App"), "every API must appear after everything it imports")
}

func TestOrderDiamondImport(t *testing.T) {
	sess := session.New(nil, "")
	root := rootOf(
		apiNamed("App", "Left", "Right"),
		apiNamed("Left", "Core"),
		apiNamed("Right", "Core"),
		apiNamed("Core"),
	)

	ordered, err := Order(sess, root)
	require.NoError(t, err)

	got := names(ordered)
	assert.Less(t, indexOf(got, "Core"), indexOf(got, "Left"))
	assert.Less(t, indexOf(got, "Core"), indexOf(got, "Right"))
	assert.Less(t, indexOf(got, "Left"), indexOf(got, "App"))
	assert.Less(t, indexOf(got, "Right"), indexOf(got, "App"))
}

func TestOrderDetectsCycle(t *testing.T) {
	sess := session.New(nil, "")
	root := rootOf(
		apiNamed("A", "B"),
		apiNamed("B", "C"),
		apiNamed("C", "A"),
	)

	_, err := Order(sess, root)
	require.Error(t, err)
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, cycleErr.Chain, "A")
	assert.Contains(t, cycleErr.Chain, "B")
	assert.Contains(t, cycleErr.Chain, "C")
}

func TestOrderSkipsSelfImportWithWarning(t *testing.T) {
	sess := session.New(nil, "")
	root := rootOf(apiNamed("Self", "Self"))

	ordered, err := Order(sess, root)
	require.NoError(t, err)
	assert.Len(t, ordered, 1)

	warnings := sess.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "DEP002", warnings[0].Code)
}

func TestOrderLeavesUnresolvedImportsAsIs(t *testing.T) {
	sess := session.New(nil, "")
	root := rootOf(apiNamed("App", "NotLocal"))

	ordered, err := Order(sess, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"App"}, names(ordered))
}

func TestOrderIsIdempotentOnAlreadySortedInput(t *testing.T) {
	sess := session.New(nil, "")
	root := rootOf(
		apiNamed("Geo"),
		apiNamed("App", "Geo"),
	)

	first, err := Order(sess, root)
	require.NoError(t, err)

	root2 := rootOf(first...)
	second, err := Order(sess, root2)
	require.NoError(t, err)

	assert.Equal(t, names(first), names(second))
}

// TestOrderPropertyLaw exercises spec §8's P1 laws ("for every pair
// (aᵢ,aⱼ) with aⱼ∈aᵢ.with, j<i" and "a program containing a `with`
// cycle is always rejected") across randomly generated import graphs,
// rather than the hand-picked diamond/cycle fixtures above. This is
// the regression test the diamond-import ordering bug should have
// tripped: an arbitrary graph that happens to contain a diamond is
// just as likely to be generated as any other shape.
func TestOrderPropertyLaw(t *testing.T) {
	const n = 5
	apiNames := []string{"A", "B", "C", "D", "E"}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every API is ordered after everything it imports, or the cycle is reported", prop.ForAll(
		func(edges []bool) bool {
			withOf := make([][]string, n)
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if i == j {
						continue
					}
					if edges[i*n+j] {
						withOf[i] = append(withOf[i], apiNames[j])
					}
				}
			}

			apis := make([]*ast.Expression, n)
			for i := range apis {
				apis[i] = apiNamed(apiNames[i], withOf[i]...)
			}

			sess := session.New(nil, "")
			ordered, err := Order(sess, rootOf(apis...))
			if err != nil {
				var cycleErr *CircularDependencyError
				return errors.As(err, &cycleErr)
			}

			got := names(ordered)
			for i, imports := range withOf {
				for _, w := range imports {
					if indexOf(got, w) >= indexOf(got, apiNames[i]) {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(n*n, gen.Bool()),
	))

	properties.TestingRun(t)
}
