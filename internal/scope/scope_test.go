package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

func TestBindAndLookupBinding(t *testing.T) {
	s := New()
	require.NoError(t, s.Bind("x", typerecord.Int))

	t.Run("found locally", func(t *testing.T) {
		got, err := s.LookupBinding("x")
		require.NoError(t, err)
		assert.Same(t, typerecord.Int, got)
	})

	t.Run("found via parent", func(t *testing.T) {
		child := s.Child()
		got, err := child.LookupBinding("x")
		require.NoError(t, err)
		assert.Same(t, typerecord.Int, got)
	})

	t.Run("redeclaration is an error", func(t *testing.T) {
		assert.Error(t, s.Bind("x", typerecord.Real))
	})

	t.Run("unbound name is an error", func(t *testing.T) {
		_, err := s.LookupBinding("y")
		assert.Error(t, err)
	})
}

func TestFindTypeLocalAndParent(t *testing.T) {
	root := New()
	root.DeclareType(typerecord.Int)
	child := root.Child()
	pointType := typerecord.NewType("Point", "Geo.Point")
	child.DeclareType(pointType)

	got, err := child.FindType("Int")
	require.NoError(t, err)
	assert.Same(t, typerecord.Int, got)

	got, err = child.FindType("Point")
	require.NoError(t, err)
	assert.Same(t, pointType, got)

	_, err = root.FindType("Point")
	assert.Error(t, err, "a type declared in a child scope must not be visible from its parent")
}

func TestFindTypeAmbiguity(t *testing.T) {
	s := New()
	a := typerecord.NewType("Widget", "Foo.Widget")
	b := typerecord.NewType("Widget", "Bar.Widget")
	s.DeclareType(a)
	s.DeclareType(b)

	_, err := s.FindType("Widget")
	require.Error(t, err)
	var ambErr *AmbiguousTypeError
	require.ErrorAs(t, err, &ambErr)
	assert.Len(t, ambErr.Candidates, 2)
}

func TestFindTypeSameFullNameDiamondImportIsNotAmbiguous(t *testing.T) {
	s := New()
	shared := typerecord.NewType("Point", "Geo.Point")
	s.DeclareType(shared)
	s.DeclareType(shared) // re-declared via a second import path, same record

	got, err := s.FindType("Point")
	require.NoError(t, err)
	assert.Same(t, shared, got)
}

func TestAliasShadowsTypeMap(t *testing.T) {
	s := New()
	real := typerecord.NewType("Real", "Orb.Core.Types.Real")
	s.DeclareType(typerecord.Int)
	s.Alias("Int", real)

	got, err := s.FindType("Int")
	require.NoError(t, err)
	assert.Same(t, real, got)
}

func TestAllTypesWalksParentChain(t *testing.T) {
	root := New()
	root.DeclareType(typerecord.Int)
	child := root.Child()
	child.DeclareType(typerecord.Real)

	all := child.AllTypes()
	assert.Contains(t, all, typerecord.Int)
	assert.Contains(t, all, typerecord.Real)
}

func TestNewGlobalSeedsBootstrapTypes(t *testing.T) {
	g := NewGlobal()
	for _, bootstrap := range typerecord.BootstrapTypes() {
		got, err := g.FindType(bootstrap.ShortName)
		require.NoError(t, err)
		assert.Same(t, bootstrap, got)
	}
}
