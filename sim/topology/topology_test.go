package topology

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatic_NeighborsSortedAndDeduplicated(t *testing.T) {
	g, err := NewStatic(4, [][2]int{{3, 0}, {0, 1}, {1, 0}, {0, 2}})
	require.NoError(t, err)

	neighbors, err := g.Neighbors(0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, neighbors)

	deg, err := g.Degree(3)
	require.NoError(t, err)
	assert.Equal(t, 1, deg)
	assert.Equal(t, 3, g.Edges())
}

func TestNewStatic_Errors(t *testing.T) {
	_, err := NewStatic(0, nil)
	assert.Error(t, err)

	_, err = NewStatic(3, [][2]int{{0, 3}})
	assert.ErrorIs(t, err, ErrUnknownVertex)

	_, err = NewStatic(3, [][2]int{{1, 1}})
	assert.Error(t, err)
}

func TestStatic_UnknownVertex(t *testing.T) {
	g, err := Complete(3)
	require.NoError(t, err)

	_, err = g.Neighbors(3)
	assert.ErrorIs(t, err, ErrUnknownVertex)
	_, err = g.Degree(-1)
	assert.ErrorIs(t, err, ErrUnknownVertex)
	_, err = g.HopDistances(5)
	assert.ErrorIs(t, err, ErrUnknownVertex)
}

func TestRing(t *testing.T) {
	g, err := Ring(6, 1)
	require.NoError(t, err)

	neighbors, err := g.Neighbors(0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5}, neighbors)

	dist, err := g.HopDistances(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 2, 1}, dist)
	assert.True(t, g.Connected())

	_, err = Ring(4, 2)
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	g, err := Complete(5)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		deg, err := g.Degree(i)
		require.NoError(t, err)
		assert.Equal(t, 4, deg)
	}
	assert.Equal(t, 10, g.Edges())
}

func TestGNP_Deterministic(t *testing.T) {
	a, err := GNP(30, 0.2, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	b, err := GNP(30, 0.2, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		na, _ := a.Neighbors(i)
		nb, _ := b.Neighbors(i)
		assert.Equal(t, na, nb)
	}

	empty, err := GNP(5, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Edges())
	assert.False(t, empty.Connected())

	_, err = GNP(5, 1.5, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestHopDistances_Unreachable(t *testing.T) {
	g, err := NewStatic(3, [][2]int{{0, 1}})
	require.NoError(t, err)

	dist, err := g.HopDistances(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, dist[1])
	assert.True(t, math.IsInf(dist[2], 1))
}

func TestDecodeEdgeList(t *testing.T) {
	g, err := DecodeEdgeList(strings.NewReader("# comment\n0 1\n\n1 2\n2 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, g.Size())
	assert.Equal(t, 3, g.Edges())

	for _, bad := range []string{"0\n", "0 x\n", "0 -1\n", "", "1 1\n"} {
		_, err := DecodeEdgeList(strings.NewReader(bad))
		assert.Error(t, err, "input %q", bad)
	}
}

func TestLoadEdgeList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.txt")
	require.NoError(t, os.WriteFile(path, []byte("0 1\n1 2\n"), 0o644))

	g, err := LoadEdgeList(path)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Size())

	_, err = LoadEdgeList(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestStatic_Grow_AddsIsolatedVertices(t *testing.T) {
	g, err := NewStatic(3, [][2]int{{0, 1}, {1, 2}})
	require.NoError(t, err)

	grown, err := g.Grow(5)
	require.NoError(t, err)

	assert.Equal(t, 5, grown.Size())
	assert.Equal(t, 2, grown.Edges())
	n, err := grown.Neighbors(1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, n)
	d, err := grown.Degree(4)
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = g.Grow(2)
	assert.Error(t, err)
}
