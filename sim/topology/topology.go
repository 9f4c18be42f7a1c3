// Package topology supplies neighbor lookup for simulated processes.
// Graphs are stored as gonum undirected graphs whose node ids are the
// process ids.
package topology

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// ErrUnknownVertex is returned when a lookup names a vertex outside the graph.
var ErrUnknownVertex = errors.New("unknown vertex")

// Graph is the neighbor accessor protocols consult when selecting peers.
// Lookups may fail; callers propagate the error and do not retry.
type Graph interface {
	// Size returns the number of vertices, ids 0..Size()-1.
	Size() int
	// Neighbors returns the neighbor ids of id in ascending order.
	Neighbors(id int) ([]int, error)
	// Degree returns the number of neighbors of id.
	Degree(id int) (int, error)
}

// Static is an immutable undirected graph.
type Static struct {
	g   *simple.UndirectedGraph
	adj [][]int
}

// NewStatic builds a graph with n vertices and the given edges.
// Duplicate edges collapse; self-loops are rejected.
func NewStatic(n int, edges [][2]int) (*Static, error) {
	if n <= 0 {
		return nil, fmt.Errorf("graph must have at least one vertex, got %d", n)
	}
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		u, v := e[0], e[1]
		if u < 0 || u >= n || v < 0 || v >= n {
			return nil, fmt.Errorf("edge (%d, %d): %w", u, v, ErrUnknownVertex)
		}
		if u == v {
			return nil, fmt.Errorf("edge (%d, %d) is a self-loop", u, v)
		}
		g.SetEdge(g.NewEdge(simple.Node(u), simple.Node(v)))
	}
	return freeze(g, n), nil
}

// freeze caches sorted adjacency lists so lookups are deterministic.
func freeze(g *simple.UndirectedGraph, n int) *Static {
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		it := g.From(int64(i))
		neighbors := make([]int, 0, it.Len())
		for it.Next() {
			neighbors = append(neighbors, int(it.Node().ID()))
		}
		slices.Sort(neighbors)
		adj[i] = neighbors
	}
	return &Static{g: g, adj: adj}
}

func (s *Static) Size() int { return len(s.adj) }

func (s *Static) Neighbors(id int) ([]int, error) {
	if id < 0 || id >= len(s.adj) {
		return nil, fmt.Errorf("neighbors of %d: %w", id, ErrUnknownVertex)
	}
	return s.adj[id], nil
}

func (s *Static) Degree(id int) (int, error) {
	neighbors, err := s.Neighbors(id)
	if err != nil {
		return 0, err
	}
	return len(neighbors), nil
}

// Edges returns the number of undirected edges.
func (s *Static) Edges() int {
	return s.g.Edges().Len()
}

// Grow returns a copy of s with n vertices; the added ones are isolated.
func (s *Static) Grow(n int) (*Static, error) {
	if n < s.Size() {
		return nil, fmt.Errorf("cannot shrink a graph of %d vertices to %d", s.Size(), n)
	}
	edges := make([][2]int, 0, s.Edges())
	for u, neighbors := range s.adj {
		for _, v := range neighbors {
			if u < v {
				edges = append(edges, [2]int{u, v})
			}
		}
	}
	return NewStatic(n, edges)
}

// HopDistances returns the hop count from source to every vertex, +Inf
// for unreachable ones.
func (s *Static) HopDistances(source int) ([]float64, error) {
	if source < 0 || source >= s.Size() {
		return nil, fmt.Errorf("distances from %d: %w", source, ErrUnknownVertex)
	}
	tree := path.DijkstraFrom(simple.Node(source), s.g)
	dist := make([]float64, s.Size())
	for i := range dist {
		dist[i] = tree.WeightTo(int64(i))
	}
	return dist, nil
}

// Connected reports whether every vertex is reachable from vertex 0.
func (s *Static) Connected() bool {
	dist, err := s.HopDistances(0)
	if err != nil {
		return false
	}
	for _, d := range dist {
		if math.IsInf(d, 1) {
			return false
		}
	}
	return true
}

// Ring returns a ring lattice in which every vertex is linked to its k
// nearest vertices on each side.
func Ring(n, k int) (*Static, error) {
	if k < 1 || 2*k >= n {
		return nil, fmt.Errorf("ring of %d vertices needs 1 <= k < %d/2, got k=%d", n, n, k)
	}
	edges := make([][2]int, 0, n*k)
	for i := 0; i < n; i++ {
		for d := 1; d <= k; d++ {
			edges = append(edges, [2]int{i, (i + d) % n})
		}
	}
	return NewStatic(n, edges)
}

// Complete returns the complete graph on n vertices.
func Complete(n int) (*Static, error) {
	edges := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, [2]int{i, j})
		}
	}
	return NewStatic(n, edges)
}

// GNP returns an Erdős–Rényi G(n, p) random graph.
func GNP(n int, p float64, rng *rand.Rand) (*Static, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return nil, fmt.Errorf("edge probability must be in [0, 1], got %g", p)
	}
	edges := make([][2]int, 0)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return NewStatic(n, edges)
}

var _ Graph = (*Static)(nil)
