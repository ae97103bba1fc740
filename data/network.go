// Package data: the spatial adjacency network.
// Cluster growth only ever asks one question of the geometry: which objects
// border a cluster and are not blocked. Network answers it from sorted
// adjacency lists in O(cluster degree sum).

package data

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nataliacp/sBayes/matrix"
)

var (
	// ErrBadEdge is returned for self-loops or endpoints outside [0, n).
	ErrBadEdge = errors.New("data: invalid edge")

	// ErrBadNetwork is returned when the network is constructed with a
	// non-positive object count.
	ErrBadNetwork = errors.New("data: invalid network size")
)

// Network is an immutable undirected adjacency structure over object indices.
type Network struct {
	n         int
	neighbors [][]int
}

// NewNetwork builds a network over nObjects from an undirected edge list.
// Duplicate edges are collapsed; self-loops and out-of-range endpoints are
// rejected.
func NewNetwork(nObjects int, edges [][2]int) (*Network, error) {
	if nObjects <= 0 {
		return nil, fmt.Errorf("%w: %d objects", ErrBadNetwork, nObjects)
	}
	neighbors := make([][]int, nObjects)
	for _, e := range edges {
		a, b := e[0], e[1]
		if a == b || a < 0 || b < 0 || a >= nObjects || b >= nObjects {
			return nil, fmt.Errorf("%w: (%d,%d)", ErrBadEdge, a, b)
		}
		neighbors[a] = append(neighbors[a], b)
		neighbors[b] = append(neighbors[b], a)
	}
	for i := range neighbors {
		sort.Ints(neighbors[i])
		neighbors[i] = dedupeSorted(neighbors[i])
	}
	return &Network{n: nObjects, neighbors: neighbors}, nil
}

func dedupeSorted(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}

// NObjects returns the number of objects.
func (nw *Network) NObjects() int { return nw.n }

// Neighbors returns a read-only view of object i's sorted neighbour list.
func (nw *Network) Neighbors(i int) []int { return nw.neighbors[i] }

// Degree returns the number of neighbours of object i.
func (nw *Network) Degree(i int) int { return len(nw.neighbors[i]) }

// Frontier writes into dst the frontier of cluster: objects adjacent to at
// least one cluster member and not blocked by excluded. dst, cluster and
// excluded must all have length NObjects. Complexity: O(n + degree sum of
// the cluster members).
func (nw *Network) Frontier(cluster, excluded, dst []bool) error {
	if len(cluster) != nw.n || len(excluded) != nw.n || len(dst) != nw.n {
		return fmt.Errorf("%w: frontier over %d/%d/%d vectors, want %d",
			matrix.ErrDimensionMismatch, len(cluster), len(excluded), len(dst), nw.n)
	}
	for j := range dst {
		dst[j] = false
	}
	for i, in := range cluster {
		if !in {
			continue
		}
		for _, nb := range nw.neighbors[i] {
			if !excluded[nb] {
				dst[nb] = true
			}
		}
	}
	return nil
}

// Connected reports whether the subset induces a connected subgraph.
// An empty subset is vacuously connected. Used by growth diagnostics and
// tests; the sampler itself never needs it on a hot path.
func (nw *Network) Connected(subset []bool) bool {
	if len(subset) != nw.n {
		return false
	}
	start := matrix.FirstTrue(subset)
	if start < 0 {
		return true
	}
	seen := make([]bool, nw.n)
	queue := []int{start}
	seen[start] = true
	reached := 1
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range nw.neighbors[cur] {
			if subset[nb] && !seen[nb] {
				seen[nb] = true
				reached++
				queue = append(queue, nb)
			}
		}
	}
	return reached == matrix.CountTrue(subset)
}
