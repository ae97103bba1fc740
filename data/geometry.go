// SPDX-License-Identifier: MIT

// Package data: adjacency from point locations.
// When a dataset ships site coordinates instead of an explicit edge list,
// the network is the Gabriel graph of the locations: a planar proximity
// graph that keeps an edge (i, j) unless some third site sits strictly
// inside the disk with diameter ij. The Gabriel graph is a subgraph of the
// Delaunay triangulation and a supergraph of the Euclidean minimum spanning
// tree, so it is always connected and clusters can grow anywhere.

package data

import (
	"errors"
	"fmt"
)

// ErrBadCoordinates is returned when a coordinate-based construction
// receives fewer than two locations.
var ErrBadCoordinates = errors.New("data: need at least two locations")

// Point is one site location in the plane.
type Point struct {
	X, Y float64
}

// NewNetworkFromCoordinates builds the Gabriel graph over the given site
// locations.
//
// Description:
//
//	Sites i and j stay adjacent unless a third site k lies strictly inside
//	the circle with diameter ij, which by Thales' theorem is exactly the
//	condition d²(i,k) + d²(k,j) < d²(i,j). Coincident sites never block an
//	edge and end up adjacent to each other.
//
// Complexity: O(n³) worst case; each pair stops at its first blocker.
func NewNetworkFromCoordinates(locations []Point) (*Network, error) {
	n := len(locations)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrBadCoordinates, n)
	}
	var edges [][2]int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if gabrielEdge(locations, i, j) {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return NewNetwork(n, edges)
}

// gabrielEdge reports whether no third site falls strictly inside the disk
// with diameter (i, j).
func gabrielEdge(locations []Point, i, j int) bool {
	dij := sqDist(locations[i], locations[j])
	for k := range locations {
		if k == i || k == j {
			continue
		}
		if sqDist(locations[i], locations[k])+sqDist(locations[k], locations[j]) < dij {
			return false
		}
	}
	return true
}

func sqDist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
