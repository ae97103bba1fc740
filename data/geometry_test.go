// Package data_test: Gabriel-graph construction from site coordinates.
package data_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nataliacp/sBayes/data"
)

func TestNewNetworkFromCoordinatesRejectsTooFew(t *testing.T) {
	_, err := data.NewNetworkFromCoordinates(nil)
	assert.ErrorIs(t, err, data.ErrBadCoordinates)

	_, err = data.NewNetworkFromCoordinates([]data.Point{{X: 0, Y: 0}})
	assert.ErrorIs(t, err, data.ErrBadCoordinates)
}

func TestGabrielGraphOnCollinearSites(t *testing.T) {
	// Sites on a line: each inner site blocks the long edges through it, so
	// the Gabriel graph of a line is the path graph.
	nw, err := data.NewNetworkFromCoordinates([]data.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3.5, Y: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, nw.Neighbors(0))
	assert.Equal(t, []int{0, 2}, nw.Neighbors(1))
	assert.Equal(t, []int{1, 3}, nw.Neighbors(2))
	assert.Equal(t, []int{2}, nw.Neighbors(3))
}

func TestGabrielGraphBlocksThroughMidpoint(t *testing.T) {
	// An equilateral-ish triangle keeps all three edges; dropping a fourth
	// site near the centre of the longest edge removes it.
	triangle := []data.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 2, Y: 3}}
	nw, err := data.NewNetworkFromCoordinates(triangle)
	require.NoError(t, err)
	assert.Equal(t, 2, nw.Degree(0))
	assert.Equal(t, 2, nw.Degree(1))
	assert.Equal(t, 2, nw.Degree(2))

	blocked, err := data.NewNetworkFromCoordinates(append(triangle, data.Point{X: 2, Y: -0.5}))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, blocked.Neighbors(0), "long base edge is gone")
	assert.Equal(t, []int{2, 3}, blocked.Neighbors(1))
	assert.Equal(t, []int{0, 1, 2}, blocked.Neighbors(3))
}

func TestGabrielGraphIsConnected(t *testing.T) {
	// The Gabriel graph contains the Euclidean minimum spanning tree, so any
	// set of sites must come out connected. Irregular fixed layout.
	sites := []data.Point{
		{X: 0.3, Y: 7.1}, {X: 2.0, Y: 1.5}, {X: 4.4, Y: 6.2}, {X: 5.1, Y: 0.4},
		{X: 7.8, Y: 3.3}, {X: 9.2, Y: 8.0}, {X: 1.1, Y: 4.0}, {X: 6.6, Y: 6.9},
		{X: 8.4, Y: 0.9}, {X: 3.7, Y: 3.8},
	}
	nw, err := data.NewNetworkFromCoordinates(sites)
	require.NoError(t, err)

	all := make([]bool, nw.NObjects())
	for i := range all {
		all[i] = true
	}
	assert.True(t, nw.Connected(all))
}

func TestGabrielGraphCoincidentSites(t *testing.T) {
	nw, err := data.NewNetworkFromCoordinates([]data.Point{
		{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 5, Y: 1},
	})
	require.NoError(t, err)

	// Coincident sites are adjacent to each other and do not cut the rest off.
	assert.Contains(t, nw.Neighbors(0), 1)
	all := []bool{true, true, true}
	assert.True(t, nw.Connected(all))
}
