package sampling_test

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/sampling"
)

// gridNetwork builds a side×side 4-neighbour lattice.
func gridNetwork(b *testing.B, side int) *data.Network {
	b.Helper()
	edges := make([][2]int, 0, 2*side*(side-1))
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			id := r*side + c
			if c+1 < side {
				edges = append(edges, [2]int{id, id + 1})
			}
			if r+1 < side {
				edges = append(edges, [2]int{id, id + side})
			}
		}
	}
	nw, err := data.NewNetwork(side*side, edges)
	if err != nil {
		b.Fatalf("setup NewNetwork failed: %v", err)
	}
	return nw
}

// BenchmarkGrowClusterOfSizeK measures uniform frontier growth of a 25-object
// cluster on a 50×50 lattice (2500 objects).
// Complexity: O(k × degree sum of the grown region)
func BenchmarkGrowClusterOfSizeK(b *testing.B) {
	nw := gridNetwork(b, 50)
	src := rand.NewSource(42)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sampling.GrowClusterOfSizeK(nw, 25, nil, src); err != nil {
			b.Fatalf("growth failed: %v", err)
		}
	}
}

// BenchmarkEncodeArea measures the checkpoint rendering of one 2500-object
// membership row.
// Complexity: O(N)
func BenchmarkEncodeArea(b *testing.B) {
	nw := gridNetwork(b, 50)
	area, err := sampling.GrowClusterOfSizeK(nw, 25, nil, rand.NewSource(42))
	if err != nil {
		b.Fatalf("setup growth failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sampling.EncodeArea(area)
	}
}
