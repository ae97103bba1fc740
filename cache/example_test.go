package cache_test

import (
	"fmt"

	"github.com/nataliacp/sBayes/cache"
)

// ExampleCell shows the maintenance loop of a per-group cache: mark the
// groups whose inputs changed, recompute only those rows inside an Edit
// scope, and aggregate over the full value afterwards.
func ExampleCell() {
	logLH := cache.NewCell(make([]float64, 3), map[string]int{
		"sufficient_stats": 3,
	})

	recompute := func() {
		_ = logLH.Edit(func(v []float64) error {
			for _, g := range logLH.WhatChanged(true, "sufficient_stats") {
				v[g] = float64(g) * 10 // stand-in for a likelihood kernel
				fmt.Println("recomputed group", g)
			}
			return nil
		})
	}

	recompute() // fresh cell: every group
	logLH.MarkDirty("sufficient_stats", 1)
	recompute() // only group 1

	total := 0.0
	for _, x := range logLH.Value() {
		total += x
	}
	fmt.Println("total", total)

	// Output:
	// recomputed group 0
	// recomputed group 1
	// recomputed group 2
	// recomputed group 1
	// total 30
}
