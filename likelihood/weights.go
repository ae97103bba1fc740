// SPDX-License-Identifier: MIT

package likelihood

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
	"github.com/nataliacp/sBayes/state"
)

// ErrWeightShape is returned when the weight matrix and the availability
// matrix disagree on the number of mixture components.
var ErrWeightShape = errors.New("likelihood: weights and availability shapes disagree")

// NormalizeWeights spreads the per-feature mixture weights over the objects,
// masking components an object cannot be explained by and renormalizing the
// rest.
//
// Description:
//
//	weights holds one row per feature with one column per mixture
//	component (cluster first, confounders after). has holds one row per
//	object flagging which components apply to it: the cluster column is
//	set while the object sits in some cluster, a confounder column while
//	the object belongs to one of its groups. The result is an
//	(objects × features × components) cube: row vectors proportional to
//	weights on the applicable components and zero elsewhere, summing to
//	one. Rows of objects with no applicable component at all stay zero.
//
//	Objects sharing an availability row share the normalized weights, so
//	the renormalization runs once per distinct row and is broadcast back.
//
// Complexity: O(P·F·C + N·F·C) time with P distinct availability rows.
func NormalizeWeights(weights *mat.Dense, has *matrix.Bool) (*matrix.Cube, error) {
	nf, nc := weights.Dims()
	n := has.Rows()
	if has.Cols() != nc {
		return nil, ErrWeightShape
	}

	out, err := matrix.NewCube(n, nf, nc)
	if err != nil {
		return nil, err
	}

	patterns := make(map[string][]float64, 4)
	key := make([]byte, nc)
	for obj := 0; obj < n; obj++ {
		row := has.Row(obj)
		for c, ok := range row {
			if ok {
				key[c] = '1'
			} else {
				key[c] = '0'
			}
		}
		slab, ok := patterns[string(key)]
		if !ok {
			slab = normalizePattern(weights, row)
			patterns[string(key)] = slab
		}
		copy(out.Slab(obj), slab)
	}
	return out, nil
}

// normalizePattern renormalizes every weight row over the components the
// pattern allows. The slab is laid out feature-major, matching Cube slabs.
func normalizePattern(weights *mat.Dense, pattern []bool) []float64 {
	nf, nc := weights.Dims()
	slab := make([]float64, nf*nc)
	for f := 0; f < nf; f++ {
		sum := 0.0
		for c, ok := range pattern {
			if ok {
				sum += weights.At(f, c)
			}
		}
		if sum <= 0 {
			continue
		}
		for c, ok := range pattern {
			if ok {
				slab[f*nc+c] = weights.At(f, c) / sum
			}
		}
	}
	return slab
}

// UpdateWeights returns the normalized weight cube of one feature type,
// recomputing it only when the weights or the component availability
// changed (or when caching is off).
func (l *Likelihood) UpdateWeights(s *state.Sample, t model.FeatureType, caching bool) (*matrix.Cube, error) {
	fs, err := s.Feature(t)
	if err != nil {
		return nil, err
	}
	cell := fs.NormalizedWeights()
	if !caching || cell.IsOutdated() {
		has, err := s.ComponentAvailability()
		if err != nil {
			return nil, err
		}
		cube, err := NormalizeWeights(fs.Weights(), has)
		if err != nil {
			return nil, err
		}
		cell.UpdateValue(cube)
	}
	return cell.Value(), nil
}
