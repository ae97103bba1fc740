// SPDX-License-Identifier: MIT

// Package state: sufficient-statistics maintenance.
// Statistics are recomputed slab by slab: WhatChanged names the groups
// whose membership or attribution moved, and only those slabs are rebuilt
// from the raw observations. A slab rebuild is O(group size × features),
// which is exactly the work an incremental update would have to verify
// anyway at this granularity.

package state

import (
	"fmt"
	"math"

	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
)

// UpdateSufficientStats brings the statistics of one feature type and group
// key up to date. With caching enabled only the slabs of changed groups are
// rebuilt; with caching disabled every slab is.
func UpdateSufficientStats(s *Sample, feats *data.Features, t model.FeatureType, groupKey string, caching bool) error {
	fs, err := s.Feature(t)
	if err != nil {
		return err
	}
	cell, err := fs.SufficientStats(groupKey)
	if err != nil {
		return err
	}
	comp, err := s.ComponentOf(groupKey)
	if err != nil {
		return err
	}
	if !feats.Has(t) {
		return fmt.Errorf("%w: no %s block in data", ErrShapeMismatch, t)
	}
	return cell.Edit(func(stats *matrix.Cube) error {
		for _, g := range cell.WhatChanged(caching, InputAssignment) {
			members, err := s.GroupRow(groupKey, g)
			if err != nil {
				return err
			}
			switch t {
			case model.Categorical:
				accumulateCounts(stats, g, members, feats.Categorical, fs.source, comp)
			case model.Poisson:
				accumulatePoissonMoments(stats, g, members, feats.Poisson, fs.source, comp)
			default:
				accumulateGaussianMoments(stats, g, members, feats.Continuous(t), fs.source, comp)
			}
		}
		return nil
	})
}

// EnsureSufficientStats brings every statistics cell of the sample up to
// date. The likelihood calls this before reading any statistic.
func EnsureSufficientStats(s *Sample, feats *data.Features, caching bool) error {
	for _, t := range s.FeatureTypes() {
		for _, key := range s.GroupKeys() {
			if err := UpdateSufficientStats(s, feats, t, key, caching); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecalculateSufficientStats rebuilds every statistics slab from scratch,
// regardless of staleness marks. Used at initialization and resume.
func RecalculateSufficientStats(s *Sample, feats *data.Features) error {
	return EnsureSufficientStats(s, feats, false)
}

// accumulateCounts rebuilds one categorical counts slab: per feature, the
// number of in-component group members observed in each state. NA
// observations (all-false one-hot) contribute nothing.
func accumulateCounts(stats *matrix.Cube, g int, members []bool, block *data.CategoricalFeatures, source *matrix.BoolCube, comp int) {
	stats.ZeroSlab(g)
	_, nf, _ := block.Values.Dims()
	for obj, in := range members {
		if !in {
			continue
		}
		for f := 0; f < nf; f++ {
			if !source.Vec(obj, f)[comp] {
				continue
			}
			k := matrix.FirstTrue(block.Values.Vec(obj, f))
			if k < 0 {
				continue
			}
			stats.Vec(g, f)[k]++
		}
	}
}

// accumulateGaussianMoments rebuilds one moment slab for Gaussian or
// logit-normal features: counts, sums and sums of squares over all non-NA
// group members and over the in-component subset.
func accumulateGaussianMoments(stats *matrix.Cube, g int, members []bool, block *data.ContinuousFeatures, source *matrix.BoolCube, comp int) {
	stats.ZeroSlab(g)
	_, nf := block.Values.Dims()
	for obj, in := range members {
		if !in {
			continue
		}
		row := block.Values.RawRowView(obj)
		for f := 0; f < nf; f++ {
			v := row[f]
			if math.IsNaN(v) {
				continue
			}
			m := stats.Vec(g, f)
			m[MomNAll]++
			m[MomSumAll] += v
			m[MomSqAll] += v * v
			if source.Vec(obj, f)[comp] {
				m[MomNIn]++
				m[MomSumIn] += v
				m[MomSqIn] += v * v
			}
		}
	}
}

// accumulatePoissonMoments rebuilds one Poisson moment slab: all-member and
// in-component counts and sums, plus the in-component sum of lgamma(x+1)
// needed by the gamma marginal.
func accumulatePoissonMoments(stats *matrix.Cube, g int, members []bool, block *data.ContinuousFeatures, source *matrix.BoolCube, comp int) {
	stats.ZeroSlab(g)
	_, nf := block.Values.Dims()
	for obj, in := range members {
		if !in {
			continue
		}
		row := block.Values.RawRowView(obj)
		for f := 0; f < nf; f++ {
			v := row[f]
			if math.IsNaN(v) {
				continue
			}
			m := stats.Vec(g, f)
			m[PoisNAll]++
			m[PoisSumAll] += v
			if source.Vec(obj, f)[comp] {
				m[PoisNIn]++
				m[PoisSumIn] += v
				lg, _ := math.Lgamma(v + 1)
				m[PoisLGammaIn] += lg
			}
		}
	}
}
