// SPDX-License-Identifier: MIT

// Package state: mutation entry points.
// Every mutation funnels through a setter here, and every setter marks the
// caches whose inputs it touched. Nothing else in the repository mutates a
// Sample's arrays, so the staleness bookkeeping is exhaustive by
// construction.

package state

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
)

// UpdateCluster moves one object in or out of cluster k and marks the
// cluster's rows dirty across every feature type. Adding an object that is
// already in some cluster returns ErrClusterOverlap; removing one that is
// not in cluster k returns ErrNotInCluster.
func (s *Sample) UpdateCluster(k, obj int, member bool) error {
	in, err := s.clusters.At(k, obj)
	if err != nil {
		return err
	}
	if member {
		if cur := s.ClusterOf(obj); cur >= 0 {
			return fmt.Errorf("%w: object %d in cluster %d", ErrClusterOverlap, obj, cur)
		}
	} else if !in {
		return fmt.Errorf("%w: object %d, cluster %d", ErrNotInCluster, obj, k)
	}
	if err := s.clusters.Set(k, obj, member); err != nil {
		return err
	}
	s.markClusterChanged(k)
	return nil
}

// SetClusters replaces the whole cluster assignment. Rows must stay
// disjoint. All cluster-derived caches are marked dirty.
func (s *Sample) SetClusters(clusters *matrix.Bool) error {
	if clusters.Rows() != s.shapes.NClusters || clusters.Cols() != s.shapes.NObjects {
		return fmt.Errorf("%w: clusters matrix", ErrShapeMismatch)
	}
	if err := checkDisjoint(clusters); err != nil {
		return err
	}
	if err := s.clusters.CopyFrom(clusters); err != nil {
		return err
	}
	for _, fs := range s.features {
		fs.suffStats[ClustersKey].MarkDirty(InputAssignment)
		fs.groupLH[ClustersKey].MarkDirty(InputSuffStats)
		fs.pointwise.MarkDirty(InputClusters)
		fs.normWeights.MarkDirty(InputClusters)
	}
	return nil
}

func (s *Sample) markClusterChanged(k int) {
	for _, fs := range s.features {
		fs.suffStats[ClustersKey].MarkDirty(InputAssignment, k)
		fs.groupLH[ClustersKey].MarkDirty(InputSuffStats, k)
		fs.pointwise.MarkDirty(InputClusters, k)
		fs.normWeights.MarkDirty(InputClusters)
	}
}

// SetWeights replaces the raw mixture weights of one feature type and marks
// weight normalization dirty. Group marginals do not depend on weights, so
// nothing else is touched.
func (s *Sample) SetWeights(t model.FeatureType, w *mat.Dense) error {
	fs, err := s.Feature(t)
	if err != nil {
		return err
	}
	wr, wc := w.Dims()
	fr, fc := fs.weights.Dims()
	if wr != fr || wc != fc {
		return fmt.Errorf("%w: %s weights %dx%d, want %dx%d", ErrShapeMismatch, t, wr, wc, fr, fc)
	}
	fs.weights.Copy(w)
	fs.normWeights.MarkDirty(InputWeights)
	return nil
}

// SetSourceOneHot re-attributes one (object, feature) cell of type t to the
// given mixture component and marks the sufficient statistics, group
// likelihoods and pointwise rows of every group containing the object.
func (s *Sample) SetSourceOneHot(t model.FeatureType, obj, feature, component int) error {
	fs, err := s.Feature(t)
	if err != nil {
		return err
	}
	if err := fs.source.SetOneHot(obj, feature, component); err != nil {
		return err
	}
	s.markSourceChanged(fs, obj)
	return nil
}

// SetSource replaces the whole source cube of one feature type and marks
// every source-derived cache of that type.
func (s *Sample) SetSource(t model.FeatureType, src *matrix.BoolCube) error {
	fs, err := s.Feature(t)
	if err != nil {
		return err
	}
	if err := fs.source.CopyFrom(src); err != nil {
		return err
	}
	for key := range fs.suffStats {
		fs.suffStats[key].MarkDirty(InputAssignment)
		fs.groupLH[key].MarkDirty(InputSuffStats)
		fs.pointwise.MarkDirty(PointwiseSuffStatsInput(key))
	}
	return nil
}

// markSourceChanged marks the caches of every group obj belongs to: its
// cluster under "clusters" and its group under each confounder.
func (s *Sample) markSourceChanged(fs *FeatureState, obj int) {
	if k := s.ClusterOf(obj); k >= 0 {
		fs.suffStats[ClustersKey].MarkDirty(InputAssignment, k)
		fs.groupLH[ClustersKey].MarkDirty(InputSuffStats, k)
		fs.pointwise.MarkDirty(PointwiseSuffStatsInput(ClustersKey), k)
	}
	for _, cf := range s.confounders {
		if g := cf.GroupOf(obj); g >= 0 {
			fs.suffStats[cf.Name()].MarkDirty(InputAssignment, g)
			fs.groupLH[cf.Name()].MarkDirty(InputSuffStats, g)
			fs.pointwise.MarkDirty(PointwiseSuffStatsInput(cf.Name()), g)
		}
	}
}

// EverythingChanged marks the entire cache tree dirty. Called after
// initialization and resume, where no incremental trail exists.
func (s *Sample) EverythingChanged() {
	for _, fs := range s.features {
		for _, cell := range fs.suffStats {
			cell.MarkAllDirty()
		}
		for _, cell := range fs.groupLH {
			cell.MarkAllDirty()
		}
		fs.pointwise.MarkAllDirty()
		fs.normWeights.MarkAllDirty()
	}
}
