// SPDX-License-Identifier: MIT

// Package sampling: cluster growth.
// Clusters grow one frontier object at a time, so every grown cluster is a
// connected subgraph of the network by construction. Uniform growth seeds
// the initial shapes; informed growth weights frontier candidates by the
// cluster's posterior predictive density.

package sampling

import (
	"errors"
	"math"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/state"
)

var (
	// ErrClusterGrowth is returned when a cluster cannot be grown to the
	// requested size: no free seed object, or an empty frontier before the
	// target size is reached. Callers recover by retrying with a fresh seed
	// or by accepting a smaller cluster.
	ErrClusterGrowth = errors.New("sampling: cluster growth failed")

	// ErrInitialSizeTooLarge is returned when repeated whole-initialization
	// attempts cannot place all clusters at the configured size.
	ErrInitialSizeTooLarge = errors.New("sampling: initial cluster size too large for the network")
)

const (
	// growAttempts bounds the reseeding retries of one growth call.
	growAttempts = 20

	// maxGrowFailures bounds the whole-initialization retries before the
	// configuration is declared infeasible.
	maxGrowFailures = 1000

	// shrinkEvery and shrinkFloor control the fallback ladder: after every
	// shrinkEvery failures the target size drops by one, never below the
	// floor.
	shrinkEvery = 20
	shrinkFloor = 3
)

// GrowClusterOfSizeK grows one connected cluster of exactly k objects,
// avoiding objects marked in occupied. On success the new members are also
// marked in occupied, so consecutive calls grow disjoint clusters. A nil
// occupied vector means every object is free; a nil src falls back to the
// deterministic default stream.
//
// Description:
//   stage 1: seed the cluster with one uniformly chosen free object;
//   stage 2: repeat k-1 times, adding one uniformly chosen frontier object;
//   stage 3: on a dead end (no seed, empty frontier), reseed and retry,
//            up to 20 times, then report ErrClusterGrowth.
//
// Complexity: O(attempts × k × degree sum) time, O(n) space.
func GrowClusterOfSizeK(nw *data.Network, k int, occupied []bool, src rand.Source) ([]bool, error) {
	if nw == nil {
		return nil, pkgerrors.Wrap(ErrConfig, "nil network")
	}
	if k < 1 {
		return nil, pkgerrors.Wrapf(ErrConfig, "cluster size %d", k)
	}
	if occupied == nil {
		occupied = make([]bool, nw.NObjects())
	}
	if len(occupied) != nw.NObjects() {
		return nil, pkgerrors.Wrapf(ErrConfig, "occupied vector covers %d objects, network %d",
			len(occupied), nw.NObjects())
	}
	var rng *rand.Rand
	if src == nil {
		rng = streamFromSeed(0).Rand
	} else {
		rng = rand.New(src)
	}

	var lastErr error
	for i := 0; i < growAttempts; i++ {
		cluster, err := growClusterOnce(nw, k, occupied, rng)
		if err == nil {
			for j, in := range cluster {
				if in {
					occupied[j] = true
				}
			}
			return cluster, nil
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrapf(lastErr, "after %d attempts", growAttempts)
}

// growClusterOnce is a single seed-and-grow pass. It works on a scratch copy
// of occupied, so a dead end leaves the caller's bookkeeping untouched.
func growClusterOnce(nw *data.Network, k int, occupied []bool, rng *rand.Rand) ([]bool, error) {
	n := nw.NObjects()
	blocked := make([]bool, n)
	copy(blocked, occupied)
	cluster := make([]bool, n)

	free := make([]int, 0, n)
	for i, in := range blocked {
		if !in {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return nil, pkgerrors.Wrap(ErrClusterGrowth, "no free seed object")
	}
	seed := free[rng.Intn(len(free))]
	cluster[seed] = true
	blocked[seed] = true

	frontier := make([]bool, n)
	for size := 1; size < k; size++ {
		if err := nw.Frontier(cluster, blocked, frontier); err != nil {
			return nil, err
		}
		cands := trueIndices(frontier)
		if len(cands) == 0 {
			return nil, pkgerrors.Wrapf(ErrClusterGrowth, "empty frontier at size %d of %d", size, k)
		}
		next := cands[rng.Intn(len(cands))]
		cluster[next] = true
		blocked[next] = true
	}
	return cluster, nil
}

// GrowRandomClusters grows every cluster of the model to the configured
// initial size before any likelihood is consulted. Because unfavourable
// seeds can wall a later cluster in, failed passes restart from scratch;
// after every 20 failures the target size shrinks by one (never below 3),
// and after 1000 failures the configuration is reported infeasible.
// A nil src falls back to the initializer's seed.
func (ini *Initializer) GrowRandomClusters(src rand.Source) (*matrix.Bool, error) {
	var rng *rand.Rand
	if src == nil {
		rng = streamFromSeed(ini.seed).Rand
	} else {
		rng = rand.New(src)
	}
	n := ini.shapes.NObjects
	size := ini.initialSize
	failures := 0
	for {
		rows, err := matrix.NewBool(ini.shapes.NClusters, n)
		if err != nil {
			return nil, err
		}
		occupied := make([]bool, n)
		grown := 0
		for k := 0; k < ini.shapes.NClusters; k++ {
			cluster, err := growClusterOnce(ini.network, size, occupied, rng)
			if err != nil {
				break
			}
			for j, in := range cluster {
				if !in {
					continue
				}
				occupied[j] = true
				if err := rows.Set(k, j, true); err != nil {
					return nil, err
				}
			}
			grown++
		}
		if grown == ini.shapes.NClusters {
			return rows, nil
		}
		failures++
		if failures >= maxGrowFailures {
			return nil, pkgerrors.Wrapf(ErrInitialSizeTooLarge,
				"%d failed attempts at size %d; use fewer or smaller clusters", failures, size)
		}
		if failures%shrinkEvery == 0 && size > shrinkFloor {
			size--
			ini.log.Warn("reducing initial cluster size after repeated growth failures",
				"initial_size", size, "failures", failures)
		}
	}
}

// growInformed adds one frontier object to cluster k, drawn with probability
// proportional to the cluster's posterior predictive density over all feature
// types, then Gibbs-updates the new member's source cells. Returns false
// without touching the sample when the cluster has no frontier.
func (ini *Initializer) growInformed(s *state.Sample, k int, st *stream) (bool, error) {
	n := ini.shapes.NObjects
	occupied := make([]bool, n)
	if err := s.Clusters().ColumnOr(occupied); err != nil {
		return false, err
	}
	frontier := make([]bool, n)
	if err := ini.network.Frontier(s.ClusterRow(k), occupied, frontier); err != nil {
		return false, err
	}
	cands := trueIndices(frontier)
	if len(cands) == 0 {
		return false, nil
	}

	logw := make([]float64, len(cands))
	for _, t := range s.FeatureTypes() {
		cond, err := ini.lh.PointwiseConditionalClusterLh(s, t, k, frontier)
		if err != nil {
			return false, err
		}
		nf := ini.shapes.NFeatures[t]
		for j, obj := range cands {
			for f := 0; f < nf; f++ {
				logw[j] += math.Log(cond.At(obj, f))
			}
		}
	}

	obj := cands[pickLogWeighted(logw, st)]
	if err := s.UpdateCluster(k, obj, true); err != nil {
		return false, err
	}
	if err := resampleObjectSource(ini.lh, s, obj, st.src); err != nil {
		return false, err
	}
	return true, nil
}

// improveCluster runs informed growth steps on cluster k until one succeeds,
// reseeding up to the retry budget. A cluster with a permanently empty
// frontier fails with ErrClusterGrowth.
func (ini *Initializer) improveCluster(s *state.Sample, k int, st *stream) error {
	for i := 0; i < growAttempts; i++ {
		grew, err := ini.growInformed(s, k, st)
		if err != nil {
			return err
		}
		if grew {
			return nil
		}
	}
	return pkgerrors.Wrapf(ErrClusterGrowth, "cluster %d has no frontier after %d attempts", k, growAttempts)
}

// pickLogWeighted draws an index with probability proportional to
// exp(logw - max(logw)). When every weight underflows to -Inf the draw falls
// back to uniform, keeping growth alive on data none of the candidates fit.
func pickLogWeighted(logw []float64, st *stream) int {
	maxw := floats.Max(logw)
	if math.IsInf(maxw, -1) {
		return st.Intn(len(logw))
	}
	w := make([]float64, len(logw))
	for i, lw := range logw {
		w[i] = math.Exp(lw - maxw)
	}
	return int(distuv.NewCategorical(w, st.src).Rand())
}

func trueIndices(v []bool) []int {
	out := make([]int, 0, matrix.CountTrue(v))
	for i, in := range v {
		if in {
			out = append(out, i)
		}
	}
	return out
}
