// SPDX-License-Identifier: MIT

package likelihood

import (
	"errors"
	"log/slog"

	pkgerrors "github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
	"github.com/nataliacp/sBayes/state"
)

// NOTE ON NAMING & PREFIXING
// Sentinel errors carry the "likelihood:" prefix so a wrapped chain names
// the package that raised it. Callers match with errors.Is.
var (
	// ErrTypeUnavailable is returned when a feature type without data (and
	// hence without an engine) is requested.
	ErrTypeUnavailable = errors.New("likelihood: feature type not in data")

	// ErrCacheInconsistent is returned by the consistency checks when a
	// cached value diverges from a from-scratch recomputation.
	ErrCacheInconsistent = errors.New("likelihood: cache diverges from recomputation")
)

// checkTol is the absolute tolerance of the consistency checks.
const checkTol = 1e-9

// options configures the aggregate likelihood.
type options struct {
	log   *slog.Logger
	check bool
}

// Option is a functional option for New.
type Option func(*options)

// WithLogger routes diagnostics to the given structured logger. The process
// default logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithConsistencyChecks re-derives every cached pointwise table from scratch
// after each cached update and fails with ErrCacheInconsistent on
// divergence. Meant for debugging staleness bookkeeping; the extra
// recomputation defeats the cache, so keep it off in production runs.
func WithConsistencyChecks() Option {
	return func(o *options) {
		o.check = true
	}
}

// Likelihood evaluates the mixture likelihood of the model: per feature
// type, each observation is explained by its cluster effect or by one of
// the confounder group effects, with group effects integrated out under
// conjugate priors. One Likelihood serves many Samples; all per-state
// caching lives in the Sample's cells.
type Likelihood struct {
	feats   *data.Features
	prior   *model.Prior
	shapes  model.Shapes
	engines map[model.FeatureType]Engine
	order   []model.FeatureType
	log     *slog.Logger
	check   bool
}

// New validates the data and prior against the shapes and builds one engine
// per feature type present in the data.
func New(feats *data.Features, prior *model.Prior, shapes model.Shapes, opts ...Option) (*Likelihood, error) {
	if err := shapes.Validate(); err != nil {
		return nil, err
	}
	if err := feats.Validate(shapes); err != nil {
		return nil, err
	}
	if err := prior.Validate(shapes); err != nil {
		return nil, err
	}
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Likelihood{
		feats:   feats,
		prior:   prior,
		shapes:  shapes,
		engines: make(map[model.FeatureType]Engine),
		log:     o.log,
		check:   o.check,
	}
	for _, t := range model.FeatureTypes() {
		if !feats.Has(t) {
			continue
		}
		switch t {
		case model.Categorical:
			l.engines[t] = &categoricalEngine{block: feats.Categorical, prior: prior}
		case model.Poisson:
			l.engines[t] = &poissonEngine{block: feats.Poisson, prior: prior}
		default:
			l.engines[t] = &gaussianEngine{t: t, block: feats.Continuous(t), prior: prior}
		}
		l.order = append(l.order, t)
	}
	return l, nil
}

// Engine returns the engine of one feature type.
func (l *Likelihood) Engine(t model.FeatureType) (Engine, error) {
	eng, ok := l.engines[t]
	if !ok {
		return nil, pkgerrors.Wrapf(ErrTypeUnavailable, "%s", t)
	}
	return eng, nil
}

// Features returns the observations the likelihood was built over.
func (l *Likelihood) Features() *data.Features { return l.feats }

// Shapes returns the model shapes the likelihood was validated against.
func (l *Likelihood) Shapes() model.Shapes { return l.shapes }

// Total returns the log-likelihood of the whole sample: the sum over feature
// types and group keys of the groups' marginal likelihoods. With caching
// enabled only groups whose inputs changed are recomputed; the result is
// identical either way.
func (l *Likelihood) Total(s *state.Sample, caching bool) (float64, error) {
	if err := state.EnsureSufficientStats(s, l.feats, caching); err != nil {
		return 0, err
	}
	total := 0.0
	for _, t := range l.order {
		eng := l.engines[t]
		for _, key := range s.GroupKeys() {
			term, err := l.groupTerm(s, eng, key, caching)
			if err != nil {
				return 0, pkgerrors.Wrapf(err, "group term %s/%s", t, key)
			}
			total += term
		}
	}
	return total, nil
}

// groupTerm brings one group-likelihood cell up to date and returns the sum
// over all of its groups. Recomputation is per changed group; the sum always
// covers every group.
func (l *Likelihood) groupTerm(s *state.Sample, eng Engine, groupKey string, caching bool) (float64, error) {
	fs, err := s.Feature(eng.Type())
	if err != nil {
		return 0, err
	}
	cell, err := fs.GroupLikelihoods(groupKey)
	if err != nil {
		return 0, err
	}
	total := 0.0
	err = cell.Edit(func(lh []float64) error {
		for _, g := range cell.WhatChanged(caching, state.InputSuffStats) {
			v, err := eng.GroupMarginal(s, groupKey, g)
			if err != nil {
				return err
			}
			lh[g] = v
		}
		total = floats.Sum(lh)
		return nil
	})
	return total, err
}

// ComponentLikelihoods brings the pointwise cube of one feature type up to
// date and returns it: per object, feature and mixture component, the
// posterior-predictive density of the observation under that component's
// group effect. Rows of unobserved values hold the neutral 1.
func (l *Likelihood) ComponentLikelihoods(s *state.Sample, t model.FeatureType, caching bool) (*matrix.Cube, error) {
	eng, err := l.Engine(t)
	if err != nil {
		return nil, err
	}
	if err := state.EnsureSufficientStats(s, l.feats, caching); err != nil {
		return nil, err
	}
	fs, err := s.Feature(t)
	if err != nil {
		return nil, err
	}
	cell := fs.Pointwise()
	if caching && !cell.IsOutdated() {
		return cell.Value(), nil
	}

	err = cell.Edit(func(pw *matrix.Cube) error {
		changed := cell.WhatChanged(caching,
			state.InputClusters, state.PointwiseSuffStatsInput(state.ClustersKey))
		if err := l.applyCluster(s, eng, pw, changed); err != nil {
			return err
		}
		for i, cf := range s.Confounders() {
			changed := cell.WhatChanged(caching, state.PointwiseSuffStatsInput(cf.Name()))
			if err := l.applyConfounder(s, eng, pw, cf, i+1, changed); err != nil {
				return err
			}
		}
		l.patchNA(pw, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if caching && l.check {
		if err := l.checkPointwise(s, eng, cell.Value()); err != nil {
			return nil, err
		}
	}
	return cell.Value(), nil
}

// applyCluster recomputes the cluster component column for the members of
// the changed clusters and zeroes it for objects in no cluster.
func (l *Likelihood) applyCluster(s *state.Sample, eng Engine, pw *matrix.Cube, changed []int) error {
	if len(changed) == 0 {
		return nil
	}
	n, nf, _ := pw.Dims()
	for obj := 0; obj < n; obj++ {
		if s.ClusterOf(obj) >= 0 {
			continue
		}
		for f := 0; f < nf; f++ {
			pw.Vec(obj, f)[0] = 0
		}
	}
	for _, g := range changed {
		if err := eng.PointwiseGroup(s, pw, state.ClustersKey, 0, g); err != nil {
			return err
		}
	}
	return nil
}

// applyConfounder recomputes one confounder's component column for the
// members of the changed groups and zeroes it for ungrouped objects.
func (l *Likelihood) applyConfounder(s *state.Sample, eng Engine, pw *matrix.Cube, cf *data.Confounder, component int, changed []int) error {
	if len(changed) == 0 {
		return nil
	}
	n, nf, _ := pw.Dims()
	grouped := cf.AnyGroup()
	for obj := 0; obj < n; obj++ {
		if grouped[obj] {
			continue
		}
		for f := 0; f < nf; f++ {
			pw.Vec(obj, f)[component] = 0
		}
	}
	for _, g := range changed {
		if err := eng.PointwiseGroup(s, pw, cf.Name(), component, g); err != nil {
			return err
		}
	}
	return nil
}

// patchNA overwrites the pointwise rows of unobserved values with the
// neutral 1 so they drop out of likelihood products. Idempotent.
func (l *Likelihood) patchNA(pw *matrix.Cube, t model.FeatureType) {
	na := l.feats.NAMask(t)
	if na == nil {
		return
	}
	n, nf, nc := pw.Dims()
	for obj := 0; obj < n; obj++ {
		for f := 0; f < nf; f++ {
			missing, err := na.At(obj, f)
			if err != nil || !missing {
				continue
			}
			vec := pw.Vec(obj, f)
			for c := 0; c < nc; c++ {
				vec[c] = 1
			}
		}
	}
}

// checkPointwise re-derives the pointwise cube from scratch and compares it
// to the cached value. Only active under WithConsistencyChecks.
func (l *Likelihood) checkPointwise(s *state.Sample, eng Engine, cached *matrix.Cube) error {
	n0, n1, n2 := cached.Dims()
	scratch, err := matrix.NewCube(n0, n1, n2)
	if err != nil {
		return err
	}
	if err := l.recomputePointwise(s, eng, scratch); err != nil {
		return err
	}
	for i := 0; i < n0; i++ {
		if !floats.EqualApprox(cached.Slab(i), scratch.Slab(i), checkTol) {
			l.log.Error("pointwise cache check failed",
				"type", string(eng.Type()), "object", i)
			return pkgerrors.Wrapf(ErrCacheInconsistent, "pointwise %s, object %d", eng.Type(), i)
		}
	}
	return nil
}

// recomputePointwise fills a scratch cube with a full pointwise evaluation,
// bypassing all cells.
func (l *Likelihood) recomputePointwise(s *state.Sample, eng Engine, pw *matrix.Cube) error {
	nClusters := s.Shapes().NClusters
	all := make([]int, nClusters)
	for i := range all {
		all[i] = i
	}
	if err := l.applyCluster(s, eng, pw, all); err != nil {
		return err
	}
	for i, cf := range s.Confounders() {
		groups := make([]int, cf.NGroups())
		for g := range groups {
			groups[g] = g
		}
		if err := l.applyConfounder(s, eng, pw, cf, i+1, groups); err != nil {
			return err
		}
	}
	l.patchNA(pw, eng.Type())
	return nil
}

// PointwiseLikelihood returns the (objects × features) mixture likelihood of
// one feature type: per cell, the normalized-weight average of the component
// densities.
func (l *Likelihood) PointwiseLikelihood(s *state.Sample, t model.FeatureType, caching bool) (*mat.Dense, error) {
	pw, err := l.ComponentLikelihoods(s, t, caching)
	if err != nil {
		return nil, err
	}
	w, err := l.UpdateWeights(s, t, caching)
	if err != nil {
		return nil, err
	}
	n, nf, _ := pw.Dims()
	out := mat.NewDense(n, nf, nil)
	for obj := 0; obj < n; obj++ {
		for f := 0; f < nf; f++ {
			out.Set(obj, f, floats.Dot(w.Vec(obj, f), pw.Vec(obj, f)))
		}
	}
	return out, nil
}

// PointwiseConditionalClusterLh returns the (objects × features) density of
// the candidate objects under cluster k's current posterior predictive.
// Informed growth proposals use it to weigh candidates; rows of
// non-candidates are zero.
func (l *Likelihood) PointwiseConditionalClusterLh(s *state.Sample, t model.FeatureType, k int, candidates []bool) (*mat.Dense, error) {
	eng, err := l.Engine(t)
	if err != nil {
		return nil, err
	}
	if err := state.EnsureSufficientStats(s, l.feats, true); err != nil {
		return nil, err
	}
	nf := l.shapes.NFeatures[t]
	out := mat.NewDense(l.shapes.NObjects, nf, nil)
	if err := eng.ConditionalClusterLh(s, k, candidates, out); err != nil {
		return nil, err
	}
	return out, nil
}
