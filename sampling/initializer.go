// SPDX-License-Identifier: MIT

// Package sampling: initial sample construction.
// A chain cannot start from an arbitrary state: clusters must be connected,
// the source attribution legal, and the sufficient statistics consistent
// with both. The Initializer builds such a state from scratch, repeating the
// whole construction a configurable number of times and keeping the
// highest-likelihood result.

package sampling

import (
	"errors"
	"log/slog"
	"math"

	pkgerrors "github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/likelihood"
	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
	"github.com/nataliacp/sBayes/state"
)

// ErrConfig is returned for initializer configurations that can never
// produce a valid sample.
var ErrConfig = errors.New("sampling: invalid initializer configuration")

const (
	defaultAttempts    = 1
	defaultInitialSize = 3
)

// options configures an Initializer.
type options struct {
	attempts    int
	initialSize int
	improve     bool
	pregrow     bool
	seed        uint64
	log         *slog.Logger
}

// Option is a functional option for NewInitializer.
type Option func(*options)

// WithAttempts sets how many full initialization attempts are run; the
// attempt with the highest total log-likelihood wins. Default 1.
func WithAttempts(n int) Option {
	return func(o *options) {
		o.attempts = n
	}
}

// WithInitialSize sets the number of objects each cluster is grown to.
// Default 3.
func WithInitialSize(k int) Option {
	return func(o *options) {
		o.initialSize = k
	}
}

// WithImprovementSteps grows every cluster by one extra informed step after
// the regular pipeline. A cluster that is walled in and cannot grow fails
// the initialization with ErrClusterGrowth.
func WithImprovementSteps() Option {
	return func(o *options) {
		o.improve = true
	}
}

// WithPregrownClusters grows every cluster to the initial size by uniform
// frontier growth before any likelihood is consulted, instead of seeding
// single objects and growing them informed.
func WithPregrownClusters() Option {
	return func(o *options) {
		o.pregrow = true
	}
}

// WithSeed fixes the random stream. Seed 0 selects the stable default seed,
// so every configuration is deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithLogger routes diagnostics to the given structured logger. The process
// default logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// Initializer builds the initial sample of an MCMC chain: seeded clusters,
// uniform mixture weights, a prior-imputed source attribution, and informed
// growth to the target cluster size.
type Initializer struct {
	lh          *likelihood.Likelihood
	confounders []*data.Confounder
	network     *data.Network
	shapes      model.Shapes

	attempts    int
	initialSize int
	improve     bool
	pregrow     bool
	seed        uint64
	log         *slog.Logger
}

// NewInitializer validates the configuration against the likelihood's shapes
// and the network.
func NewInitializer(lh *likelihood.Likelihood, confounders []*data.Confounder, nw *data.Network, opts ...Option) (*Initializer, error) {
	if lh == nil {
		return nil, pkgerrors.Wrap(ErrConfig, "nil likelihood")
	}
	if nw == nil {
		return nil, pkgerrors.Wrap(ErrConfig, "nil network")
	}
	o := options{
		attempts:    defaultAttempts,
		initialSize: defaultInitialSize,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	shapes := lh.Shapes()
	if nw.NObjects() != shapes.NObjects {
		return nil, pkgerrors.Wrapf(ErrConfig, "network covers %d objects, shapes declare %d",
			nw.NObjects(), shapes.NObjects)
	}
	if len(confounders) != shapes.NConfounders() {
		return nil, pkgerrors.Wrapf(ErrConfig, "%d confounders, shapes declare %d",
			len(confounders), shapes.NConfounders())
	}
	if o.attempts < 1 {
		return nil, pkgerrors.Wrapf(ErrConfig, "attempts %d, need at least 1", o.attempts)
	}
	if o.initialSize < 1 {
		return nil, pkgerrors.Wrapf(ErrConfig, "initial cluster size %d, need at least 1", o.initialSize)
	}
	if shapes.NClusters > shapes.NObjects {
		return nil, pkgerrors.Wrapf(ErrConfig, "%d clusters over %d objects",
			shapes.NClusters, shapes.NObjects)
	}
	return &Initializer{
		lh:          lh,
		confounders: confounders,
		network:     nw,
		shapes:      shapes,
		attempts:    o.attempts,
		initialSize: o.initialSize,
		improve:     o.improve,
		pregrow:     o.pregrow,
		seed:        o.seed,
		log:         o.log,
	}, nil
}

// GenerateSample builds the initial state of one chain. It runs the
// configured number of full initialization attempts, each on its own derived
// random stream, and keeps the sample with the highest total log-likelihood.
// The returned sample's cache tree is fully outdated, so the chain starts
// with no inherited warmth.
//
// Description:
//   stage 1: seed (or pre-grow) the clusters and build a fresh sample with
//            uniform weights;
//   stage 2: impute the source from the prior, rebuild the sufficient
//            statistics and check source legality;
//   stage 3: one full Gibbs sweep of the source attributions;
//   stage 4: round-robin informed growth, one object per cluster per round,
//            until every cluster reaches the initial size (a walled-in
//            cluster skips its step and stays smaller);
//   stage 5: another Gibbs sweep, the optional improvement steps, and a full
//            cache invalidation.
func (ini *Initializer) GenerateSample(chain int) (*state.Sample, error) {
	base := streamFromSeed(ini.seed)
	var best *state.Sample
	bestLH := math.Inf(-1)
	for a := 0; a < ini.attempts; a++ {
		st := deriveStream(base, uint64(a))
		s, err := ini.attempt(chain, st)
		if err != nil {
			return nil, err
		}
		total, err := ini.lh.Total(s, false)
		if err != nil {
			return nil, err
		}
		ini.log.Debug("initialization attempt finished",
			"chain", chain, "attempt", a, "log_likelihood", total)
		if total > bestLH {
			best, bestLH = s, total
		}
	}
	best.EverythingChanged()
	return best, nil
}

func (ini *Initializer) attempt(chain int, st *stream) (*state.Sample, error) {
	clusters, err := ini.initialClusters(st)
	if err != nil {
		return nil, err
	}
	source, err := emptySourceCubes(ini.shapes)
	if err != nil {
		return nil, err
	}
	s, err := state.NewSample(ini.shapes, ini.confounders, clusters, uniformWeights(ini.shapes), source)
	if err != nil {
		return nil, err
	}
	s.Chain = chain
	s.EverythingChanged()

	if err := ImputeSourceFromPrior(ini.lh, s, st.src); err != nil {
		return nil, err
	}
	if err := state.RecalculateSufficientStats(s, ini.lh.Features()); err != nil {
		return nil, err
	}
	if err := state.ValidateSource(s); err != nil {
		return nil, pkgerrors.Wrap(err, "prior imputation produced an illegal source")
	}
	if err := GibbsSweepSource(ini.lh, s, st.src); err != nil {
		return nil, err
	}

	if !ini.pregrow {
		for size := 1; size < ini.initialSize; size++ {
			for k := 0; k < ini.shapes.NClusters; k++ {
				grew, err := ini.growInformed(s, k, st)
				if err != nil {
					return nil, err
				}
				if !grew {
					ini.log.Debug("cluster growth step skipped", "cluster", k, "size", size)
				}
			}
		}
	}

	if err := GibbsSweepSource(ini.lh, s, st.src); err != nil {
		return nil, err
	}

	if ini.improve {
		for k := 0; k < ini.shapes.NClusters; k++ {
			if err := ini.improveCluster(s, k, st); err != nil {
				return nil, err
			}
		}
	}

	s.EverythingChanged()
	return s, nil
}

// initialClusters seeds every cluster with a single object, or pre-grows all
// clusters to the initial size when configured so.
func (ini *Initializer) initialClusters(st *stream) (*matrix.Bool, error) {
	if ini.pregrow {
		return ini.GrowRandomClusters(st.src)
	}
	return ini.seedClusters(st)
}

// seedClusters starts every cluster from one uniformly chosen free object.
func (ini *Initializer) seedClusters(st *stream) (*matrix.Bool, error) {
	clusters, err := matrix.NewBool(ini.shapes.NClusters, ini.shapes.NObjects)
	if err != nil {
		return nil, err
	}
	free := make([]int, ini.shapes.NObjects)
	for i := range free {
		free[i] = i
	}
	for k := 0; k < ini.shapes.NClusters; k++ {
		j := st.Intn(len(free))
		if err := clusters.Set(k, free[j], true); err != nil {
			return nil, err
		}
		free[j] = free[len(free)-1]
		free = free[:len(free)-1]
	}
	return clusters, nil
}

// uniformWeights gives every component of every feature the same raw weight,
// the flat starting point the weights operators move away from.
func uniformWeights(shapes model.Shapes) map[model.FeatureType]*mat.Dense {
	nComp := shapes.NComponents()
	w := 1.0 / float64(nComp)
	out := make(map[model.FeatureType]*mat.Dense)
	for _, t := range model.FeatureTypes() {
		nf := shapes.NFeatures[t]
		if nf == 0 {
			continue
		}
		raw := make([]float64, nf*nComp)
		for i := range raw {
			raw[i] = w
		}
		out[t] = mat.NewDense(nf, nComp, raw)
	}
	return out
}

// emptySourceCubes builds all-false source cubes for every feature type the
// shapes declare; the caller imputes real attributions afterwards.
func emptySourceCubes(shapes model.Shapes) (map[model.FeatureType]*matrix.BoolCube, error) {
	nComp := shapes.NComponents()
	out := make(map[model.FeatureType]*matrix.BoolCube)
	for _, t := range model.FeatureTypes() {
		nf := shapes.NFeatures[t]
		if nf == 0 {
			continue
		}
		cube, err := matrix.NewBoolCube(shapes.NObjects, nf, nComp)
		if err != nil {
			return nil, err
		}
		out[t] = cube
	}
	return out, nil
}
