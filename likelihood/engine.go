// SPDX-License-Identifier: MIT

package likelihood

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
	"github.com/nataliacp/sBayes/state"
)

// Engine computes the closed-form likelihood terms of one feature type. The
// aggregate Likelihood drives the caching protocol; engines only read
// sufficient-statistics slabs and raw observations.
type Engine interface {
	// Type returns the feature type the engine evaluates.
	Type() model.FeatureType

	// GroupMarginal returns the log-marginal likelihood of the observations
	// attributed to group g of groupKey, summed over features.
	GroupMarginal(s *state.Sample, groupKey string, g int) (float64, error)

	// PointwiseGroup writes the posterior-predictive density of every member
	// of group g into the component column of the pointwise cube.
	PointwiseGroup(s *state.Sample, pw *matrix.Cube, groupKey string, component, g int) error

	// ConditionalClusterLh fills the candidate rows of out with the density
	// of each candidate object under cluster k's posterior predictive.
	// Unobserved values score the neutral 1.
	ConditionalClusterLh(s *state.Sample, k int, candidates []bool, out *mat.Dense) error
}

// groupContext resolves the pieces every engine needs for one (type, group
// key, group) evaluation: the statistics slab, the membership row and the
// effect prior of the component the group belongs to.
func groupContext(s *state.Sample, t model.FeatureType, prior *model.Prior, groupKey string, g int) (*matrix.Cube, []bool, *model.EffectPrior, error) {
	fs, err := s.Feature(t)
	if err != nil {
		return nil, nil, nil, err
	}
	cell, err := fs.SufficientStats(groupKey)
	if err != nil {
		return nil, nil, nil, err
	}
	members, err := s.GroupRow(groupKey, g)
	if err != nil {
		return nil, nil, nil, err
	}
	comp, err := s.ComponentOf(groupKey)
	if err != nil {
		return nil, nil, nil, err
	}
	effect, err := prior.EffectFor(comp, g)
	if err != nil {
		return nil, nil, nil, err
	}
	return cell.Value(), members, effect, nil
}

// categoricalEngine evaluates Dirichlet-categorical effects.
type categoricalEngine struct {
	block *data.CategoricalFeatures
	prior *model.Prior
}

func (e *categoricalEngine) Type() model.FeatureType { return model.Categorical }

func (e *categoricalEngine) GroupMarginal(s *state.Sample, groupKey string, g int) (float64, error) {
	stats, _, effect, err := groupContext(s, model.Categorical, e.prior, groupKey, g)
	if err != nil {
		return 0, err
	}
	conc := effect.Categorical.Concentration
	_, nf, _ := stats.Dims()
	total := 0.0
	for f := 0; f < nf; f++ {
		total += DirichletCategoricalLogPDF(stats.Vec(g, f), conc.RawRowView(f))
	}
	return total, nil
}

// posteriorStateProbs returns the expected effect of the group: the
// normalized sum of prior concentration and observed counts, per feature.
func posteriorStateProbs(stats *matrix.Cube, g int, conc *mat.Dense) [][]float64 {
	_, nf, ns := stats.Dims()
	probs := make([][]float64, nf)
	for f := 0; f < nf; f++ {
		row := conc.RawRowView(f)
		counts := stats.Vec(g, f)
		p := make([]float64, ns)
		sum := 0.0
		for k := 0; k < ns; k++ {
			p[k] = row[k] + counts[k]
			sum += p[k]
		}
		for k := range p {
			p[k] /= sum
		}
		probs[f] = p
	}
	return probs
}

func (e *categoricalEngine) PointwiseGroup(s *state.Sample, pw *matrix.Cube, groupKey string, component, g int) error {
	stats, members, effect, err := groupContext(s, model.Categorical, e.prior, groupKey, g)
	if err != nil {
		return err
	}
	probs := posteriorStateProbs(stats, g, effect.Categorical.Concentration)
	_, nf, _ := stats.Dims()
	for obj, in := range members {
		if !in {
			continue
		}
		for f := 0; f < nf; f++ {
			k := matrix.FirstTrue(e.block.Values.Vec(obj, f))
			if k < 0 {
				pw.Vec(obj, f)[component] = 0
				continue
			}
			pw.Vec(obj, f)[component] = probs[f][k]
		}
	}
	return nil
}

func (e *categoricalEngine) ConditionalClusterLh(s *state.Sample, k int, candidates []bool, out *mat.Dense) error {
	stats, _, effect, err := groupContext(s, model.Categorical, e.prior, state.ClustersKey, k)
	if err != nil {
		return err
	}
	probs := posteriorStateProbs(stats, k, effect.Categorical.Concentration)
	_, nf, _ := stats.Dims()
	for obj, ok := range candidates {
		if !ok {
			continue
		}
		for f := 0; f < nf; f++ {
			st := matrix.FirstTrue(e.block.Values.Vec(obj, f))
			if st < 0 {
				out.Set(obj, f, 1)
				continue
			}
			out.Set(obj, f, probs[f][st])
		}
	}
	return nil
}

// gaussianEngine evaluates mean-marginalized Gaussian effects with a plug-in
// sigma taken from the group's observed spread. It serves both gaussian and
// logit-normal features; the latter arrive logit-transformed from the data
// loader.
type gaussianEngine struct {
	t     model.FeatureType
	block *data.ContinuousFeatures
	prior *model.Prior
}

// predictive pairs a posterior-predictive distribution with a validity
// flag; a group whose observed spread is degenerate has none.
type predictive struct {
	dist distuv.Normal
	ok   bool
}

func (e *gaussianEngine) Type() model.FeatureType { return e.t }

func (e *gaussianEngine) hyper(effect *model.EffectPrior) *model.GaussianHyper {
	if e.t == model.LogitNormal {
		return effect.LogitNormal
	}
	return effect.Gaussian
}

func (e *gaussianEngine) GroupMarginal(s *state.Sample, groupKey string, g int) (float64, error) {
	stats, _, effect, err := groupContext(s, e.t, e.prior, groupKey, g)
	if err != nil {
		return 0, err
	}
	hyper := e.hyper(effect)
	_, nf, _ := stats.Dims()
	total := 0.0
	for f := 0; f < nf; f++ {
		m := stats.Vec(g, f)
		sigma := populationStd(m[state.MomNAll], m[state.MomSumAll], m[state.MomSqAll])
		total += GaussianMuMarginalLogPDF(m[state.MomNIn], m[state.MomSumIn], m[state.MomSqIn],
			hyper.Mu0[f], hyper.Sigma0[f], sigma)
	}
	return total, nil
}

func (e *gaussianEngine) PointwiseGroup(s *state.Sample, pw *matrix.Cube, groupKey string, component, g int) error {
	stats, members, effect, err := groupContext(s, e.t, e.prior, groupKey, g)
	if err != nil {
		return err
	}
	hyper := e.hyper(effect)
	_, nf, _ := stats.Dims()
	preds := make([]predictive, nf)
	for f := 0; f < nf; f++ {
		m := stats.Vec(g, f)
		sigma := populationStd(m[state.MomNAll], m[state.MomSumAll], m[state.MomSqAll])
		if sigma <= 0 {
			continue
		}
		preds[f] = predictive{
			dist: posteriorPredictiveNormal(m[state.MomNIn], m[state.MomSumIn],
				hyper.Mu0[f], hyper.Sigma0[f], sigma),
			ok: true,
		}
	}
	for obj, in := range members {
		if !in {
			continue
		}
		row := e.block.Values.RawRowView(obj)
		for f := 0; f < nf; f++ {
			v := row[f]
			if math.IsNaN(v) || !preds[f].ok {
				pw.Vec(obj, f)[component] = 0
				continue
			}
			pw.Vec(obj, f)[component] = preds[f].dist.Prob(v)
		}
	}
	return nil
}

func (e *gaussianEngine) ConditionalClusterLh(s *state.Sample, k int, candidates []bool, out *mat.Dense) error {
	stats, _, effect, err := groupContext(s, e.t, e.prior, state.ClustersKey, k)
	if err != nil {
		return err
	}
	hyper := e.hyper(effect)
	_, nf, _ := stats.Dims()
	preds := make([]predictive, nf)
	for f := 0; f < nf; f++ {
		m := stats.Vec(k, f)
		sigma := populationStd(m[state.MomNAll], m[state.MomSumAll], m[state.MomSqAll])
		if sigma <= 0 {
			continue
		}
		preds[f] = predictive{
			dist: posteriorPredictiveNormal(m[state.MomNAll], m[state.MomSumAll],
				hyper.Mu0[f], hyper.Sigma0[f], sigma),
			ok: true,
		}
	}
	for obj, ok := range candidates {
		if !ok {
			continue
		}
		row := e.block.Values.RawRowView(obj)
		for f := 0; f < nf; f++ {
			// Degenerate spread gives no usable predictive; score neutrally
			// so fresh single-object clusters can still grow.
			if math.IsNaN(row[f]) || !preds[f].ok {
				out.Set(obj, f, 1)
				continue
			}
			out.Set(obj, f, preds[f].dist.Prob(row[f]))
		}
	}
	return nil
}

// poissonEngine evaluates gamma-Poisson effects.
type poissonEngine struct {
	block *data.ContinuousFeatures
	prior *model.Prior
}

func (e *poissonEngine) Type() model.FeatureType { return model.Poisson }

func (e *poissonEngine) GroupMarginal(s *state.Sample, groupKey string, g int) (float64, error) {
	stats, _, effect, err := groupContext(s, model.Poisson, e.prior, groupKey, g)
	if err != nil {
		return 0, err
	}
	hyper := effect.Poisson
	_, nf, _ := stats.Dims()
	total := 0.0
	for f := 0; f < nf; f++ {
		m := stats.Vec(g, f)
		total += PoissonLambdaMarginalLogPDF(m[state.PoisNIn], m[state.PoisSumIn], m[state.PoisLGammaIn],
			hyper.Alpha0[f], hyper.Beta0[f])
	}
	return total, nil
}

// PointwiseGroup scores each member against the group's leave-one-out
// posterior predictive: the member's own count is removed from the gamma
// posterior before evaluating its negative binomial density.
func (e *poissonEngine) PointwiseGroup(s *state.Sample, pw *matrix.Cube, groupKey string, component, g int) error {
	stats, members, effect, err := groupContext(s, model.Poisson, e.prior, groupKey, g)
	if err != nil {
		return err
	}
	hyper := effect.Poisson
	_, nf, _ := stats.Dims()
	for obj, in := range members {
		if !in {
			continue
		}
		row := e.block.Values.RawRowView(obj)
		for f := 0; f < nf; f++ {
			x := row[f]
			if math.IsNaN(x) {
				pw.Vec(obj, f)[component] = 0
				continue
			}
			m := stats.Vec(g, f)
			alpha1 := hyper.Alpha0[f] + m[state.PoisSumAll] - x
			beta1 := hyper.Beta0[f] + m[state.PoisNAll] - 1
			pw.Vec(obj, f)[component] = math.Exp(NegBinomialLogPMF(x, alpha1, beta1/(1+beta1)))
		}
	}
	return nil
}

func (e *poissonEngine) ConditionalClusterLh(s *state.Sample, k int, candidates []bool, out *mat.Dense) error {
	stats, _, effect, err := groupContext(s, model.Poisson, e.prior, state.ClustersKey, k)
	if err != nil {
		return err
	}
	hyper := effect.Poisson
	_, nf, _ := stats.Dims()
	for obj, ok := range candidates {
		if !ok {
			continue
		}
		row := e.block.Values.RawRowView(obj)
		for f := 0; f < nf; f++ {
			x := row[f]
			if math.IsNaN(x) {
				out.Set(obj, f, 1)
				continue
			}
			m := stats.Vec(k, f)
			alpha1 := hyper.Alpha0[f] + m[state.PoisSumAll]
			beta1 := hyper.Beta0[f] + m[state.PoisNAll]
			out.Set(obj, f, math.Exp(NegBinomialLogPMF(x, alpha1, beta1/(1+beta1))))
		}
	}
	return nil
}
