// SPDX-License-Identifier: MIT

// Package sampling: source conditionals.
// The source attribution of every (object, feature) cell is a categorical
// variable over the mixture components. Its prior is the normalized weight
// row; its full conditional additionally weighs each component by the
// pointwise likelihood of the observation under that component.

package sampling

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nataliacp/sBayes/likelihood"
	"github.com/nataliacp/sBayes/state"
)

// ErrNoComponent is returned when an object has no mixture component with
// positive weight: it belongs to no cluster and to no confounder group, so
// no attribution for it can be legal.
var ErrNoComponent = errors.New("sampling: object has no available mixture component")

// ImputeSourceFromPrior redraws the whole source attribution of every
// feature type from the mixture prior: each (object, feature) cell picks a
// component with probability proportional to its normalized weight. Cells
// with missing observations are pinned to the first available component,
// which keeps the one-hot invariant without touching the likelihood.
// Sufficient statistics are not rebuilt here; callers follow up with
// state.RecalculateSufficientStats.
func ImputeSourceFromPrior(lh *likelihood.Likelihood, s *state.Sample, src rand.Source) error {
	feats := lh.Features()
	for _, t := range s.FeatureTypes() {
		w, err := lh.UpdateWeights(s, t, false)
		if err != nil {
			return err
		}
		fs, err := s.Feature(t)
		if err != nil {
			return err
		}
		scratch := fs.Source().Clone()
		na := feats.NAMask(t)
		nObj, nf, _ := scratch.Dims()
		for obj := 0; obj < nObj; obj++ {
			for f := 0; f < nf; f++ {
				row := w.Vec(obj, f)
				missing, err := na.At(obj, f)
				if err != nil {
					return err
				}
				var comp int
				if missing {
					comp = firstPositive(row)
					if comp < 0 {
						return pkgerrors.Wrapf(ErrNoComponent, "%s object %d feature %d", t, obj, f)
					}
				} else {
					comp, err = drawComponent(row, src)
					if err != nil {
						return pkgerrors.Wrapf(err, "%s object %d feature %d", t, obj, f)
					}
				}
				if err := scratch.SetOneHot(obj, f, comp); err != nil {
					return err
				}
			}
		}
		if err := s.SetSource(t, scratch); err != nil {
			return err
		}
	}
	return nil
}

// GibbsSweepSource resamples every source attribution from its full
// conditional: p(component = c | rest) ∝ w̃[o,f,c] · pointwise[o,f,c]. The
// pointwise table and the normalized weights are taken once at sweep entry,
// so the whole source array updates as one block. Cells whose conditional
// row sums to zero keep their current attribution.
func GibbsSweepSource(lh *likelihood.Likelihood, s *state.Sample, src rand.Source) error {
	for _, t := range s.FeatureTypes() {
		pw, err := lh.ComponentLikelihoods(s, t, true)
		if err != nil {
			return err
		}
		w, err := lh.UpdateWeights(s, t, true)
		if err != nil {
			return err
		}
		fs, err := s.Feature(t)
		if err != nil {
			return err
		}
		scratch := fs.Source().Clone()
		nObj, nf, nComp := scratch.Dims()
		p := make([]float64, nComp)
		for obj := 0; obj < nObj; obj++ {
			for f := 0; f < nf; f++ {
				wRow := w.Vec(obj, f)
				pwRow := pw.Vec(obj, f)
				for c := range p {
					p[c] = wRow[c] * pwRow[c]
				}
				comp, derr := drawComponent(p, src)
				if derr != nil {
					continue
				}
				if err := scratch.SetOneHot(obj, f, comp); err != nil {
					return err
				}
			}
		}
		if err := s.SetSource(t, scratch); err != nil {
			return err
		}
	}
	return nil
}

// resampleObjectSource Gibbs-updates the source cells of a single object.
// Used right after the object joins a cluster, so its attributions can move
// onto the now-available cluster component.
func resampleObjectSource(lh *likelihood.Likelihood, s *state.Sample, obj int, src rand.Source) error {
	nComp := lh.Shapes().NComponents()
	p := make([]float64, nComp)
	for _, t := range s.FeatureTypes() {
		pw, err := lh.ComponentLikelihoods(s, t, true)
		if err != nil {
			return err
		}
		w, err := lh.UpdateWeights(s, t, true)
		if err != nil {
			return err
		}
		for f := 0; f < lh.Shapes().NFeatures[t]; f++ {
			wRow := w.Vec(obj, f)
			pwRow := pw.Vec(obj, f)
			for c := range p {
				p[c] = wRow[c] * pwRow[c]
			}
			comp, derr := drawComponent(p, src)
			if derr != nil {
				continue
			}
			if err := s.SetSourceOneHot(t, obj, f, comp); err != nil {
				return err
			}
		}
	}
	return nil
}

// drawComponent draws an index proportional to the non-negative weights in p.
func drawComponent(p []float64, src rand.Source) (int, error) {
	if floats.Sum(p) <= 0 {
		return -1, ErrNoComponent
	}
	return int(distuv.NewCategorical(p, src).Rand()), nil
}

// firstPositive returns the first index with a positive entry, or -1.
func firstPositive(row []float64) int {
	for c, v := range row {
		if v > 0 {
			return c
		}
	}
	return -1
}
