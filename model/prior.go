// SPDX-License-Identifier: MIT

// Package model: prior hyperparameters.
// The cluster effect carries one EffectPrior shared by every cluster; each
// confounder carries one EffectPrior per group, so group-specific priors
// (e.g. a broad prior on a residual "universal" group) are expressible.

package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrMissingHyper is returned when the data contains a feature type for
	// which a prior carries no hyperparameters.
	ErrMissingHyper = errors.New("model: missing prior hyperparameters")

	// ErrBadHyper is returned when a hyperparameter violates its domain,
	// e.g. a non-positive concentration, scale or rate.
	ErrBadHyper = errors.New("model: hyperparameter out of domain")
)

// CategoricalHyper is a Dirichlet prior on per-feature state distributions:
// one concentration row per feature, one column per state. Features narrower
// than the widest one are padded with impossible states; their concentration
// entries are zero and the likelihood skips them.
type CategoricalHyper struct {
	// Concentration is (features × states); entries must be non-negative
	// and each feature needs at least one positive entry.
	Concentration *mat.Dense
}

// GaussianHyper is a normal prior on per-feature means; the observation
// variance is plugged in from the data at evaluation time.
type GaussianHyper struct {
	// Mu0 and Sigma0 are the per-feature prior mean and standard deviation
	// of the mean; Sigma0 must be positive.
	Mu0, Sigma0 []float64
}

// PoissonHyper is a gamma prior on per-feature Poisson rates.
type PoissonHyper struct {
	// Alpha0 and Beta0 are the per-feature gamma shape and rate; both must
	// be positive.
	Alpha0, Beta0 []float64
}

// EffectPrior bundles the hyperparameters of one mixture component's effect
// for every feature type present in the data. Types absent from the data
// may be left nil.
type EffectPrior struct {
	Categorical *CategoricalHyper
	Gaussian    *GaussianHyper
	Poisson     *PoissonHyper
	// LogitNormal uses Gaussian hyperparameters on the logit scale.
	LogitNormal *GaussianHyper
}

// ConfoundingPrior is the per-group effect prior of one confounder.
type ConfoundingPrior struct {
	Name   string
	Groups []EffectPrior
}

// Prior holds every effect prior of the model.
type Prior struct {
	// ClusterEffect applies to every cluster.
	ClusterEffect EffectPrior
	// Confounding holds one entry per confounder, in declaration order.
	Confounding []ConfoundingPrior
}

// Validate checks the prior against the model shapes: hyperparameters must
// be present for every feature type with features, sized to the feature
// counts, and inside their domains.
func (p *Prior) Validate(s Shapes) error {
	if err := validateEffect(&p.ClusterEffect, s, "cluster effect"); err != nil {
		return err
	}
	if len(p.Confounding) != s.NConfounders() {
		return fmt.Errorf("%w: %d confounding priors for %d confounders",
			ErrShapesMismatch, len(p.Confounding), s.NConfounders())
	}
	for i, cp := range p.Confounding {
		if len(cp.Groups) != s.NGroupsPerConfounder[i] {
			return fmt.Errorf("%w: confounder %q has %d group priors, want %d",
				ErrShapesMismatch, cp.Name, len(cp.Groups), s.NGroupsPerConfounder[i])
		}
		for g := range cp.Groups {
			ctx := fmt.Sprintf("confounder %q group %d", cp.Name, g)
			if err := validateEffect(&cp.Groups[g], s, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateEffect(e *EffectPrior, s Shapes, ctx string) error {
	if n := s.NFeatures[Categorical]; n > 0 {
		if e.Categorical == nil || e.Categorical.Concentration == nil {
			return fmt.Errorf("%w: %s categorical", ErrMissingHyper, ctx)
		}
		r, c := e.Categorical.Concentration.Dims()
		if r != n || c != s.NStates {
			return fmt.Errorf("%w: %s categorical concentration is %dx%d, want %dx%d",
				ErrShapesMismatch, ctx, r, c, n, s.NStates)
		}
		for i := 0; i < r; i++ {
			positive := false
			for j := 0; j < c; j++ {
				a := e.Categorical.Concentration.At(i, j)
				if a < 0 {
					return fmt.Errorf("%w: %s categorical concentration[%d,%d]", ErrBadHyper, ctx, i, j)
				}
				positive = positive || a > 0
			}
			if !positive {
				return fmt.Errorf("%w: %s categorical feature %d has no positive concentration",
					ErrBadHyper, ctx, i)
			}
		}
	}
	if n := s.NFeatures[Gaussian]; n > 0 {
		if err := validateGaussianHyper(e.Gaussian, n, ctx+" gaussian"); err != nil {
			return err
		}
	}
	if n := s.NFeatures[LogitNormal]; n > 0 {
		if err := validateGaussianHyper(e.LogitNormal, n, ctx+" logitnormal"); err != nil {
			return err
		}
	}
	if n := s.NFeatures[Poisson]; n > 0 {
		if e.Poisson == nil {
			return fmt.Errorf("%w: %s poisson", ErrMissingHyper, ctx)
		}
		if len(e.Poisson.Alpha0) != n || len(e.Poisson.Beta0) != n {
			return fmt.Errorf("%w: %s poisson hyper lengths %d/%d, want %d",
				ErrShapesMismatch, ctx, len(e.Poisson.Alpha0), len(e.Poisson.Beta0), n)
		}
		for j := 0; j < n; j++ {
			if e.Poisson.Alpha0[j] <= 0 || e.Poisson.Beta0[j] <= 0 {
				return fmt.Errorf("%w: %s poisson alpha/beta[%d]", ErrBadHyper, ctx, j)
			}
		}
	}
	return nil
}

func validateGaussianHyper(h *GaussianHyper, n int, ctx string) error {
	if h == nil {
		return fmt.Errorf("%w: %s", ErrMissingHyper, ctx)
	}
	if len(h.Mu0) != n || len(h.Sigma0) != n {
		return fmt.Errorf("%w: %s hyper lengths %d/%d, want %d",
			ErrShapesMismatch, ctx, len(h.Mu0), len(h.Sigma0), n)
	}
	for j := 0; j < n; j++ {
		if h.Sigma0[j] <= 0 {
			return fmt.Errorf("%w: %s sigma0[%d]", ErrBadHyper, ctx, j)
		}
	}
	return nil
}

// EffectFor resolves the effect prior of one mixture component: component 0
// is the cluster effect (group ignored), components >= 1 are confounders
// with their per-group priors.
func (p *Prior) EffectFor(component, group int) (*EffectPrior, error) {
	if component == 0 {
		return &p.ClusterEffect, nil
	}
	ci := component - 1
	if ci < 0 || ci >= len(p.Confounding) {
		return nil, fmt.Errorf("%w: component %d of %d", ErrShapesMismatch, component, 1+len(p.Confounding))
	}
	groups := p.Confounding[ci].Groups
	if group < 0 || group >= len(groups) {
		return nil, fmt.Errorf("%w: group %d of confounder %q", ErrShapesMismatch, group, p.Confounding[ci].Name)
	}
	return &groups[group], nil
}
