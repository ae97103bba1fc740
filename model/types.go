// SPDX-License-Identifier: MIT

// Package model: feature types and model shapes.
// Shapes is the single source of truth for every tensor dimension in the
// inference core; all packages validate their inputs against it.

package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNonPositiveDim is returned by Shapes.Validate when a required
	// dimension is zero or negative.
	ErrNonPositiveDim = errors.New("model: non-positive dimension")

	// ErrUnknownFeatureType is returned when a FeatureType outside the
	// declared enumeration reaches a validation boundary.
	ErrUnknownFeatureType = errors.New("model: unknown feature type")

	// ErrShapesMismatch is returned when two shape descriptions disagree,
	// e.g. a prior sized for a different feature count.
	ErrShapesMismatch = errors.New("model: shapes mismatch")
)

// FeatureType enumerates the observation models supported by the likelihood.
type FeatureType string

const (
	// Categorical features are discrete states with a Dirichlet prior on the
	// state distribution.
	Categorical FeatureType = "categorical"
	// Gaussian features are real-valued with a normal prior on the mean and
	// a plug-in variance.
	Gaussian FeatureType = "gaussian"
	// Poisson features are counts with a gamma prior on the rate.
	Poisson FeatureType = "poisson"
	// LogitNormal features are proportions in (0, 1) modelled as Gaussian on
	// the logit scale.
	LogitNormal FeatureType = "logitnormal"
)

// FeatureTypes lists the supported types in canonical order.
func FeatureTypes() []FeatureType {
	return []FeatureType{Categorical, Gaussian, Poisson, LogitNormal}
}

// Valid reports whether t is one of the declared feature types.
func (t FeatureType) Valid() bool {
	switch t {
	case Categorical, Gaussian, Poisson, LogitNormal:
		return true
	}
	return false
}

// Shapes fixes every tensor dimension of one model instance.
type Shapes struct {
	// NObjects is the number of observed objects (sites, languages).
	NObjects int
	// NClusters is the number of spatial clusters the sampler maintains.
	NClusters int
	// NFeatures gives the number of features per feature type; types absent
	// from the data carry zero.
	NFeatures map[FeatureType]int
	// NStates is the categorical state dimension (the widest feature;
	// narrower features are padded with impossible states). Only consulted
	// when categorical features are present.
	NStates int
	// NGroupsPerConfounder lists, per confounder in declaration order, the
	// number of groups it partitions the objects into.
	NGroupsPerConfounder []int
}

// NConfounders returns the number of confounders.
func (s Shapes) NConfounders() int { return len(s.NGroupsPerConfounder) }

// NComponents returns the number of mixture components: the cluster
// component plus one component per confounder.
func (s Shapes) NComponents() int { return 1 + len(s.NGroupsPerConfounder) }

// TotalFeatures returns the feature count summed over all types.
func (s Shapes) TotalFeatures() int {
	total := 0
	for _, n := range s.NFeatures {
		total += n
	}
	return total
}

// Validate checks that every dimension is usable: positive object and
// cluster counts, at least one feature, known feature types, a positive
// state dimension when categorical features are present, and positive group
// counts for every confounder.
func (s Shapes) Validate() error {
	if s.NObjects <= 0 {
		return fmt.Errorf("%w: NObjects=%d", ErrNonPositiveDim, s.NObjects)
	}
	if s.NClusters <= 0 {
		return fmt.Errorf("%w: NClusters=%d", ErrNonPositiveDim, s.NClusters)
	}
	for t, n := range s.NFeatures {
		if !t.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownFeatureType, t)
		}
		if n < 0 {
			return fmt.Errorf("%w: NFeatures[%s]=%d", ErrNonPositiveDim, t, n)
		}
	}
	if s.TotalFeatures() == 0 {
		return fmt.Errorf("%w: no features", ErrNonPositiveDim)
	}
	if s.NFeatures[Categorical] > 0 && s.NStates <= 0 {
		return fmt.Errorf("%w: NStates=%d with categorical features", ErrNonPositiveDim, s.NStates)
	}
	for i, g := range s.NGroupsPerConfounder {
		if g <= 0 {
			return fmt.Errorf("%w: confounder %d has %d groups", ErrNonPositiveDim, i, g)
		}
	}
	return nil
}
