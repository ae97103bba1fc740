// SPDX-License-Identifier: MIT

// Package data: feature containers.
// One block per feature type; blocks for types absent from the data are nil.
// NA masks are derived at construction and never change.

package data

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
)

var (
	// ErrNilValues is returned when a constructor receives no observations.
	ErrNilValues = errors.New("data: nil values")

	// ErrNotOneHot is returned when a categorical observation row has more
	// than one state set.
	ErrNotOneHot = errors.New("data: categorical row not one-hot")

	// ErrInapplicableState is returned when an observation uses a state the
	// feature's state mask declares inapplicable.
	ErrInapplicableState = errors.New("data: observation in inapplicable state")

	// ErrBadDomain is returned when a value lies outside the feature type's
	// domain, e.g. a logit-normal observation outside (0, 1) or a negative
	// Poisson count.
	ErrBadDomain = errors.New("data: value outside domain")

	// ErrShapeMismatch is returned when observation shapes disagree with
	// each other or with the model shapes.
	ErrShapeMismatch = errors.New("data: shape mismatch")
)

// CategoricalFeatures holds one-hot encoded discrete observations.
type CategoricalFeatures struct {
	// Values is (objects × features × states); an all-false row is NA.
	Values *matrix.BoolCube
	// NA is (objects × features), true where the observation is missing.
	NA *matrix.Bool
	// States is (features × states), true where a state is applicable to
	// the feature. Features narrower than the widest one leave trailing
	// states inapplicable.
	States *matrix.Bool
}

// NewCategorical validates one-hot observations against the applicable-state
// mask and derives the NA mask.
func NewCategorical(values *matrix.BoolCube, states *matrix.Bool) (*CategoricalFeatures, error) {
	if values == nil {
		return nil, fmt.Errorf("%w: categorical", ErrNilValues)
	}
	n, f, s := values.Dims()
	if states == nil || states.Rows() != f || states.Cols() != s {
		return nil, fmt.Errorf("%w: state mask for %d features x %d states", ErrShapeMismatch, f, s)
	}
	na, err := matrix.NewBool(n, f)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			row := values.Vec(i, j)
			k := matrix.FirstTrue(row)
			if k < 0 {
				if err := na.Set(i, j, true); err != nil {
					return nil, err
				}
				continue
			}
			if _, one := matrix.ExactlyOne(row); !one {
				return nil, fmt.Errorf("%w: object %d feature %d", ErrNotOneHot, i, j)
			}
			applicable, err := states.At(j, k)
			if err != nil {
				return nil, err
			}
			if !applicable {
				return nil, fmt.Errorf("%w: object %d feature %d state %d", ErrInapplicableState, i, j, k)
			}
		}
	}
	return &CategoricalFeatures{Values: values, NA: na, States: states}, nil
}

// NFeatures returns the number of categorical features.
func (c *CategoricalFeatures) NFeatures() int {
	_, f, _ := c.Values.Dims()
	return f
}

// NStates returns the state dimension.
func (c *CategoricalFeatures) NStates() int {
	_, _, s := c.Values.Dims()
	return s
}

// ContinuousFeatures holds real-valued observations with NaN as NA.
type ContinuousFeatures struct {
	// Values is (objects × features).
	Values *mat.Dense
	// NA is (objects × features), true where the observation is NaN.
	NA *matrix.Bool
}

// NewGaussian wraps real-valued observations, deriving the NA mask from NaN.
func NewGaussian(values *mat.Dense) (*ContinuousFeatures, error) {
	return newContinuous(values, nil)
}

// NewPoisson wraps count observations; every non-NA value must be a
// non-negative integer.
func NewPoisson(values *mat.Dense) (*ContinuousFeatures, error) {
	return newContinuous(values, func(v float64) error {
		if v < 0 || v != math.Trunc(v) {
			return fmt.Errorf("%w: poisson count %v", ErrBadDomain, v)
		}
		return nil
	})
}

// NewLogitNormal wraps proportion observations in (0, 1) and stores them on
// the logit scale, where the Gaussian machinery applies directly.
func NewLogitNormal(values *mat.Dense) (*ContinuousFeatures, error) {
	cf, err := newContinuous(values, func(v float64) error {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%w: proportion %v outside (0,1)", ErrBadDomain, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	n, f := cf.Values.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			if v := cf.Values.At(i, j); !math.IsNaN(v) {
				cf.Values.Set(i, j, Logit(v))
			}
		}
	}
	return cf, nil
}

func newContinuous(values *mat.Dense, check func(float64) error) (*ContinuousFeatures, error) {
	if values == nil {
		return nil, fmt.Errorf("%w: continuous", ErrNilValues)
	}
	n, f := values.Dims()
	na, err := matrix.NewBool(n, f)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			v := values.At(i, j)
			if math.IsNaN(v) {
				if err := na.Set(i, j, true); err != nil {
					return nil, err
				}
				continue
			}
			if check != nil {
				if err := check(v); err != nil {
					return nil, fmt.Errorf("object %d feature %d: %w", i, j, err)
				}
			}
		}
	}
	return &ContinuousFeatures{Values: mat.DenseCopyOf(values), NA: na}, nil
}

// NFeatures returns the number of features in the block.
func (c *ContinuousFeatures) NFeatures() int {
	_, f := c.Values.Dims()
	return f
}

// Logit maps a proportion in (0, 1) to the real line.
func Logit(p float64) float64 { return math.Log(p / (1 - p)) }

// Features bundles the observation blocks of one dataset.
type Features struct {
	Categorical *CategoricalFeatures
	Gaussian    *ContinuousFeatures
	Poisson     *ContinuousFeatures
	LogitNormal *ContinuousFeatures
}

// Continuous returns the block of a continuous feature type, or nil for
// Categorical and unknown types.
func (f *Features) Continuous(t model.FeatureType) *ContinuousFeatures {
	switch t {
	case model.Gaussian:
		return f.Gaussian
	case model.Poisson:
		return f.Poisson
	case model.LogitNormal:
		return f.LogitNormal
	}
	return nil
}

// Has reports whether the dataset carries any features of type t.
func (f *Features) Has(t model.FeatureType) bool {
	switch t {
	case model.Categorical:
		return f.Categorical != nil && f.Categorical.NFeatures() > 0
	default:
		c := f.Continuous(t)
		return c != nil && c.NFeatures() > 0
	}
}

// NAMask returns the NA mask of type t, or nil when the type is absent.
func (f *Features) NAMask(t model.FeatureType) *matrix.Bool {
	if t == model.Categorical {
		if f.Categorical == nil {
			return nil
		}
		return f.Categorical.NA
	}
	c := f.Continuous(t)
	if c == nil {
		return nil
	}
	return c.NA
}

// Validate cross-checks every block against the model shapes: object counts
// must agree across blocks and feature counts must match the declaration.
func (f *Features) Validate(s model.Shapes) error {
	if f.Categorical != nil {
		n, nf, st := f.Categorical.Values.Dims()
		if n != s.NObjects || nf != s.NFeatures[model.Categorical] || st != s.NStates {
			return fmt.Errorf("%w: categorical block %dx%dx%d against shapes", ErrShapeMismatch, n, nf, st)
		}
	} else if s.NFeatures[model.Categorical] > 0 {
		return fmt.Errorf("%w: categorical block missing", ErrShapeMismatch)
	}
	for _, t := range []model.FeatureType{model.Gaussian, model.Poisson, model.LogitNormal} {
		block := f.Continuous(t)
		if block == nil {
			if s.NFeatures[t] > 0 {
				return fmt.Errorf("%w: %s block missing", ErrShapeMismatch, t)
			}
			continue
		}
		n, nf := block.Values.Dims()
		if n != s.NObjects || nf != s.NFeatures[t] {
			return fmt.Errorf("%w: %s block %dx%d against shapes", ErrShapeMismatch, t, n, nf)
		}
	}
	return nil
}
