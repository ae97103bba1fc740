// Package model_test validates shape and feature-type checking.
package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nataliacp/sBayes/model"
)

func validShapes() model.Shapes {
	return model.Shapes{
		NObjects:  10,
		NClusters: 2,
		NFeatures: map[model.FeatureType]int{
			model.Categorical: 3,
			model.Gaussian:    2,
		},
		NStates:              4,
		NGroupsPerConfounder: []int{2, 3},
	}
}

func TestShapesValidate(t *testing.T) {
	require.NoError(t, validShapes().Validate())

	tests := []struct {
		name   string
		mutate func(*model.Shapes)
		want   error
	}{
		{"zero objects", func(s *model.Shapes) { s.NObjects = 0 }, model.ErrNonPositiveDim},
		{"negative clusters", func(s *model.Shapes) { s.NClusters = -1 }, model.ErrNonPositiveDim},
		{"no features", func(s *model.Shapes) { s.NFeatures = nil }, model.ErrNonPositiveDim},
		{"unknown type", func(s *model.Shapes) { s.NFeatures[model.FeatureType("fancy")] = 1 }, model.ErrUnknownFeatureType},
		{"categorical without states", func(s *model.Shapes) { s.NStates = 0 }, model.ErrNonPositiveDim},
		{"empty confounder", func(s *model.Shapes) { s.NGroupsPerConfounder = []int{2, 0} }, model.ErrNonPositiveDim},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := validShapes()
			tc.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tc.want)
		})
	}
}

func TestShapesNoStatesNeededWithoutCategorical(t *testing.T) {
	s := validShapes()
	delete(s.NFeatures, model.Categorical)
	s.NStates = 0
	assert.NoError(t, s.Validate(), "NStates is only required with categorical features")
}

func TestShapesDerived(t *testing.T) {
	s := validShapes()
	assert.Equal(t, 2, s.NConfounders())
	assert.Equal(t, 3, s.NComponents(), "components = clusters + one per confounder")
	assert.Equal(t, 5, s.TotalFeatures())
}

func TestFeatureTypeValid(t *testing.T) {
	for _, ft := range model.FeatureTypes() {
		assert.True(t, ft.Valid(), "declared type %q must be valid", ft)
	}
	assert.False(t, model.FeatureType("spline").Valid())
}
