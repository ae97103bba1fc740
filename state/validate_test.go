package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
	"github.com/nataliacp/sBayes/state"
)

func TestValidateSourceAcceptsFixture(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, state.ValidateSource(fx.sample))
}

func TestValidateSourceFlagsUnavailableComponent(t *testing.T) {
	fx := newFixture(t)
	// Object 3 is in no cluster, so the cluster component is off limits.
	require.NoError(t, fx.sample.SetSourceOneHot(model.Categorical, 3, 0, 0))
	err := state.ValidateSource(fx.sample)
	assert.ErrorIs(t, err, state.ErrIllegalSource)
	assert.Contains(t, err.Error(), "unavailable component")
}

func TestValidateSourceFlagsZeroWeight(t *testing.T) {
	fx := newFixture(t)
	// Feature 0 of object 0 is cluster-attributed; zeroing that weight
	// makes the attribution illegal.
	require.NoError(t, fx.sample.SetWeights(model.Categorical,
		mat.NewDense(2, 2, []float64{0, 1, 0.5, 0.5})))
	err := state.ValidateSource(fx.sample)
	assert.ErrorIs(t, err, state.ErrIllegalSource)
	assert.Contains(t, err.Error(), "zero-weight")
}

func TestValidateSourceFlagsNonOneHot(t *testing.T) {
	fx := newFixture(t)
	clusters := fx.sample.Clusters().Clone()
	weights := map[model.FeatureType]*mat.Dense{}
	source := map[model.FeatureType]*matrix.BoolCube{}
	for _, ft := range fx.sample.FeatureTypes() {
		fs, err := fx.sample.Feature(ft)
		require.NoError(t, err)
		weights[ft] = mat.DenseCopyOf(fs.Weights())
		source[ft] = fs.Source().Clone()
	}
	// An all-false attribution row passes construction (only dims are
	// checked there) and must be caught by the legality sweep.
	require.NoError(t, source[model.Gaussian].Set(0, 0, 0, false))

	s, err := state.NewSample(fx.shapes, fx.confs, clusters, weights, source)
	require.NoError(t, err)
	err = state.ValidateSource(s)
	assert.ErrorIs(t, err, state.ErrIllegalSource)
	assert.Contains(t, err.Error(), "not one-hot")
}
