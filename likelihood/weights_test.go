package likelihood_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/likelihood"
	"github.com/nataliacp/sBayes/model"
)

func TestNormalizeWeightsMasksAndRenormalizes(t *testing.T) {
	weights := mat.NewDense(2, 3, []float64{
		0.5, 0.3, 0.2,
		0.2, 0.2, 0.6,
	})
	has := mustBool(t, 5, 3, [][2]int{
		{0, 0}, {0, 1}, {0, 2}, // everything applies
		{1, 1}, {1, 2}, // no cluster
		{2, 2},         // last component only
		{4, 1}, {4, 2}, // same pattern as object 1
	})

	got, err := likelihood.NormalizeWeights(weights, has)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.5, 0.3, 0.2}, got.Vec(0, 0), 1e-12)
	assert.InDeltaSlice(t, []float64{0.2, 0.2, 0.6}, got.Vec(0, 1), 1e-12)

	assert.InDeltaSlice(t, []float64{0, 0.6, 0.4}, got.Vec(1, 0), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.75}, got.Vec(1, 1), 1e-12)

	assert.InDeltaSlice(t, []float64{0, 0, 1}, got.Vec(2, 0), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0, 1}, got.Vec(2, 1), 1e-12)

	// No applicable component leaves the row zero instead of dividing by 0.
	assert.InDeltaSlice(t, []float64{0, 0, 0}, got.Vec(3, 0), 1e-12)

	// Objects sharing an availability pattern share the weights.
	assert.Equal(t, got.Slab(1), got.Slab(4))
}

func TestNormalizeWeightsShapeMismatch(t *testing.T) {
	weights := mat.NewDense(1, 3, []float64{0.5, 0.3, 0.2})
	has := mustBool(t, 2, 2, nil)

	_, err := likelihood.NormalizeWeights(weights, has)
	assert.ErrorIs(t, err, likelihood.ErrWeightShape)
}

func TestUpdateWeightsCachesUntilMarked(t *testing.T) {
	fx := newMixedFixture(t)

	w, err := fx.lh.UpdateWeights(fx.sample, model.Categorical, true)
	require.NoError(t, err)

	// Cluster members mix both components, clusterless objects carry the
	// whole mass on the confounder, object 4 has no confounder group.
	assert.InDeltaSlice(t, []float64{0.6, 0.4}, w.Vec(0, 0), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 1}, w.Vec(1, 0), 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0}, w.Vec(4, 0), 1e-12)

	// A warm cached call returns the stored cube untouched.
	w.Vec(0, 0)[0] = 0.123
	again, err := fx.lh.UpdateWeights(fx.sample, model.Categorical, true)
	require.NoError(t, err)
	assert.Equal(t, 0.123, again.Vec(0, 0)[0])

	// Replacing the raw weights invalidates the cube.
	require.NoError(t, fx.sample.SetWeights(model.Categorical,
		mat.NewDense(2, 2, []float64{0.3, 0.7, 0.5, 0.5})))
	w2, err := fx.lh.UpdateWeights(fx.sample, model.Categorical, true)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.3, 0.7}, w2.Vec(0, 0), 1e-12)

	// So does a cluster move, through the changed availability.
	require.NoError(t, fx.sample.UpdateCluster(1, 1, true))
	w3, err := fx.lh.UpdateWeights(fx.sample, model.Categorical, true)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.3, 0.7}, w3.Vec(1, 0), 1e-12)
}
