// Package state_test validates sufficient-statistics maintenance against
// hand-computed slabs and checks that caching limits which slabs get rebuilt.
package state_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
	"github.com/nataliacp/sBayes/state"
)

func statsCube(t *testing.T, s *state.Sample, ft model.FeatureType, key string) *matrix.Cube {
	t.Helper()
	fs, err := s.Feature(ft)
	require.NoError(t, err)
	cell, err := fs.SufficientStats(key)
	require.NoError(t, err)
	return cell.Value()
}

func slabRows(t *testing.T, c *matrix.Cube, g int) [][]float64 {
	t.Helper()
	_, n1, n2 := c.Dims()
	rows := make([][]float64, n1)
	for f := 0; f < n1; f++ {
		rows[f] = make([]float64, n2)
		copy(rows[f], c.Vec(g, f))
	}
	return rows
}

func TestCategoricalCounts(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, false))

	clusters := statsCube(t, fx.sample, model.Categorical, state.ClustersKey)
	// Cluster 0 = {0, 2}: objects 0 and 2 attribute feature 0 to the
	// cluster (states 0 and 2), feature 1 to the confounder.
	assert.Equal(t, [][]float64{{1, 0, 1}, {0, 0, 0}}, slabRows(t, clusters, 0))
	// Cluster 1 = {4}: both features of object 4 come from the cluster.
	assert.Equal(t, [][]float64{{0, 1, 0}, {0, 1, 0}}, slabRows(t, clusters, 1))

	family := statsCube(t, fx.sample, model.Categorical, "family")
	// West = {0, 1}: object 1 contributes f0=state1; f1 of object 1 is NA,
	// so only object 0 counts for feature 1.
	assert.Equal(t, [][]float64{{0, 1, 0}, {0, 1, 0}}, slabRows(t, family, 0))
	// East = {2, 3, 5}: f0 of object 2 belongs to the cluster and f0 of
	// object 5 is NA, leaving object 3 alone; all three f1 values count.
	assert.Equal(t, [][]float64{{1, 0, 0}, {2, 0, 1}}, slabRows(t, family, 1))
}

func TestGaussianMoments(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, false))

	clusters := statsCube(t, fx.sample, model.Gaussian, state.ClustersKey)
	// Cluster 0 = {0, 2}, f0 values 1 and 3, both cluster-attributed.
	assert.Equal(t, []float64{2, 4, 10, 2, 4, 10}, clusters.Vec(0, 0))
	// f1 values 10 and 30 are observed but attributed to the confounder.
	assert.Equal(t, []float64{2, 40, 1000, 0, 0, 0}, clusters.Vec(0, 1))
	// Cluster 1 = {4}: both features cluster-attributed.
	assert.Equal(t, []float64{1, 5, 25, 1, 5, 25}, clusters.Vec(1, 0))
	assert.Equal(t, []float64{1, 50, 2500, 1, 50, 2500}, clusters.Vec(1, 1))

	family := statsCube(t, fx.sample, model.Gaussian, "family")
	// West = {0, 1}: f0 observes 1 and 2, only object 1's value is
	// confounder-attributed; f1 observes 10 (object 1 is NA).
	assert.Equal(t, []float64{2, 3, 5, 1, 2, 4}, family.Vec(0, 0))
	assert.Equal(t, []float64{1, 10, 100, 1, 10, 100}, family.Vec(0, 1))
	// East = {2, 3, 5}: f0 observes 3 and 4 (object 5 is NA), object 3's
	// value is the only confounder-attributed one; f1 observes all three.
	assert.Equal(t, []float64{2, 7, 25, 1, 4, 16}, family.Vec(1, 0))
	assert.Equal(t, []float64{3, 130, 6100, 3, 130, 6100}, family.Vec(1, 1))
}

func poissonFixture(t *testing.T) (*state.Sample, *data.Features) {
	t.Helper()
	shapes := model.Shapes{
		NObjects:             4,
		NClusters:            1,
		NFeatures:            map[model.FeatureType]int{model.Poisson: 1},
		NGroupsPerConfounder: []int{2},
	}
	require.NoError(t, shapes.Validate())

	area, err := data.NewConfounder("area", []string{"a", "b"},
		mustBool(t, 2, 4, [][2]int{{0, 0}, {0, 1}, {1, 2}, {1, 3}}))
	require.NoError(t, err)

	counts, err := data.NewPoisson(mat.NewDense(4, 1, []float64{2, 3, 5, math.NaN()}))
	require.NoError(t, err)
	feats := &data.Features{Poisson: counts}
	require.NoError(t, feats.Validate(shapes))

	clusters := mustBool(t, 1, 4, [][2]int{{0, 0}, {0, 1}})
	weights := map[model.FeatureType]*mat.Dense{
		model.Poisson: mat.NewDense(1, 2, []float64{0.5, 0.5}),
	}
	source, err := matrix.NewBoolCube(4, 1, 2)
	require.NoError(t, err)
	for obj, comp := range []int{0, 1, 1, 1} {
		require.NoError(t, source.SetOneHot(obj, 0, comp))
	}

	sample, err := state.NewSample(shapes, []*data.Confounder{area}, clusters, weights,
		map[model.FeatureType]*matrix.BoolCube{model.Poisson: source})
	require.NoError(t, err)
	return sample, feats
}

func TestPoissonMoments(t *testing.T) {
	s, feats := poissonFixture(t)
	require.NoError(t, state.EnsureSufficientStats(s, feats, false))

	lg := func(x float64) float64 {
		v, _ := math.Lgamma(x + 1)
		return v
	}

	clusters := statsCube(t, s, model.Poisson, state.ClustersKey)
	// Cluster {0, 1} observes 2 and 3; only object 0 is cluster-attributed.
	assert.Equal(t, []float64{2, 5, 1, 2, lg(2)}, clusters.Vec(0, 0))

	area := statsCube(t, s, model.Poisson, "area")
	// Group a = {0, 1}: object 1's count is the confounder-attributed one.
	assert.Equal(t, []float64{2, 5, 1, 3, lg(3)}, area.Vec(0, 0))
	// Group b = {2, 3}: object 3 is NA.
	assert.Equal(t, []float64{1, 5, 1, 5, lg(5)}, area.Vec(1, 0))
}

// paintSlab writes a tracer value into every entry of one slab so a later
// update reveals whether that slab was rebuilt (tracer gone) or skipped
// (tracer intact).
func paintSlab(t *testing.T, c *matrix.Cube, g int, tracer float64) {
	t.Helper()
	_, n1, n2 := c.Dims()
	for f := 0; f < n1; f++ {
		for k := 0; k < n2; k++ {
			require.NoError(t, c.Set(g, f, k, tracer))
		}
	}
}

func TestCachedUpdateRebuildsOnlyChangedSlabs(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, false))

	// Move object 3 into cluster 1. Only cluster 1's slab is stale.
	require.NoError(t, fx.sample.UpdateCluster(1, 3, true))

	cube := statsCube(t, fx.sample, model.Categorical, state.ClustersKey)
	paintSlab(t, cube, 0, -7)
	paintSlab(t, cube, 1, -7)

	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, true))

	assert.Equal(t, [][]float64{{-7, -7, -7}, {-7, -7, -7}}, slabRows(t, cube, 0),
		"untouched slab must not be rebuilt under caching")
	// Cluster 1 = {3, 4}: object 3 attributes both features to the
	// confounder, so the counts match the pre-move slab. The vanished
	// tracer is what proves the rebuild.
	assert.Equal(t, [][]float64{{0, 1, 0}, {0, 1, 0}}, slabRows(t, cube, 1))
}

func TestUncachedUpdateRebuildsEverySlab(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, false))

	cube := statsCube(t, fx.sample, model.Categorical, state.ClustersKey)
	paintSlab(t, cube, 0, -7)
	paintSlab(t, cube, 1, -7)

	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, false))

	assert.Equal(t, [][]float64{{1, 0, 1}, {0, 0, 0}}, slabRows(t, cube, 0))
	assert.Equal(t, [][]float64{{0, 1, 0}, {0, 1, 0}}, slabRows(t, cube, 1))
}

func TestSourceChangeRebuildsOnlyAffectedGroups(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, false))

	// Object 3 sits in family east and in no cluster. Handing its feature 0
	// to the cluster component cannot be observed by any cluster slab, so
	// only family east goes stale.
	require.NoError(t, fx.sample.SetSourceOneHot(model.Categorical, 3, 0, 0))

	clusters := statsCube(t, fx.sample, model.Categorical, state.ClustersKey)
	family := statsCube(t, fx.sample, model.Categorical, "family")
	paintSlab(t, clusters, 0, -7)
	paintSlab(t, clusters, 1, -7)
	paintSlab(t, family, 0, -7)
	paintSlab(t, family, 1, -7)

	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, true))

	assert.Equal(t, [][]float64{{-7, -7, -7}, {-7, -7, -7}}, slabRows(t, clusters, 0))
	assert.Equal(t, [][]float64{{-7, -7, -7}, {-7, -7, -7}}, slabRows(t, clusters, 1))
	assert.Equal(t, [][]float64{{-7, -7, -7}, {-7, -7, -7}}, slabRows(t, family, 0))
	// East loses object 3's f0 contribution: it is now cluster-attributed.
	assert.Equal(t, [][]float64{{0, 0, 0}, {2, 0, 1}}, slabRows(t, family, 1))
}

func TestSecondCachedUpdateRecomputesNothing(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, false))
	require.NoError(t, fx.sample.UpdateCluster(1, 3, true))
	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, true))

	// All marks were consumed by the first cached pass; a second pass must
	// leave even a tracer-painted cube untouched.
	for _, ft := range fx.sample.FeatureTypes() {
		for _, key := range fx.sample.GroupKeys() {
			cube := statsCube(t, fx.sample, ft, key)
			n0, _, _ := cube.Dims()
			for g := 0; g < n0; g++ {
				paintSlab(t, cube, g, -7)
			}
		}
	}
	require.NoError(t, state.EnsureSufficientStats(fx.sample, fx.feats, true))
	for _, ft := range fx.sample.FeatureTypes() {
		for _, key := range fx.sample.GroupKeys() {
			cube := statsCube(t, fx.sample, ft, key)
			n0, n1, _ := cube.Dims()
			for g := 0; g < n0; g++ {
				for f := 0; f < n1; f++ {
					assert.Equal(t, -7.0, cube.Vec(g, f)[0], "%s/%s slab %d", ft, key, g)
				}
			}
		}
	}
}
