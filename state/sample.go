// SPDX-License-Identifier: MIT

// Package state: Sample construction and accessors.
// The constructor deep-copies every input array, so a Sample never shares
// storage with its creator; caches start fully outdated.

package state

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/cache"
	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
)

var (
	// ErrShapeMismatch is returned when an input array disagrees with the
	// model shapes.
	ErrShapeMismatch = errors.New("state: shape mismatch")

	// ErrTypeAbsent is returned when a feature type is requested that the
	// sample does not carry.
	ErrTypeAbsent = errors.New("state: feature type absent from sample")

	// ErrUnknownGroupKey is returned for a group key that is neither
	// "clusters" nor a confounder name.
	ErrUnknownGroupKey = errors.New("state: unknown group key")

	// ErrClusterOverlap is returned when an object would end up in two
	// clusters at once.
	ErrClusterOverlap = errors.New("state: object already in a cluster")

	// ErrNotInCluster is returned when removing an object from a cluster it
	// does not belong to.
	ErrNotInCluster = errors.New("state: object not in cluster")

	// ErrIllegalSource is returned by ValidateSource when an attribution
	// violates the one-hot or availability invariants.
	ErrIllegalSource = errors.New("state: illegal source attribution")
)

// ClustersKey is the group key of the cluster component; confounder
// components use the confounder's name.
const ClustersKey = "clusters"

// Input key names used by the cache cells.
const (
	// InputAssignment marks sufficient-statistics slabs whose group
	// membership or source attribution changed.
	InputAssignment = "assignment"
	// InputSuffStats marks per-group likelihood rows whose sufficient
	// statistics changed.
	InputSuffStats = "sufficient_stats"
	// InputClusters marks pointwise rows and weight normalization after a
	// cluster membership change.
	InputClusters = "clusters"
	// InputWeights marks weight normalization after a weight change.
	InputWeights = "weights"
)

// PointwiseSuffStatsInput is the pointwise-cache input key fed by the
// sufficient statistics of one group key: "clusters_sufficient_stats",
// "family_sufficient_stats", ...
func PointwiseSuffStatsInput(groupKey string) string {
	return groupKey + "_sufficient_stats"
}

// Moment layout of continuous sufficient statistics. The *All moments run
// over every non-NA group member; the *In moments only over members whose
// source selects the component.
const (
	MomNAll   = 0
	MomSumAll = 1
	MomSqAll  = 2
	MomNIn    = 3
	MomSumIn  = 4
	MomSqIn   = 5
	// GaussianMomentDepth is the innermost dimension of Gaussian and
	// logit-normal statistic cubes.
	GaussianMomentDepth = 6
)

// Moment layout of Poisson sufficient statistics.
const (
	PoisNAll     = 0
	PoisSumAll   = 1
	PoisNIn      = 2
	PoisSumIn    = 3
	PoisLGammaIn = 4 // sum of lgamma(x+1) over in-component members
	// PoissonMomentDepth is the innermost dimension of Poisson cubes.
	PoissonMomentDepth = 5
)

// FeatureState is the per-feature-type slice of a Sample: weights, source
// and the caches derived from them.
type FeatureState struct {
	t       model.FeatureType
	weights *mat.Dense       // features × components
	source  *matrix.BoolCube // objects × features × components

	suffStats   map[string]*cache.Cell[*matrix.Cube]
	groupLH     map[string]*cache.Cell[[]float64]
	pointwise   *cache.Cell[*matrix.Cube] // objects × features × components
	normWeights *cache.Cell[*matrix.Cube] // objects × features × components
}

// Type returns the feature type of this slice.
func (fs *FeatureState) Type() model.FeatureType { return fs.t }

// Weights returns the raw mixture weights (features × components).
// Read-only; replace through Sample.SetWeights.
func (fs *FeatureState) Weights() *mat.Dense { return fs.weights }

// Source returns the source attributions (objects × features × components).
// Read-only; mutate through Sample.SetSourceOneHot or Sample.SetSource.
func (fs *FeatureState) Source() *matrix.BoolCube { return fs.source }

// SufficientStats returns the statistics cell of one group key.
func (fs *FeatureState) SufficientStats(groupKey string) (*cache.Cell[*matrix.Cube], error) {
	cell, ok := fs.suffStats[groupKey]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroupKey, groupKey)
	}
	return cell, nil
}

// GroupLikelihoods returns the per-group log-likelihood cell of one group key.
func (fs *FeatureState) GroupLikelihoods(groupKey string) (*cache.Cell[[]float64], error) {
	cell, ok := fs.groupLH[groupKey]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroupKey, groupKey)
	}
	return cell, nil
}

// Pointwise returns the per-component pointwise likelihood cell.
func (fs *FeatureState) Pointwise() *cache.Cell[*matrix.Cube] { return fs.pointwise }

// NormalizedWeights returns the normalized mixture weight cell.
func (fs *FeatureState) NormalizedWeights() *cache.Cell[*matrix.Cube] { return fs.normWeights }

// Sample is the full state of one MCMC chain.
type Sample struct {
	shapes      model.Shapes
	clusters    *matrix.Bool // clusters × objects, disjoint rows
	confounders []*data.Confounder
	features    map[model.FeatureType]*FeatureState
	order       []model.FeatureType

	// Chain identifies the chain this state belongs to; IStep is the index
	// of the last step applied to it.
	Chain int
	IStep int
}

// NewSample validates and deep-copies the given state arrays. weights and
// source must carry exactly the feature types with a positive feature count
// in shapes; clusters rows must be disjoint.
func NewSample(
	shapes model.Shapes,
	confounders []*data.Confounder,
	clusters *matrix.Bool,
	weights map[model.FeatureType]*mat.Dense,
	source map[model.FeatureType]*matrix.BoolCube,
) (*Sample, error) {
	if err := shapes.Validate(); err != nil {
		return nil, err
	}
	if len(confounders) != shapes.NConfounders() {
		return nil, fmt.Errorf("%w: %d confounders, shapes declare %d",
			ErrShapeMismatch, len(confounders), shapes.NConfounders())
	}
	for i, cf := range confounders {
		if cf.NObjects() != shapes.NObjects {
			return nil, fmt.Errorf("%w: confounder %q covers %d objects, want %d",
				ErrShapeMismatch, cf.Name(), cf.NObjects(), shapes.NObjects)
		}
		if cf.NGroups() != shapes.NGroupsPerConfounder[i] {
			return nil, fmt.Errorf("%w: confounder %q has %d groups, shapes declare %d",
				ErrShapeMismatch, cf.Name(), cf.NGroups(), shapes.NGroupsPerConfounder[i])
		}
	}
	if clusters == nil || clusters.Rows() != shapes.NClusters || clusters.Cols() != shapes.NObjects {
		return nil, fmt.Errorf("%w: clusters matrix", ErrShapeMismatch)
	}
	if err := checkDisjoint(clusters); err != nil {
		return nil, err
	}

	s := &Sample{
		shapes:      shapes,
		clusters:    clusters.Clone(),
		confounders: confounders,
		features:    make(map[model.FeatureType]*FeatureState),
	}
	nComp := shapes.NComponents()
	for _, t := range model.FeatureTypes() {
		nf := shapes.NFeatures[t]
		if nf == 0 {
			continue
		}
		w, ok := weights[t]
		if !ok {
			return nil, fmt.Errorf("%w: weights for %s", ErrShapeMismatch, t)
		}
		if r, c := w.Dims(); r != nf || c != nComp {
			return nil, fmt.Errorf("%w: %s weights %dx%d, want %dx%d", ErrShapeMismatch, t, r, c, nf, nComp)
		}
		src, ok := source[t]
		if !ok {
			return nil, fmt.Errorf("%w: source for %s", ErrShapeMismatch, t)
		}
		if n0, n1, n2 := src.Dims(); n0 != shapes.NObjects || n1 != nf || n2 != nComp {
			return nil, fmt.Errorf("%w: %s source %dx%dx%d", ErrShapeMismatch, t, n0, n1, n2)
		}
		fs, err := newFeatureState(t, shapes, confounders, mat.DenseCopyOf(w), src.Clone())
		if err != nil {
			return nil, err
		}
		s.features[t] = fs
		s.order = append(s.order, t)
	}
	if len(weights) != len(s.order) || len(source) != len(s.order) {
		return nil, fmt.Errorf("%w: weights/source carry types absent from shapes", ErrShapeMismatch)
	}
	return s, nil
}

func checkDisjoint(clusters *matrix.Bool) error {
	for obj := 0; obj < clusters.Cols(); obj++ {
		seen := false
		for k := 0; k < clusters.Rows(); k++ {
			in, err := clusters.At(k, obj)
			if err != nil {
				return err
			}
			if in && seen {
				return fmt.Errorf("%w: object %d", ErrClusterOverlap, obj)
			}
			seen = seen || in
		}
	}
	return nil
}

// statDepth returns the innermost dimension of a statistics cube.
func statDepth(t model.FeatureType, shapes model.Shapes) int {
	switch t {
	case model.Categorical:
		return shapes.NStates
	case model.Poisson:
		return PoissonMomentDepth
	default:
		return GaussianMomentDepth
	}
}

func newFeatureState(
	t model.FeatureType,
	shapes model.Shapes,
	confounders []*data.Confounder,
	weights *mat.Dense,
	source *matrix.BoolCube,
) (*FeatureState, error) {
	nf := shapes.NFeatures[t]
	nComp := shapes.NComponents()
	fs := &FeatureState{
		t:         t,
		weights:   weights,
		source:    source,
		suffStats: make(map[string]*cache.Cell[*matrix.Cube]),
		groupLH:   make(map[string]*cache.Cell[[]float64]),
	}

	pointwiseInputs := make(map[string]int)
	pointwiseInputs[InputClusters] = shapes.NClusters
	pointwiseInputs[PointwiseSuffStatsInput(ClustersKey)] = shapes.NClusters
	addCells := func(groupKey string, nGroups int) error {
		stats, err := matrix.NewCube(nGroups, nf, statDepth(t, shapes))
		if err != nil {
			return err
		}
		fs.suffStats[groupKey] = cache.NewCell(stats, map[string]int{InputAssignment: nGroups})
		fs.groupLH[groupKey] = cache.NewCell(make([]float64, nGroups), map[string]int{InputSuffStats: nGroups})
		return nil
	}
	if err := addCells(ClustersKey, shapes.NClusters); err != nil {
		return nil, err
	}
	for _, cf := range confounders {
		if err := addCells(cf.Name(), cf.NGroups()); err != nil {
			return nil, err
		}
		pointwiseInputs[PointwiseSuffStatsInput(cf.Name())] = cf.NGroups()
	}

	pw, err := matrix.NewCube(shapes.NObjects, nf, nComp)
	if err != nil {
		return nil, err
	}
	fs.pointwise = cache.NewCell(pw, pointwiseInputs)

	nw, err := matrix.NewCube(shapes.NObjects, nf, nComp)
	if err != nil {
		return nil, err
	}
	fs.normWeights = cache.NewCell(nw, map[string]int{InputWeights: 0, InputClusters: 0})
	return fs, nil
}

// Shapes returns the model shapes the sample was built against.
func (s *Sample) Shapes() model.Shapes { return s.shapes }

// Clusters returns the cluster membership matrix (clusters × objects).
// Read-only; mutate through UpdateCluster or SetClusters.
func (s *Sample) Clusters() *matrix.Bool { return s.clusters }

// ClusterRow returns a read-only view of cluster k's membership row.
func (s *Sample) ClusterRow(k int) []bool { return s.clusters.Row(k) }

// ClusterOf returns the cluster index of an object, or -1 when the object
// is in no cluster.
func (s *Sample) ClusterOf(obj int) int {
	for k := 0; k < s.clusters.Rows(); k++ {
		if s.clusters.Row(k)[obj] {
			return k
		}
	}
	return -1
}

// Confounders returns the fixed confounder assignments.
func (s *Sample) Confounders() []*data.Confounder { return s.confounders }

// FeatureTypes returns the feature types the sample carries, in canonical
// order.
func (s *Sample) FeatureTypes() []model.FeatureType { return s.order }

// Feature returns the per-type state of t.
func (s *Sample) Feature(t model.FeatureType) (*FeatureState, error) {
	fs, ok := s.features[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeAbsent, t)
	}
	return fs, nil
}

// GroupKeys returns "clusters" followed by the confounder names: one key
// per mixture component, in component order.
func (s *Sample) GroupKeys() []string {
	keys := make([]string, 0, 1+len(s.confounders))
	keys = append(keys, ClustersKey)
	for _, cf := range s.confounders {
		keys = append(keys, cf.Name())
	}
	return keys
}

// ComponentOf resolves a group key to its mixture component index:
// 0 for clusters, 1+i for the i-th confounder.
func (s *Sample) ComponentOf(groupKey string) (int, error) {
	if groupKey == ClustersKey {
		return 0, nil
	}
	for i, cf := range s.confounders {
		if cf.Name() == groupKey {
			return 1 + i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownGroupKey, groupKey)
}

// NGroups returns the number of groups under a group key.
func (s *Sample) NGroups(groupKey string) (int, error) {
	if groupKey == ClustersKey {
		return s.shapes.NClusters, nil
	}
	for _, cf := range s.confounders {
		if cf.Name() == groupKey {
			return cf.NGroups(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGroupKey, groupKey)
}

// GroupRow returns a read-only membership row of group g under a group key.
func (s *Sample) GroupRow(groupKey string, g int) ([]bool, error) {
	if groupKey == ClustersKey {
		if g < 0 || g >= s.clusters.Rows() {
			return nil, matrix.ErrOutOfRange
		}
		return s.clusters.Row(g), nil
	}
	for _, cf := range s.confounders {
		if cf.Name() == groupKey {
			if g < 0 || g >= cf.NGroups() {
				return nil, matrix.ErrOutOfRange
			}
			return cf.Group(g), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGroupKey, groupKey)
}

// ComponentAvailability builds the objects × components availability
// matrix: component 0 is available to objects inside any cluster, component
// 1+i to objects inside any group of confounder i.
func (s *Sample) ComponentAvailability() (*matrix.Bool, error) {
	has, err := matrix.NewBool(s.shapes.NObjects, s.shapes.NComponents())
	if err != nil {
		return nil, err
	}
	occupied := make([]bool, s.shapes.NObjects)
	if err := s.clusters.ColumnOr(occupied); err != nil {
		return nil, err
	}
	for obj, in := range occupied {
		if in {
			if err := has.Set(obj, 0, true); err != nil {
				return nil, err
			}
		}
	}
	for i, cf := range s.confounders {
		for obj, in := range cf.AnyGroup() {
			if in {
				if err := has.Set(obj, 1+i, true); err != nil {
					return nil, err
				}
			}
		}
	}
	return has, nil
}

// Copy returns a deep copy of the sample. Values and caches are duplicated,
// so the copy can be mutated and discarded without touching the original,
// and inherits the original's cache warmth.
func (s *Sample) Copy() *Sample {
	out := &Sample{
		shapes:      s.shapes,
		clusters:    s.clusters.Clone(),
		confounders: s.confounders,
		features:    make(map[model.FeatureType]*FeatureState, len(s.features)),
		order:       s.order,
		Chain:       s.Chain,
		IStep:       s.IStep,
	}
	cloneCube := func(c *matrix.Cube) *matrix.Cube { return c.Clone() }
	cloneVec := func(v []float64) []float64 {
		o := make([]float64, len(v))
		copy(o, v)
		return o
	}
	for t, fs := range s.features {
		nfs := &FeatureState{
			t:           fs.t,
			weights:     mat.DenseCopyOf(fs.weights),
			source:      fs.source.Clone(),
			suffStats:   make(map[string]*cache.Cell[*matrix.Cube], len(fs.suffStats)),
			groupLH:     make(map[string]*cache.Cell[[]float64], len(fs.groupLH)),
			pointwise:   fs.pointwise.Clone(cloneCube),
			normWeights: fs.normWeights.Clone(cloneCube),
		}
		for key, cell := range fs.suffStats {
			nfs.suffStats[key] = cell.Clone(cloneCube)
		}
		for key, cell := range fs.groupLH {
			nfs.groupLH[key] = cell.Clone(cloneVec)
		}
		out.features[t] = nfs
	}
	return out
}
