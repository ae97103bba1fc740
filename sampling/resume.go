// Package sampling: resuming a chain from checkpointed results.
// Checkpoint files persist only the clusters and the raw mixture weights;
// everything else in a Sample is derived state. A resumed chain therefore
// trusts those two arrays and rebuilds the rest the same way a fresh
// initialization would.

package sampling

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/likelihood"
	"github.com/nataliacp/sBayes/matrix"
	"github.com/nataliacp/sBayes/model"
	"github.com/nataliacp/sBayes/state"
)

// ErrBadArea is returned when decoding an area string that contains
// characters other than '0' and '1'.
var ErrBadArea = errors.New("sampling: malformed area string")

// ResumeState is the slice of a previous run's last sample that a resumed
// chain trusts.
type ResumeState struct {
	// Clusters is the checkpointed membership matrix (clusters × objects).
	Clusters *matrix.Bool
	// Weights holds the checkpointed raw mixture weights per feature type.
	Weights map[model.FeatureType]*mat.Dense
	// LastStep is the step index the checkpoint was written at; the resumed
	// sample continues at LastStep+1.
	LastStep int
	// Chain identifies the chain being resumed.
	Chain int
}

// ResumeSample rebuilds a runnable Sample from a checkpoint: the source
// attribution is re-imputed from the prior, the sufficient statistics are
// rebuilt from scratch, and the cache tree starts fully outdated. A nil src
// falls back to the deterministic default stream.
func ResumeSample(lh *likelihood.Likelihood, confounders []*data.Confounder, rs ResumeState, src rand.Source) (*state.Sample, error) {
	if src == nil {
		src = rand.NewSource(defaultRNGSeed)
	}
	source, err := emptySourceCubes(lh.Shapes())
	if err != nil {
		return nil, err
	}
	s, err := state.NewSample(lh.Shapes(), confounders, rs.Clusters, rs.Weights, source)
	if err != nil {
		return nil, err
	}
	s.Chain = rs.Chain
	s.IStep = rs.LastStep + 1

	if err := ImputeSourceFromPrior(lh, s, src); err != nil {
		return nil, err
	}
	if err := state.RecalculateSufficientStats(s, lh.Features()); err != nil {
		return nil, err
	}
	if err := state.ValidateSource(s); err != nil {
		return nil, pkgerrors.Wrap(err, "resumed state is illegal")
	}
	s.EverythingChanged()
	return s, nil
}

// EncodeArea renders a cluster membership row as a compact '0'/'1' string
// for checkpoint files.
func EncodeArea(row []bool) string {
	buf := make([]byte, len(row))
	for i, in := range row {
		if in {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

// DecodeArea parses a membership row produced by EncodeArea.
func DecodeArea(area string) ([]bool, error) {
	row := make([]bool, len(area))
	for i := 0; i < len(area); i++ {
		switch area[i] {
		case '1':
			row[i] = true
		case '0':
		default:
			return nil, pkgerrors.Wrapf(ErrBadArea, "byte %d is %q", i, area[i])
		}
	}
	return row, nil
}
