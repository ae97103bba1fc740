// Package state: invariant checks.
// ValidateSource is the debug hook run between operator applications when
// strict checking is enabled; it is O(objects × features × components) and
// stays off hot paths.

package state

import (
	"fmt"

	"github.com/nataliacp/sBayes/matrix"
)

// ValidateSource checks the source legality invariant for every feature
// type: each (object, feature) cell attributes to exactly one component,
// that component is available to the object, and its raw weight is
// positive.
func ValidateSource(s *Sample) error {
	has, err := s.ComponentAvailability()
	if err != nil {
		return err
	}
	for _, t := range s.FeatureTypes() {
		fs := s.features[t]
		nObj, nf, _ := fs.source.Dims()
		for obj := 0; obj < nObj; obj++ {
			for f := 0; f < nf; f++ {
				comp, ok := matrix.ExactlyOne(fs.source.Vec(obj, f))
				if !ok {
					return fmt.Errorf("%w: %s object %d feature %d is not one-hot",
						ErrIllegalSource, t, obj, f)
				}
				avail, err := has.At(obj, comp)
				if err != nil {
					return err
				}
				if !avail {
					return fmt.Errorf("%w: %s object %d feature %d uses unavailable component %d",
						ErrIllegalSource, t, obj, f, comp)
				}
				if fs.weights.At(f, comp) <= 0 {
					return fmt.Errorf("%w: %s object %d feature %d uses zero-weight component %d",
						ErrIllegalSource, t, obj, f, comp)
				}
			}
		}
	}
	return nil
}
