// Package matrix offers the dense array primitives used across the sBayes
// inference core.
//
// The matrix package provides:
//
//   - Bool, a row-major boolean matrix used for cluster membership,
//     confounder group assignment and NA masks.
//   - Cube, a row-major 3-D float64 tensor used for sufficient-statistic
//     accumulators (groups × features × states or moments).
//   - BoolCube, a row-major 3-D boolean tensor used for one-hot encoded
//     observations and mixture-component attributions.
//
// Two-dimensional float64 data (feature values, mixture weights) is stored
// in gonum's mat.Dense; this package only covers the shapes gonum does not:
// boolean elements and third-order tensors.
//
// Indexed accessors (At, Set) validate their arguments and return sentinel
// errors. View accessors (Row, Vec, Slab) return no-copy slices into the
// backing storage and follow gonum's convention of panicking on an
// out-of-range index, since they sit on hot paths where the caller controls
// the loop bounds.
package matrix
