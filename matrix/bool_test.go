// Package matrix_test contains unit tests for the Bool matrix and the
// boolean vector helpers of the matrix package.
package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nataliacp/sBayes/matrix"
)

// TestNewBoolInvalidShape ensures that NewBool rejects non-positive dimensions.
func TestNewBoolInvalidShape(t *testing.T) {
	_, err := matrix.NewBool(0, 5)
	require.ErrorIs(t, err, matrix.ErrBadShape) // zero rows

	_, err = matrix.NewBool(5, -1)
	require.ErrorIs(t, err, matrix.ErrBadShape) // negative columns
}

// TestBoolAtSet verifies indexed access, including out-of-range sentinels.
func TestBoolAtSet(t *testing.T) {
	b, err := matrix.NewBool(2, 3)
	require.NoError(t, err)

	require.NoError(t, b.Set(1, 2, true))
	v, err := b.At(1, 2)
	require.NoError(t, err)
	require.True(t, v)

	_, err = b.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	_, err = b.At(0, 3)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	err = b.Set(2, 0, true)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestBoolRowView verifies that Row returns a live view into the storage.
func TestBoolRowView(t *testing.T) {
	b, err := matrix.NewBool(3, 4)
	require.NoError(t, err)

	row := b.Row(1)
	row[2] = true // mutate through the view

	v, err := b.At(1, 2)
	require.NoError(t, err)
	require.True(t, v, "mutation through Row view must be visible via At")

	require.Panics(t, func() { b.Row(3) }, "out-of-range Row must panic")
}

// TestBoolCounts exercises CountRow, Count and ColumnOr.
func TestBoolCounts(t *testing.T) {
	b, err := matrix.NewBool(2, 4)
	require.NoError(t, err)
	require.NoError(t, b.Set(0, 0, true))
	require.NoError(t, b.Set(0, 2, true))
	require.NoError(t, b.Set(1, 2, true))

	require.Equal(t, 2, b.CountRow(0))
	require.Equal(t, 1, b.CountRow(1))
	require.Equal(t, 3, b.Count())

	occ := make([]bool, 4)
	require.NoError(t, b.ColumnOr(occ))
	require.Equal(t, []bool{true, false, true, false}, occ)

	short := make([]bool, 3)
	require.ErrorIs(t, b.ColumnOr(short), matrix.ErrDimensionMismatch)
}

// TestBoolCloneIndependence ensures Clone shares no storage with the source.
func TestBoolCloneIndependence(t *testing.T) {
	b, err := matrix.NewBool(2, 2)
	require.NoError(t, err)
	require.NoError(t, b.Set(0, 0, true))

	c := b.Clone()
	require.True(t, b.Equal(c))

	require.NoError(t, c.Set(1, 1, true))
	require.False(t, b.Equal(c), "mutating the clone must not affect the source")

	v, err := b.At(1, 1)
	require.NoError(t, err)
	require.False(t, v)
}

// TestBoolCopyFrom verifies CopyFrom semantics and its shape check.
func TestBoolCopyFrom(t *testing.T) {
	src, err := matrix.NewBool(2, 2)
	require.NoError(t, err)
	require.NoError(t, src.Set(1, 0, true))

	dst, err := matrix.NewBool(2, 2)
	require.NoError(t, err)
	require.NoError(t, dst.CopyFrom(src))
	require.True(t, dst.Equal(src))

	other, err := matrix.NewBool(3, 2)
	require.NoError(t, err)
	require.ErrorIs(t, other.CopyFrom(src), matrix.ErrDimensionMismatch)
}

// TestVectorHelpers exercises CountTrue, FirstTrue and ExactlyOne.
func TestVectorHelpers(t *testing.T) {
	require.Equal(t, 2, matrix.CountTrue([]bool{true, false, true}))
	require.Equal(t, 1, matrix.FirstTrue([]bool{false, true, true}))
	require.Equal(t, -1, matrix.FirstTrue([]bool{false, false}))

	idx, ok := matrix.ExactlyOne([]bool{false, true, false})
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = matrix.ExactlyOne([]bool{false, false})
	require.False(t, ok, "all-false vector is not one-hot")

	_, ok = matrix.ExactlyOne([]bool{true, true})
	require.False(t, ok, "two true elements are not one-hot")
}
