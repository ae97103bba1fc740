// SPDX-License-Identifier: MIT

// Package matrix: Bool is a row-major boolean matrix backed by a flat slice.
// It is the storage type for cluster membership (clusters × objects),
// confounder group assignment (groups × objects) and NA masks
// (objects × features). All mutating helpers operate in place.

package matrix

// Bool is a row-major matrix of boolean values.
// r is rows, c is columns, and data holds r*c elements in row-major order.
type Bool struct {
	r, c int
	data []bool
}

// NewBool creates an r×c Bool matrix initialized to false.
// Complexity: O(r*c) time and memory.
func NewBool(rows, cols int) (*Bool, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrBadShape
	}
	return &Bool{r: rows, c: cols, data: make([]bool, rows*cols)}, nil
}

// Rows returns the number of rows.
func (b *Bool) Rows() int { return b.r }

// Cols returns the number of columns.
func (b *Bool) Cols() int { return b.c }

// At returns the element at (row, col), or ErrOutOfRange.
func (b *Bool) At(row, col int) (bool, error) {
	if row < 0 || row >= b.r || col < 0 || col >= b.c {
		return false, ErrOutOfRange
	}
	return b.data[row*b.c+col], nil
}

// Set assigns the element at (row, col), or returns ErrOutOfRange.
func (b *Bool) Set(row, col int, v bool) error {
	if row < 0 || row >= b.r || col < 0 || col >= b.c {
		return ErrOutOfRange
	}
	b.data[row*b.c+col] = v
	return nil
}

// Row returns a no-copy view of row r. Mutations through the returned slice
// are visible in the matrix. Panics with ErrOutOfRange if r is invalid.
// Complexity: O(1).
func (b *Bool) Row(r int) []bool {
	if r < 0 || r >= b.r {
		panic(ErrOutOfRange)
	}
	return b.data[r*b.c : (r+1)*b.c]
}

// CountRow returns the number of true elements in row r.
// Complexity: O(c).
func (b *Bool) CountRow(r int) int {
	return CountTrue(b.Row(r))
}

// Count returns the number of true elements in the whole matrix.
// Complexity: O(r*c).
func (b *Bool) Count() int {
	return CountTrue(b.data)
}

// ColumnOr writes, per column, the OR over all rows into dst.
// dst must have length Cols. Used to collapse membership matrices into a
// single occupancy vector. Complexity: O(r*c).
func (b *Bool) ColumnOr(dst []bool) error {
	if len(dst) != b.c {
		return ErrDimensionMismatch
	}
	for j := range dst {
		dst[j] = false
	}
	for i := 0; i < b.r; i++ {
		row := b.data[i*b.c : (i+1)*b.c]
		for j, v := range row {
			if v {
				dst[j] = true
			}
		}
	}
	return nil
}

// Zero resets every element to false.
func (b *Bool) Zero() {
	for i := range b.data {
		b.data[i] = false
	}
}

// Clone returns a deep copy sharing no storage with the receiver.
func (b *Bool) Clone() *Bool {
	out := &Bool{r: b.r, c: b.c, data: make([]bool, len(b.data))}
	copy(out.data, b.data)
	return out
}

// CopyFrom overwrites the receiver with src, which must have the same shape.
func (b *Bool) CopyFrom(src *Bool) error {
	if src.r != b.r || src.c != b.c {
		return ErrDimensionMismatch
	}
	copy(b.data, src.data)
	return nil
}

// Equal reports whether two matrices have the same shape and elements.
func (b *Bool) Equal(o *Bool) bool {
	if b.r != o.r || b.c != o.c {
		return false
	}
	for i, v := range b.data {
		if v != o.data[i] {
			return false
		}
	}
	return true
}

// CountTrue returns the number of true elements in v.
func CountTrue(v []bool) int {
	n := 0
	for _, x := range v {
		if x {
			n++
		}
	}
	return n
}

// FirstTrue returns the index of the first true element of v, or -1.
func FirstTrue(v []bool) int {
	for i, x := range v {
		if x {
			return i
		}
	}
	return -1
}

// ExactlyOne reports the index of the single true element of v.
// ok is false when v has zero or more than one true element.
func ExactlyOne(v []bool) (idx int, ok bool) {
	idx = -1
	for i, x := range v {
		if !x {
			continue
		}
		if idx >= 0 {
			return -1, false
		}
		idx = i
	}
	return idx, idx >= 0
}
