// SPDX-License-Identifier: MIT

// Package matrix: BoolCube is a row-major third-order boolean tensor.
// It backs one-hot encoded categorical observations
// (objects × features × states) and mixture-component attributions
// (objects × features × components).

package matrix

// BoolCube is a dense 3-D tensor of boolean values in row-major order:
// element (i, j, k) lives at data[(i*n1+j)*n2+k].
type BoolCube struct {
	n0, n1, n2 int
	data       []bool
}

// NewBoolCube creates an n0×n1×n2 BoolCube initialized to false.
// Complexity: O(n0*n1*n2) time and memory.
func NewBoolCube(n0, n1, n2 int) (*BoolCube, error) {
	if n0 <= 0 || n1 <= 0 || n2 <= 0 {
		return nil, ErrBadShape
	}
	return &BoolCube{n0: n0, n1: n1, n2: n2, data: make([]bool, n0*n1*n2)}, nil
}

// Dims returns the three dimensions of the cube.
func (c *BoolCube) Dims() (n0, n1, n2 int) { return c.n0, c.n1, c.n2 }

// At returns the element at (i, j, k), or ErrOutOfRange.
func (c *BoolCube) At(i, j, k int) (bool, error) {
	if i < 0 || i >= c.n0 || j < 0 || j >= c.n1 || k < 0 || k >= c.n2 {
		return false, ErrOutOfRange
	}
	return c.data[(i*c.n1+j)*c.n2+k], nil
}

// Set assigns the element at (i, j, k), or returns ErrOutOfRange.
func (c *BoolCube) Set(i, j, k int, v bool) error {
	if i < 0 || i >= c.n0 || j < 0 || j >= c.n1 || k < 0 || k >= c.n2 {
		return ErrOutOfRange
	}
	c.data[(i*c.n1+j)*c.n2+k] = v
	return nil
}

// Vec returns a no-copy view of the innermost vector at (i, j), length n2.
// Panics with ErrOutOfRange on an invalid index. Complexity: O(1).
func (c *BoolCube) Vec(i, j int) []bool {
	if i < 0 || i >= c.n0 || j < 0 || j >= c.n1 {
		panic(ErrOutOfRange)
	}
	off := (i*c.n1 + j) * c.n2
	return c.data[off : off+c.n2]
}

// Slab returns a no-copy view of the i-th slab, length n1*n2, laid out as
// an (n1 × n2) row-major block. Panics with ErrOutOfRange on an invalid
// index. Complexity: O(1).
func (c *BoolCube) Slab(i int) []bool {
	if i < 0 || i >= c.n0 {
		panic(ErrOutOfRange)
	}
	off := i * c.n1 * c.n2
	return c.data[off : off+c.n1*c.n2]
}

// SetOneHot clears the innermost vector at (i, j) and sets position k.
// Complexity: O(n2).
func (c *BoolCube) SetOneHot(i, j, k int) error {
	if k < 0 || k >= c.n2 {
		return ErrOutOfRange
	}
	v := c.Vec(i, j)
	for t := range v {
		v[t] = false
	}
	v[k] = true
	return nil
}

// Zero resets every element to false.
func (c *BoolCube) Zero() {
	for k := range c.data {
		c.data[k] = false
	}
}

// Clone returns a deep copy sharing no storage with the receiver.
func (c *BoolCube) Clone() *BoolCube {
	out := &BoolCube{n0: c.n0, n1: c.n1, n2: c.n2, data: make([]bool, len(c.data))}
	copy(out.data, c.data)
	return out
}

// CopyFrom overwrites the receiver with src, which must have the same shape.
func (c *BoolCube) CopyFrom(src *BoolCube) error {
	if src.n0 != c.n0 || src.n1 != c.n1 || src.n2 != c.n2 {
		return ErrDimensionMismatch
	}
	copy(c.data, src.data)
	return nil
}

// Equal reports whether two cubes have the same shape and elements.
func (c *BoolCube) Equal(o *BoolCube) bool {
	if c.n0 != o.n0 || c.n1 != o.n1 || c.n2 != o.n2 {
		return false
	}
	for i, v := range c.data {
		if v != o.data[i] {
			return false
		}
	}
	return true
}
