// Package matrix: Cube is a row-major third-order float64 tensor.
// It backs the sufficient-statistic accumulators of the likelihood engines:
// categorical state counts (groups × features × states) and continuous
// moment tables (groups × features × moments).

package matrix

// Cube is a dense 3-D tensor of float64 values in row-major order:
// element (i, j, k) lives at data[(i*n1+j)*n2+k].
type Cube struct {
	n0, n1, n2 int
	data       []float64
}

// NewCube creates an n0×n1×n2 Cube initialized to zeros.
// Complexity: O(n0*n1*n2) time and memory.
func NewCube(n0, n1, n2 int) (*Cube, error) {
	if n0 <= 0 || n1 <= 0 || n2 <= 0 {
		return nil, ErrBadShape
	}
	return &Cube{n0: n0, n1: n1, n2: n2, data: make([]float64, n0*n1*n2)}, nil
}

// Dims returns the three dimensions of the cube.
func (c *Cube) Dims() (n0, n1, n2 int) { return c.n0, c.n1, c.n2 }

// At returns the element at (i, j, k), or ErrOutOfRange.
func (c *Cube) At(i, j, k int) (float64, error) {
	if i < 0 || i >= c.n0 || j < 0 || j >= c.n1 || k < 0 || k >= c.n2 {
		return 0, ErrOutOfRange
	}
	return c.data[(i*c.n1+j)*c.n2+k], nil
}

// Set assigns the element at (i, j, k), or returns ErrOutOfRange.
func (c *Cube) Set(i, j, k int, v float64) error {
	if i < 0 || i >= c.n0 || j < 0 || j >= c.n1 || k < 0 || k >= c.n2 {
		return ErrOutOfRange
	}
	c.data[(i*c.n1+j)*c.n2+k] = v
	return nil
}

// Vec returns a no-copy view of the innermost vector at (i, j), length n2.
// Panics with ErrOutOfRange on an invalid index. Complexity: O(1).
func (c *Cube) Vec(i, j int) []float64 {
	if i < 0 || i >= c.n0 || j < 0 || j >= c.n1 {
		panic(ErrOutOfRange)
	}
	off := (i*c.n1 + j) * c.n2
	return c.data[off : off+c.n2]
}

// Slab returns a no-copy view of the i-th slab, length n1*n2, laid out as
// an (n1 × n2) row-major block. Panics with ErrOutOfRange on an invalid
// index. Complexity: O(1).
func (c *Cube) Slab(i int) []float64 {
	if i < 0 || i >= c.n0 {
		panic(ErrOutOfRange)
	}
	off := i * c.n1 * c.n2
	return c.data[off : off+c.n1*c.n2]
}

// ZeroSlab resets slab i to zeros. Complexity: O(n1*n2).
func (c *Cube) ZeroSlab(i int) {
	s := c.Slab(i)
	for k := range s {
		s[k] = 0
	}
}

// Zero resets every element to zero.
func (c *Cube) Zero() {
	for k := range c.data {
		c.data[k] = 0
	}
}

// Clone returns a deep copy sharing no storage with the receiver.
func (c *Cube) Clone() *Cube {
	out := &Cube{n0: c.n0, n1: c.n1, n2: c.n2, data: make([]float64, len(c.data))}
	copy(out.data, c.data)
	return out
}

// CopyFrom overwrites the receiver with src, which must have the same shape.
func (c *Cube) CopyFrom(src *Cube) error {
	if src.n0 != c.n0 || src.n1 != c.n1 || src.n2 != c.n2 {
		return ErrDimensionMismatch
	}
	copy(c.data, src.data)
	return nil
}
