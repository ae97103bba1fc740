// SPDX-License-Identifier: MIT

// Package cache: Cell implementation. One Cell tracks one derived value and
// the per-input dirty sets that tell its maintainer which group rows to
// recompute. See doc.go for the full contract.

package cache

import "errors"

var (
	// ErrUnknownInput is the panic value when MarkDirty or WhatChanged names
	// an input key the cell never declared.
	ErrUnknownInput = errors.New("cache: unknown input key")

	// ErrGroupOutOfRange is the panic value when a group index lies outside
	// the universe declared for its input key.
	ErrGroupOutOfRange = errors.New("cache: group index out of range")

	// ErrEditInProgress is the panic value when Clone or a nested Edit is
	// attempted inside an open Edit scope.
	ErrEditInProgress = errors.New("cache: edit in progress")

	// ErrNilEditFunc is returned by Edit when given a nil mutation func.
	ErrNilEditFunc = errors.New("cache: nil edit func")
)

// groupSet is a fixed-universe set of group indices.
type groupSet struct {
	bits []bool
	n    int
}

func newGroupSet(universe int) *groupSet {
	return &groupSet{bits: make([]bool, universe)}
}

func (s *groupSet) add(i int) {
	if i < 0 || i >= len(s.bits) {
		panic(ErrGroupOutOfRange)
	}
	if !s.bits[i] {
		s.bits[i] = true
		s.n++
	}
}

func (s *groupSet) addAll() {
	for i := range s.bits {
		s.bits[i] = true
	}
	s.n = len(s.bits)
}

func (s *groupSet) remove(i int) {
	if s.bits[i] {
		s.bits[i] = false
		s.n--
	}
}

func (s *groupSet) clear() {
	for i := range s.bits {
		s.bits[i] = false
	}
	s.n = 0
}

// orInto ORs the set into dst, which must be at least as long as the universe.
func (s *groupSet) orInto(dst []bool) {
	for i, b := range s.bits {
		if b {
			dst[i] = true
		}
	}
}

func (s *groupSet) clone() *groupSet {
	out := &groupSet{bits: make([]bool, len(s.bits)), n: s.n}
	copy(out.bits, s.bits)
	return out
}

// Cell is a dependency-tracked cached value of type T. T is expected to be
// a reference-like type (slice, *matrix.Cube, *mat.Dense) mutated in place
// inside Edit scopes.
type Cell[T any] struct {
	value    T
	outdated bool
	inputs   map[string]*groupSet
	// pending records marks consumed by WhatChanged inside the current Edit
	// scope, keyed by input; they are dropped on commit, restored on failure.
	pending map[string][]int
	editing bool
}

// NewCell creates a Cell over value with the given input keys and their
// group-universe sizes. A universe of zero declares a flag-only input that
// participates in staleness but resolves to no group indices. The new cell
// starts fully outdated.
func NewCell[T any](value T, inputs map[string]int) *Cell[T] {
	c := &Cell[T]{
		value:  value,
		inputs: make(map[string]*groupSet, len(inputs)),
	}
	for key, universe := range inputs {
		if universe < 0 {
			universe = 0
		}
		c.inputs[key] = newGroupSet(universe)
	}
	c.MarkAllDirty()
	return c
}

// Value returns the cached value. Callers must treat it as read-only
// outside Edit scopes.
func (c *Cell[T]) Value() T { return c.value }

// IsOutdated reports whether the value needs recomputation: true for a
// fresh cell, after any MarkDirty/MarkAllDirty, and after a failed Edit.
func (c *Cell[T]) IsOutdated() bool { return c.outdated }

// MarkDirty marks group indices of one input as changed. With no groups the
// input's whole universe is marked. Panics with ErrUnknownInput if the key
// was not declared at construction, and with ErrGroupOutOfRange if a group
// index is outside the key's universe.
func (c *Cell[T]) MarkDirty(inputKey string, groups ...int) {
	set, ok := c.inputs[inputKey]
	if !ok {
		panic(ErrUnknownInput)
	}
	if len(groups) == 0 {
		set.addAll()
	} else {
		for _, g := range groups {
			set.add(g)
		}
	}
	c.outdated = true
}

// MarkAllDirty marks every input fully dirty.
func (c *Cell[T]) MarkAllDirty() {
	for _, set := range c.inputs {
		set.addAll()
	}
	c.outdated = true
}

// WhatChanged reports which group indices of the named inputs must be
// recomputed, in ascending order.
//
// With caching=false the full universe of the named inputs is returned:
// the caller recomputes everything. With caching=true the union of the
// dirty sets is returned. Inside an Edit scope either call consumes the
// current marks of the named inputs (the recompute covers them); the
// consumption takes effect on commit and is rolled back if the edit fails.
// Outside an Edit scope the marks are left in place (peek).
//
// Panics with ErrUnknownInput on an undeclared key.
func (c *Cell[T]) WhatChanged(caching bool, inputKeys ...string) []int {
	universe := 0
	sets := make([]*groupSet, 0, len(inputKeys))
	for _, key := range inputKeys {
		set, ok := c.inputs[key]
		if !ok {
			panic(ErrUnknownInput)
		}
		sets = append(sets, set)
		if len(set.bits) > universe {
			universe = len(set.bits)
		}
	}

	var changed []int
	if caching {
		union := make([]bool, universe)
		for _, set := range sets {
			set.orInto(union)
		}
		changed = make([]int, 0, universe)
		for i, b := range union {
			if b {
				changed = append(changed, i)
			}
		}
	} else {
		changed = make([]int, universe)
		for i := range changed {
			changed[i] = i
		}
	}

	if c.editing {
		for k, key := range inputKeys {
			set := sets[k]
			for g, dirty := range set.bits {
				if dirty {
					set.remove(g)
					c.pending[key] = append(c.pending[key], g)
				}
			}
		}
	}
	return changed
}

// Edit runs fn over the cached value as a mutation scope. A nil return
// commits: consumed marks are dropped and the cell becomes clean. An error
// return or a panic restores the consumed marks and leaves the cell
// outdated.
func (c *Cell[T]) Edit(fn func(value T) error) error {
	if fn == nil {
		return ErrNilEditFunc
	}
	if c.editing {
		panic(ErrEditInProgress)
	}
	c.outdated = true
	c.editing = true
	c.pending = make(map[string][]int)
	committed := false
	defer func() {
		c.editing = false
		if !committed {
			for key, groups := range c.pending {
				set := c.inputs[key]
				for _, g := range groups {
					set.add(g)
				}
			}
		}
		c.pending = nil
	}()

	if err := fn(c.value); err != nil {
		return err
	}
	committed = true
	c.outdated = false
	return nil
}

// UpdateValue replaces the cached value wholesale and clears every mark.
func (c *Cell[T]) UpdateValue(v T) {
	c.value = v
	for _, set := range c.inputs {
		set.clear()
	}
	c.outdated = false
}

// Clone returns a deep copy of the cell: cloneValue duplicates the value,
// and every dirty set is copied, so the clone tracks staleness
// independently. Panics with ErrEditInProgress inside an Edit scope.
func (c *Cell[T]) Clone(cloneValue func(T) T) *Cell[T] {
	if c.editing {
		panic(ErrEditInProgress)
	}
	out := &Cell[T]{
		value:    cloneValue(c.value),
		outdated: c.outdated,
		inputs:   make(map[string]*groupSet, len(c.inputs)),
	}
	for key, set := range c.inputs {
		out.inputs[key] = set.clone()
	}
	return out
}
