// SPDX-License-Identifier: MIT

// Package data: confounder group assignments.
// A confounder partitions a subset of the objects into named groups; the
// assignment is fixed for the whole run. Objects outside every group simply
// receive no effect from this confounder.

package data

import (
	"errors"
	"fmt"

	"github.com/nataliacp/sBayes/matrix"
)

var (
	// ErrGroupsOverlap is returned when two groups of one confounder claim
	// the same object.
	ErrGroupsOverlap = errors.New("data: confounder groups overlap")

	// ErrBadConfounder is returned on malformed confounder construction
	// (empty name, group name count not matching the assignment rows).
	ErrBadConfounder = errors.New("data: malformed confounder")
)

// Confounder is a fixed partition of (a subset of) the objects into groups.
type Confounder struct {
	name       string
	groupNames []string
	assignment *matrix.Bool // groups × objects, rows disjoint
	anyGroup   []bool       // per object, member of any group
}

// NewConfounder validates that the group rows are disjoint and returns the
// immutable confounder.
func NewConfounder(name string, groupNames []string, assignment *matrix.Bool) (*Confounder, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrBadConfounder)
	}
	if assignment == nil || len(groupNames) != assignment.Rows() {
		return nil, fmt.Errorf("%w: %q has %d group names for %d rows",
			ErrBadConfounder, name, len(groupNames), rowsOf(assignment))
	}
	anyGroup := make([]bool, assignment.Cols())
	for g := 0; g < assignment.Rows(); g++ {
		row := assignment.Row(g)
		for obj, in := range row {
			if !in {
				continue
			}
			if anyGroup[obj] {
				return nil, fmt.Errorf("%w: %q object %d", ErrGroupsOverlap, name, obj)
			}
			anyGroup[obj] = true
		}
	}
	return &Confounder{
		name:       name,
		groupNames: groupNames,
		assignment: assignment.Clone(),
		anyGroup:   anyGroup,
	}, nil
}

func rowsOf(b *matrix.Bool) int {
	if b == nil {
		return 0
	}
	return b.Rows()
}

// Name returns the confounder's name, used as a group key in caches.
func (c *Confounder) Name() string { return c.name }

// NGroups returns the number of groups.
func (c *Confounder) NGroups() int { return c.assignment.Rows() }

// NObjects returns the number of objects the assignment covers.
func (c *Confounder) NObjects() int { return c.assignment.Cols() }

// GroupNames returns the group names in row order.
func (c *Confounder) GroupNames() []string { return c.groupNames }

// Group returns a read-only view of group g's membership row.
func (c *Confounder) Group(g int) []bool { return c.assignment.Row(g) }

// GroupOf returns the group index of object obj, or -1 when the object
// belongs to no group of this confounder.
func (c *Confounder) GroupOf(obj int) int {
	for g := 0; g < c.assignment.Rows(); g++ {
		if c.assignment.Row(g)[obj] {
			return g
		}
	}
	return -1
}

// AnyGroup returns a read-only per-object membership-in-any-group vector.
func (c *Confounder) AnyGroup() []bool { return c.anyGroup }
