// Package data_test validates confounder construction and lookups.
package data_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nataliacp/sBayes/data"
	"github.com/nataliacp/sBayes/matrix"
)

// assignment over 5 objects: group 0 = {0,1}, group 1 = {3}.
func familyAssignment(t *testing.T) *matrix.Bool {
	t.Helper()
	m, err := matrix.NewBool(2, 5)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 0, true))
	require.NoError(t, m.Set(0, 1, true))
	require.NoError(t, m.Set(1, 3, true))
	return m
}

func TestNewConfounder(t *testing.T) {
	c, err := data.NewConfounder("family", []string{"west", "east"}, familyAssignment(t))
	require.NoError(t, err)

	assert.Equal(t, "family", c.Name())
	assert.Equal(t, 2, c.NGroups())
	assert.Equal(t, 5, c.NObjects())
	assert.Equal(t, []string{"west", "east"}, c.GroupNames())
	assert.Equal(t, []bool{true, true, false, false, false}, c.Group(0))
	assert.Equal(t, 0, c.GroupOf(1))
	assert.Equal(t, 1, c.GroupOf(3))
	assert.Equal(t, -1, c.GroupOf(2), "object 2 belongs to no group")
	assert.Equal(t, []bool{true, true, false, true, false}, c.AnyGroup())
}

func TestNewConfounderRejects(t *testing.T) {
	over := familyAssignment(t)
	require.NoError(t, over.Set(1, 0, true)) // object 0 now in both groups
	_, err := data.NewConfounder("family", []string{"west", "east"}, over)
	assert.ErrorIs(t, err, data.ErrGroupsOverlap)

	_, err = data.NewConfounder("family", []string{"west"}, familyAssignment(t))
	assert.ErrorIs(t, err, data.ErrBadConfounder, "group name count mismatch")

	_, err = data.NewConfounder("", []string{"west", "east"}, familyAssignment(t))
	assert.ErrorIs(t, err, data.ErrBadConfounder, "empty name")

	_, err = data.NewConfounder("family", nil, nil)
	assert.ErrorIs(t, err, data.ErrBadConfounder, "nil assignment")
}

func TestConfounderCopiesAssignment(t *testing.T) {
	m := familyAssignment(t)
	c, err := data.NewConfounder("family", []string{"west", "east"}, m)
	require.NoError(t, err)

	require.NoError(t, m.Set(0, 4, true)) // mutate the input after construction
	assert.False(t, c.Group(0)[4], "confounder must have copied the assignment")
}
