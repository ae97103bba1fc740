// Package cache provides dependency-tracked cached values for the sBayes
// inference core.
//
// A Cell holds one derived value (a vector of per-group log-likelihoods, a
// counts cube, a normalized weight matrix) together with staleness marks
// for each of its declared inputs. Inputs are identified by string keys and
// resolve to group indices, so a mutation of cluster 2 can invalidate
// exactly row 2 of a per-cluster cache instead of the whole value.
//
// Contract:
//
//   - A fresh Cell is fully outdated: every input key is marked dirty for
//     its whole group universe.
//   - MarkDirty(key, groups...) accumulates marks; between commits the
//     dirty sets only grow (monotonic staleness).
//   - WhatChanged(caching, keys...) returns the group indices to recompute
//     in ascending order: the full universe of the named keys with caching
//     disabled, the union of their dirty sets with caching enabled. Inside
//     an Edit scope either call consumes the named keys' marks on commit
//     (the recompute covers them) and restores them if the edit fails;
//     outside an Edit scope it is a peek and the marks stay.
//   - Edit runs a mutation scope over the value. A nil return commits:
//     the cell becomes clean. An error return or a panic leaves the cell
//     outdated and its consumed marks restored.
//   - UpdateValue replaces the value wholesale and clears all marks.
//
// Caching only ever changes what is recomputed, never what a caller reads:
// after a committed Edit the caller aggregates over the complete value.
//
// Cells are confined to a single goroutine (one MCMC chain) and perform no
// locking. Unknown input keys panic: wiring a cell to inputs it never
// declared is a programmer error, not a runtime condition.
package cache
