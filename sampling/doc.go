// Package sampling builds the starting state of MCMC chains and resumes
// interrupted ones.
//
// A chain cannot start from arbitrary values: clusters must be connected
// subgraphs of the spatial network, every (object, feature) cell must
// attribute its observation to exactly one available mixture component, and
// the cached sufficient statistics must agree with both. The Initializer
// constructs such a state in stages:
//
//  1. seed every cluster with one free object (or pre-grow all clusters by
//     uniform frontier steps);
//  2. flat mixture weights and a source attribution imputed from the prior;
//  3. a Gibbs sweep of the source given weights and pointwise likelihoods;
//  4. round-robin informed growth, adding the frontier object with the
//     highest posterior-predictive support one at a time, until every
//     cluster reaches its initial size;
//  5. a final sweep, optional improvement steps, and a full cache
//     invalidation so the chain starts cold.
//
// The whole construction repeats for a configurable number of attempts and
// the highest-likelihood result wins. Growth dead ends are values, not
// panics: a skipped step leaves the cluster smaller, ErrClusterGrowth
// reports a walled-in cluster, and ErrInitialSizeTooLarge reports a
// configuration the network cannot host.
//
// All randomness flows through seed-derived streams, so equal seeds yield
// identical samples across platforms.
package sampling
