// Package state holds the mutable state of one MCMC chain: the Sample.
//
// A Sample owns the cluster assignment, the per-feature-type mixture
// weights and source attributions, and the cache tree derived from them:
//
//   - sufficient statistics per feature type and group key ("clusters" or a
//     confounder name): categorical state counts or continuous moment
//     tables, one slab per group;
//   - per-group log-likelihoods, one cell per feature type and group key;
//   - per-component pointwise likelihoods, one cell per feature type;
//   - normalized mixture weights, one cell per feature type.
//
// Mutations go through the Sample's setters, which mark exactly the caches
// whose inputs changed: moving an object between clusters dirties the
// touched cluster rows everywhere, re-attributing a source cell dirties the
// object's cluster and confounder groups, replacing weights dirties only
// the normalized-weight cell. EverythingChanged marks the whole tree, used
// after initialization and resume.
//
// The likelihood package maintains the cache values; this package maintains
// the staleness bookkeeping and the sufficient statistics themselves.
//
// A Sample and its caches belong to a single goroutine. Copy produces a
// deep copy whose caches track staleness independently, so a rejected
// proposal is discarded wholesale and the accepted state keeps its warm
// caches.
package state
