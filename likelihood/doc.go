// Package likelihood evaluates the mixture likelihood of the spatial
// clustering model.
//
// Every observed value is explained by exactly one mixture component: the
// object's spatial cluster or one of the confounder groups the object
// belongs to. Group effects are never sampled; they are integrated out
// analytically under conjugate priors, one engine per feature type:
//
//   - Categorical: Dirichlet prior over state probabilities, marginal is a
//     Dirichlet-multinomial (log multinomial-Beta ratio).
//   - Gaussian: normal prior on the mean with fixed variance, marginal and
//     posterior predictive in closed form; the observation variance is the
//     group's population variance plugged in.
//   - Poisson: Gamma prior on the rate, marginal is a negative binomial.
//   - Logit-normal: Gaussian machinery applied to logit-transformed values.
//
// The aggregate Likelihood exposes three views used by the samplers:
//
//   - Total: the full log-likelihood, summed over feature types and groups.
//   - ComponentLikelihoods: per object, feature and component, the
//     posterior-predictive density of the observation under that
//     component (the Gibbs weights of the source attribution).
//   - PointwiseConditionalClusterLh: the density of candidate objects
//     under one cluster's predictive distribution, used by informed
//     cluster growth.
//
// All three recompute only what the Sample's dirty marks name when caching
// is on and everything when it is off; results are identical either way.
// WithConsistencyChecks verifies that equivalence at runtime.
package likelihood
