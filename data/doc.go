// Package data holds the observed side of a sBayes model: feature values
// per feature type, confounder group assignments, and the spatial adjacency
// network used to grow clusters.
//
// Observations are immutable once loaded. Categorical features are one-hot
// encoded with an all-false row meaning NA; continuous features use NaN.
// Logit-normal features are transformed to the logit scale at load time, so
// the likelihood engines only ever see the Gaussian-scale values.
//
// The Network keeps sorted adjacency lists and answers the one query the
// sampler needs: the frontier of a cluster, i.e. neighbours of its members
// that are not blocked by an exclusion mask. It is built from an explicit
// edge list or, when the dataset ships site coordinates, as the Gabriel
// graph of the locations.
package data
