// Package model defines the static description of a sBayes mixture model:
// the tensor shapes shared by every component (objects, features, clusters,
// confounders), the feature-type enumeration, and the prior hyperparameters
// of the cluster and confounding effects.
//
// Everything in this package is immutable after validation. The mutable
// chain state lives in package state; the observed data in package data.
package model
