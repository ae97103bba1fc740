// SPDX-License-Identifier: MIT

package likelihood

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// The closed-form kernels below marginalize one group effect out of the
// likelihood under its conjugate prior. They operate on sufficient statistics
// only, so evaluating a group costs O(features), not O(members).

// LogMultinomBeta — multivariate Beta function in log space
//
// Description:
//
//	For a concentration vector a the multivariate Beta function is
//
//	    B(a) = Π_s Γ(a_s) / Γ(Σ_s a_s)
//
//	Zero entries encode padded, impossible states and are skipped; the
//	function is evaluated on the positive support only.
//
// Complexity:
//
//	Time = O(len(a)), Memory = O(1)
func LogMultinomBeta(a []float64) float64 {
	sum := 0.0
	logProd := 0.0
	for _, v := range a {
		if v == 0 {
			continue
		}
		lg, _ := math.Lgamma(v)
		logProd += lg
		sum += v
	}
	lgSum, _ := math.Lgamma(sum)
	return logProd - lgSum
}

// DirichletCategoricalLogPDF — marginal likelihood of categorical counts
//
// Description:
//
//	Observations of one feature inside one group follow a categorical
//	distribution whose state probabilities carry a Dirichlet(a) prior.
//	Integrating the probabilities out gives the Dirichlet-multinomial
//	marginal of the observed state counts k:
//
//	    log p(k | a) = log B(a + k) − log B(a)
//
//	Entries with a_s = 0 are padded impossible states: they contribute
//	nothing while unobserved and force −Inf when a count appears anyway.
//
// Complexity:
//
//	Time = O(states), Memory = O(1)
func DirichletCategoricalLogPDF(counts, a []float64) float64 {
	post := 0.0
	postSum := 0.0
	priorLog := 0.0
	priorSum := 0.0
	for s, as := range a {
		k := counts[s]
		if as == 0 {
			if k > 0 {
				return math.Inf(-1)
			}
			continue
		}
		lg, _ := math.Lgamma(as + k)
		post += lg
		postSum += as + k
		lg, _ = math.Lgamma(as)
		priorLog += lg
		priorSum += as
	}
	lgPost, _ := math.Lgamma(postSum)
	lgPrior, _ := math.Lgamma(priorSum)
	return (post - lgPost) - (priorLog - lgPrior)
}

// GaussianMuMarginalLogPDF — marginal likelihood of Gaussian observations
// with the mean integrated out
//
// Description:
//
//	n observations with sum Σx and sum of squares Σx² follow N(μ, σ²)
//	with a fixed plug-in σ and a conjugate N(μ₀, σ₀²) prior on μ.
//	The marginal likelihood is
//
//	    log p = −n/2·log(2πσ²) + ½·log σ² − ½·log(σ² + nσ₀²)
//	            − Σx²/(2σ²) − μ₀²/(2σ₀²)
//	            + (σ₀²(Σx)²/σ² + σ²μ₀²/σ₀² + 2Σxμ₀) / (2(σ² + nσ₀²))
//
//	n = 0 yields 0 (the empty product). A degenerate plug-in sigma with
//	observations present yields −Inf.
//
// Complexity:
//
//	Time = O(1), Memory = O(1)
func GaussianMuMarginalLogPDF(n, sumX, sumSq, mu0, sigma0, sigma float64) float64 {
	if n == 0 {
		return 0
	}
	if sigma <= 0 {
		return math.Inf(-1)
	}
	s2 := sigma * sigma
	s02 := sigma0 * sigma0
	denom := s2 + n*s02
	logp := -n/2*math.Log(2*math.Pi*s2) + 0.5*math.Log(s2) - 0.5*math.Log(denom)
	logp -= sumSq/(2*s2) + mu0*mu0/(2*s02)
	logp += (s02*sumX*sumX/s2 + s2*mu0*mu0/s02 + 2*sumX*mu0) / (2 * denom)
	return logp
}

// PoissonLambdaMarginalLogPDF — marginal likelihood of Poisson counts with
// the rate integrated out
//
// Description:
//
//	n counts with sum Σx and Σ log(x_i!) follow Poisson(λ) with a
//	conjugate Gamma(α₀, β₀) prior on λ. The marginal likelihood is
//
//	    log p = lgamma(α₀+Σx) − lgamma(α₀)
//	            + α₀·log β₀ − (α₀+Σx)·log(β₀+n) − Σ lgamma(x_i+1)
//
//	n = 0 yields 0.
//
// Complexity:
//
//	Time = O(1), Memory = O(1)
func PoissonLambdaMarginalLogPDF(n, sumX, sumLgamma, alpha0, beta0 float64) float64 {
	if n == 0 {
		return 0
	}
	lgPost, _ := math.Lgamma(alpha0 + sumX)
	lgPrior, _ := math.Lgamma(alpha0)
	return lgPost - lgPrior + alpha0*math.Log(beta0) - (alpha0+sumX)*math.Log(beta0+n) - sumLgamma
}

// NegBinomialLogPMF returns the log-probability of observing count k under a
// negative binomial with r successes and success probability p, the
// posterior predictive of a gamma-Poisson model:
//
//	log P(k) = lgamma(k+r) − lgamma(r) − lgamma(k+1) + r·log p + k·log(1−p)
func NegBinomialLogPMF(k, r, p float64) float64 {
	lgKR, _ := math.Lgamma(k + r)
	lgR, _ := math.Lgamma(r)
	lgK, _ := math.Lgamma(k + 1)
	return lgKR - lgR - lgK + r*math.Log(p) + k*math.Log1p(-p)
}

// posteriorPredictiveNormal returns the posterior predictive distribution of
// a new observation after n points with sum Σx, under N(μ₀, σ₀²) on the mean
// and plug-in observation sigma: N(μ_n, σ_n² + σ²) with
//
//	μ_n = (μ₀/σ₀² + Σx/σ²) / (1/σ₀² + n/σ²),  σ_n² = 1 / (1/σ₀² + n/σ²)
func posteriorPredictiveNormal(n, sumX, mu0, sigma0, sigma float64) distuv.Normal {
	s2 := sigma * sigma
	s02 := sigma0 * sigma0
	prec := 1/s02 + n/s2
	muN := (mu0/s02 + sumX/s2) / prec
	return distuv.Normal{Mu: muN, Sigma: math.Sqrt(1/prec + s2)}
}

// populationStd returns the population standard deviation from the moment
// triple (n, Σx, Σx²); 0 when n is 0 or the variance underflows.
func populationStd(n, sumX, sumSq float64) float64 {
	if n == 0 {
		return 0
	}
	mean := sumX / n
	v := sumSq/n - mean*mean
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
