package epidemicabm

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// RandomPool is the simulation's single seeded PRNG stream. It is owned
// exclusively by the Context that created it; there is no package-level
// random state, so that multiple independent simulations can run
// concurrently with independent, reproducible seeds. gonum's distuv
// types accept an explicit rand.Source, which is what lets every draw
// below come from the same underlying *rand.Rand.
type RandomPool struct {
	src *rand.Rand
}

// NewRandomPool creates a RandomPool seeded deterministically. Two pools
// created with the same seed and consumed in the same order produce
// identical sequences on the same platform.
func NewRandomPool(seed int64) *RandomPool {
	return &RandomPool{src: rand.New(rand.NewSource(seed))}
}

// Uniform draws a float64 in [0, 1).
func (r *RandomPool) Uniform() float64 {
	return r.src.Float64()
}

// Bernoulli draws true with probability p (p clamped to [0,1]).
func (r *RandomPool) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.src.Float64() < p
}

// Intn draws a uniform integer in [0, n). Panics if n <= 0, matching
// math/rand.Intn's contract.
func (r *RandomPool) Intn(n int) int {
	return r.src.Intn(n)
}

// Perm returns a random permutation of [0, n), used for the once-off
// age-shuffle at Population construction.
func (r *RandomPool) Perm(n int) []int {
	return r.src.Perm(n)
}

// Lognormal draws from a lognormal distribution parameterized directly by
// the underlying normal's mu and sigma, the form used by the daily
// contact-count jitter rather than a mean/cv parameterization.
func (r *RandomPool) Lognormal(mu, sigma float64) float64 {
	d := distuv.LogNormal{Mu: mu, Sigma: sigma, Src: r.src}
	return d.Rand()
}

// Gamma draws from a gamma distribution parameterized by its mean and
// coefficient of variation, the form used by the illness-duration
// samplers, converting to distuv's shape/rate parameterization:
// cv = 1/sqrt(shape), so
// shape = 1/cv^2 and rate = shape/mean.
func (r *RandomPool) Gamma(mean, cv float64) float64 {
	if mean <= 0 {
		return 0
	}
	if cv <= 0 {
		return mean
	}
	shape := 1 / (cv * cv)
	rate := shape / mean
	d := distuv.Gamma{Alpha: shape, Beta: rate, Src: r.src}
	return d.Rand()
}
