// Package random provides the random-variate abstraction used by creature
// generation, capture trials, and battle resolution.
package random

// Source is the randomness provider for every probabilistic rule in the game.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Uniform returns a real drawn uniformly from [min, max).
	//
	// Precondition: min <= max.
	Uniform(min, max float64) float64
	// Bernoulli returns true with probability p. p is clamped to [0, 1].
	Bernoulli(p float64) bool
	// ChiSquare returns a chi-square variate with df degrees of freedom.
	//
	// Precondition: df > 0.
	// Postcondition: result >= 0.
	ChiSquare(df float64) float64
}

// Kind names a draw for logging and scripting.
type Kind string

const (
	KindIntn      Kind = "intn"
	KindUniform   Kind = "uniform"
	KindBernoulli Kind = "bernoulli"
	KindChiSquare Kind = "chisquare"
)

func clampProbability(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
