package simulate

import "math/rand/v2"

// Source is the random source behind every draw. *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() float64
	// IntN returns a uniform value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// GlobalSource returns a Source backed by the process-wide math/rand/v2
// generator. It is randomly seeded and safe for concurrent use.
func GlobalSource() Source { return globalSource{} }
