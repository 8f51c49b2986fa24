package synthetic

import "github.com/hotstinder/hotstinder/internal/domain/simulate"

// Option configures a Generator.
type Option func(*Generator)

// WithSource sets the random source for ratings, names, roles and heroes.
func WithSource(src simulate.Source) Option {
	return func(g *Generator) {
		if src != nil {
			g.src = src
		}
	}
}

// WithIDFunc overrides how player ids are minted.
func WithIDFunc(fn func() string) Option {
	return func(g *Generator) {
		if fn != nil {
			g.newID = fn
		}
	}
}
