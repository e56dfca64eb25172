package generator

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithEventCount sets the batch size. Non-positive values are ignored.
func WithEventCount(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.count = n
		}
	}
}

// WithRand replaces the random source. The source must not be shared with
// other goroutines unless it is safe for concurrent use.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rng = r
		}
	}
}
