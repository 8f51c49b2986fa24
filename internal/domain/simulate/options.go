package simulate

// Option configures a Simulator.
type Option func(*Simulator)

// WithSource sets the random source used for every draw.
func WithSource(src Source) Option {
	return func(s *Simulator) {
		if src != nil {
			s.src = src
		}
	}
}
