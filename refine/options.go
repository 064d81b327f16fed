package refine

// Config collects the caller-tunable knobs of the optimization core.
type Config struct {
	// Step is the subgradient step size in pixel units (non-smooth regime).
	Step float64
	// SubgradCap bounds the accept/reject iterations of the non-smooth
	// regime; hitting it is reported as an iteration-limit status.
	SubgradCap int
	// GradTol is the first-order tolerance of the smooth solver.
	GradTol float64
	// StepTol is the step/parameter tolerance of the smooth solver.
	StepTol float64
	// MaxIter caps the smooth solver's major iterations.
	MaxIter int
	// Memory is the quasi-Newton correction memory.
	Memory int
	// CGTol is the relative residual tolerance of the initial-guess solve.
	CGTol float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Step:       1.0,
		SubgradCap: 10000,
		GradTol:    1e-8,
		StepTol:    1e-10,
		MaxIter:    200,
		Memory:     8,
		CGTol:      1e-10,
	}
}

// WithStep sets the subgradient step size.
func WithStep(step float64) Option {
	return func(cfg *Config) {
		if step > 0 {
			cfg.Step = step
		}
	}
}

// WithSubgradientCap sets the accept/reject safety cap.
func WithSubgradientCap(cap int) Option {
	return func(cfg *Config) {
		if cap > 0 {
			cfg.SubgradCap = cap
		}
	}
}

// WithGradTol sets the smooth solver's first-order tolerance.
func WithGradTol(tol float64) Option {
	return func(cfg *Config) {
		if tol > 0 {
			cfg.GradTol = tol
		}
	}
}

// WithStepTol sets the smooth solver's step tolerance.
func WithStepTol(tol float64) Option {
	return func(cfg *Config) {
		if tol > 0 {
			cfg.StepTol = tol
		}
	}
}

// WithMaxIter caps the smooth solver's iterations.
func WithMaxIter(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxIter = n
		}
	}
}

// WithMemory sets the quasi-Newton correction memory.
func WithMemory(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Memory = n
		}
	}
}

// WithCGTol sets the initial-guess conjugate-gradient tolerance.
func WithCGTol(tol float64) Option {
	return func(cfg *Config) {
		if tol > 0 {
			cfg.CGTol = tol
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
