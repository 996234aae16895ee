package lazy

// Config tunes cache behavior. The zero value is not valid; start from
// DefaultConfig and adjust with the With* methods.
type Config struct {
	// SizeLimit overrides the program's cache byte budget when
	// positive. Zero means use the budget the program was built with.
	SizeLimit int

	// MaxFlushes is how many cache flushes are tolerated before the
	// thrash heuristic may refuse further flushes and give up.
	MaxFlushes int

	// FlushProgressFactor scales the minimum input progress required
	// between flushes. A flush is refused once MaxFlushes is reached
	// and fewer than FlushProgressFactor bytes per cached state were
	// scanned since the previous flush: at that rate, determinization
	// costs more than it saves.
	FlushProgressFactor int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		SizeLimit:           0,
		MaxFlushes:          3,
		FlushProgressFactor: 10,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.SizeLimit < 0 {
		return ErrInvalidConfig
	}
	if c.MaxFlushes <= 0 {
		return ErrInvalidConfig
	}
	if c.FlushProgressFactor <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// WithSizeLimit returns a copy with the given cache byte budget.
func (c Config) WithSizeLimit(n int) Config {
	c.SizeLimit = n
	return c
}

// WithMaxFlushes returns a copy with the given flush tolerance.
func (c Config) WithMaxFlushes(n int) Config {
	c.MaxFlushes = n
	return c
}

// WithFlushProgressFactor returns a copy with the given progress factor.
func (c Config) WithFlushProgressFactor(n int) Config {
	c.FlushProgressFactor = n
	return c
}
