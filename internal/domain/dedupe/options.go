package dedupe

// Option configures an in-memory submission guard.
type Option func(*inMemoryGuard)

// WithMaxEntries bounds the number of tracked submission IDs.
// Values below one leave the default in place.
func WithMaxEntries(maxEntries int) Option {
	return func(g *inMemoryGuard) {
		if maxEntries > 0 {
			g.maxEntries = maxEntries
		}
	}
}
