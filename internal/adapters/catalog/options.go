package catalog

// Option applies a configuration option to the FileCatalog.
type Option func(*FileCatalog)

// WithGlob sets the pattern used to discover scorecard files.
// Empty patterns leave the default in place.
func WithGlob(glob string) Option {
	return func(c *FileCatalog) {
		if glob != "" {
			c.glob = glob
		}
	}
}
