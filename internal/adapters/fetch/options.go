package fetch

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkers bounds how many table scans run at once.
// Values below one leave the default in place.
func WithWorkers(workers int) Option {
	return func(p *Pool) {
		if workers > 0 {
			p.workers = workers
		}
	}
}
