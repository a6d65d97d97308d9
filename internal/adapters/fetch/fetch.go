// Package fetch fans report table scans out over a bounded worker pool.
// A slow or broken table never blocks the others; its failure is reported
// back so callers can mark the report partial.
package fetch

import (
	"context"
	"runtime"
	"sync"
	"time"

	repository "github.com/caliberhq/caliper/internal/adapters/repository"
	"github.com/caliberhq/caliper/pkg/logger"
	"github.com/caliberhq/caliper/pkg/metrics"
)

// Scanner is the slice of the audit store the pool reads from.
type Scanner interface {
	ScanTable(ctx context.Context, table string, w repository.Window) ([]repository.Audit, error)
}

// Result is one table's scan outcome.
type Result struct {
	Table string
	Rows  []repository.Audit
	Err   error
}

// Pool runs table scans with bounded concurrency.
type Pool struct {
	scanner Scanner
	workers int
	logger  logger.Logger
}

// NewPool creates a fetch pool over the given scanner.
func NewPool(scanner Scanner, opts ...Option) *Pool {
	p := &Pool{
		scanner: scanner,
		workers: runtime.NumCPU(),
		logger:  logger.Get().Named("fetch"),
	}

	for _, opt := range opts {
		opt(p)
	}

	metrics.UpdateFetchWorkerCount(p.workers)
	return p
}

// Workers reports the pool's concurrency bound.
func (p *Pool) Workers() int {
	return p.workers
}

// Fetch scans every table inside the window and returns the merged rows
// in input table order, plus the tables whose scans failed. The only
// error returned is context cancellation; per-table failures are
// isolated into the failed list.
func (p *Pool) Fetch(ctx context.Context, tables []string, w repository.Window) ([]repository.Audit, []string, error) {
	if len(tables) == 0 {
		return nil, nil, nil
	}

	workers := p.workers
	if workers > len(tables) {
		workers = len(tables)
	}

	jobs := make(chan string)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for table := range jobs {
				results <- p.scanOne(ctx, table, w)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, table := range tables {
			select {
			case jobs <- table:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byTable := make(map[string]Result, len(tables))
	for res := range results {
		byTable[res.Table] = res
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var (
		rows   []repository.Audit
		failed []string
	)
	for _, table := range tables {
		res, ok := byTable[table]
		if !ok {
			continue
		}
		if res.Err != nil {
			failed = append(failed, table)
			continue
		}
		rows = append(rows, res.Rows...)
	}

	return rows, failed, nil
}

func (p *Pool) scanOne(ctx context.Context, table string, w repository.Window) Result {
	start := time.Now()
	rows, err := p.scanner.ScanTable(ctx, table, w)
	metrics.RecordFetchTableLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordFetchError()
		metrics.RecordErrorByComponent("fetch", "scan_error")
		p.logger.Error(ctx, "table scan failed",
			logger.String("table", table),
			logger.Error(err))
		return Result{Table: table, Err: err}
	}

	metrics.RecordFetchTable()
	metrics.RecordReportRowsScanned(len(rows))
	return Result{Table: table, Rows: rows}
}
