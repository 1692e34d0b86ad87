package pipeline

import (
	"cmp"
	"context"
	"slices"

	"github.com/sourcegraph/conc/pool"
)

// DefaultConcurrency is the number of logs RunMany analyzes at once when the
// caller does not say.
const DefaultConcurrency = 4

// Outcome is the result of one log in a RunMany batch. Exactly one of Result
// and Err is set.
type Outcome struct {
	Path   string
	Result *Result
	Err    error
}

// RunMany analyzes independent logs in parallel and returns one outcome per
// path, in the order the paths were given. A failed log does not stop the
// others; cancelling ctx stops logs that have not started yet.
func (a *Analyzer) RunMany(ctx context.Context, paths []string, concurrency int) []Outcome {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	type indexed struct {
		index   int
		outcome Outcome
	}

	p := pool.NewWithResults[indexed]().
		WithContext(ctx).
		WithMaxGoroutines(concurrency)

	for i, path := range paths {
		p.Go(func(ctx context.Context) (indexed, error) {
			result, err := a.Run(ctx, path)
			if err != nil {
				a.logger.Warn("log analysis failed", "path", path, "error", err)
			}
			return indexed{index: i, outcome: Outcome{Path: path, Result: result, Err: err}}, nil
		})
	}

	// Failures are carried in each Outcome, so tasks never return an error.
	results, _ := p.Wait()

	slices.SortFunc(results, func(x, y indexed) int {
		return cmp.Compare(x.index, y.index)
	})

	outcomes := make([]Outcome, len(results))
	for i, r := range results {
		outcomes[i] = r.outcome
	}
	return outcomes
}
