package engine

import (
	"context"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"golang.org/x/sync/errgroup"
)

// ProcessDashboard processes every element concurrently against the shared
// dataset. Results keep the element order; a failing element never stops
// its siblings.
func (p *Processor) ProcessDashboard(ctx context.Context, ds *dataset.Dataset, elements []dashboard.ElementSpec) []Result {
	results := make([]Result, len(elements))
	if ds == nil {
		for i, e := range elements {
			results[i] = failed(e, "Data not available for element: "+e.Title)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, e := range elements {
		g.Go(func() error {
			results[i] = p.Process(gctx, ds.Rows, e)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ByID indexes results by element id.
func ByID(results []Result) map[string]Result {
	m := make(map[string]Result, len(results))
	for _, r := range results {
		m[r.ElementID] = r
	}
	return m
}
