package analysis

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Summary aggregates corpus-wide counters and activity timestamps.
// LatestIngest and LatestAnalyze are the zero time when the corresponding
// table is empty.
type Summary struct {
	Sources       int
	Statements    int
	StanceChanges int
	LatestIngest  time.Time
	LatestAnalyze time.Time
}

// Summary gathers the five independent read-only aggregates concurrently.
// A failure in any one of them fails the whole call.
func (a *Analyzer) Summary(ctx context.Context) (*Summary, error) {
	var (
		summary Summary
		errs    [5]error
		wg      sync.WaitGroup
	)

	wg.Add(5)
	a.submit(func() {
		defer wg.Done()
		summary.Sources, errs[0] = a.sources.CountSources(ctx)
	})
	a.submit(func() {
		defer wg.Done()
		summary.Statements, errs[1] = a.statements.CountStatements(ctx)
	})
	a.submit(func() {
		defer wg.Done()
		summary.StanceChanges, errs[2] = a.changes.CountStanceChanges(ctx)
	})
	a.submit(func() {
		defer wg.Done()
		summary.LatestIngest, errs[3] = a.sources.LatestSourceTime(ctx)
	})
	a.submit(func() {
		defer wg.Done()
		summary.LatestAnalyze, errs[4] = a.statements.LatestStatementTime(ctx)
	})
	wg.Wait()

	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &summary, nil
}
