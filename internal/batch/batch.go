// Package batch evaluates test cases on a bounded pool of workers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/letterfit/internal/eval"
	"github.com/verte-zerg/letterfit/internal/model"
)

// ErrLostResults is returned when fewer results were collected than cases
// were dispatched. The accuracy of such a run cannot be trusted.
var ErrLostResults = errors.New("worker results were lost")

// checkFn evaluates a single case. Tests replace it to observe the pool.
var checkFn = eval.Check

// Observer receives progress events. Implementations must be safe for
// concurrent use.
type Observer interface {
	OnStart(total, workers int)
	OnCaseDone(done, total int, res model.CaseResult)
	OnFinish(out model.Outcome)
}

// Options controls a batch run.
type Options struct {
	// Workers is the pool size; values below 1 use runtime.NumCPU.
	Workers int
	// MaxFailures caps the failures kept in the outcome, lowest line first.
	MaxFailures int
	Observer    Observer
}

// Run evaluates every case against dict. When ctx is cancelled no new cases
// are dispatched and the outcome covers only the completed ones, marked
// partial.
func Run(ctx context.Context, cases []model.TestCase, dict model.Dictionary, opts Options) (model.Outcome, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	obs := opts.Observer
	if obs != nil {
		obs.OnStart(len(cases), workers)
	}

	jobs := make(chan model.TestCase)
	results := make(chan model.CaseResult, workers)
	dispatched := 0

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for _, tc := range cases {
			if gctx.Err() != nil {
				return nil
			}
			select {
			case <-gctx.Done():
				return nil
			case jobs <- tc:
				dispatched++
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for tc := range jobs {
				results <- checkCase(tc, dict)
			}
			return nil
		})
	}

	var waitErr error
	go func() {
		waitErr = g.Wait()
		close(results)
	}()

	out := model.Outcome{Planned: len(cases)}
	var failures []model.CaseResult
	for res := range results {
		out.Total++
		if res.Correct {
			out.Correct++
		} else if opts.MaxFailures > 0 {
			failures = append(failures, res)
		}
		if obs != nil {
			obs.OnCaseDone(out.Total, len(cases), res)
		}
	}
	if waitErr != nil {
		return model.Outcome{}, fmt.Errorf("batch workers failed: %w", waitErr)
	}
	// A worker that exits without sending (runtime.Goexit) drops a result.
	if out.Total != dispatched {
		return model.Outcome{}, fmt.Errorf("%w: dispatched %d, collected %d", ErrLostResults, dispatched, out.Total)
	}
	out.Partial = dispatched < len(cases)

	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].Case.Line < failures[j].Case.Line
	})
	if len(failures) > opts.MaxFailures {
		failures = failures[:opts.MaxFailures]
	}
	out.Failures = failures

	if obs != nil {
		obs.OnFinish(out)
	}
	return out, nil
}

func checkCase(tc model.TestCase, dict model.Dictionary) (res model.CaseResult) {
	defer func() {
		if r := recover(); r != nil {
			res = model.CaseResult{Case: tc, Err: fmt.Errorf("evaluation panicked: %v", r)}
		}
	}()
	return checkFn(tc, dict)
}
