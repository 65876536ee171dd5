package batch

import (
	"context"
	"fmt"
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/verte-zerg/letterfit/internal/model"
)

var testDict = model.Dictionary{"cat", "car", "cart", "bee", "bed"}

func testCases() []model.TestCase {
	return []model.TestCase{
		{Line: 1, Spec: "c:1,a:1,t:1,r:1", Expected: "cart"},
		{Line: 2, Spec: "b:1,e:2", Expected: "bee"},
		{Line: 3, Spec: "b:1,e:2", Expected: "bed"},
		{Line: 4, Spec: "q:9", Expected: "cat"},
		{Line: 5, Spec: "a:99999999999", Expected: "cat"},
		{Line: 6, Spec: "c:1,a:1,t:1", Expected: "cat"},
	}
}

func TestRunCountsCorrect(t *testing.T) {
	out, err := Run(context.Background(), testCases(), testDict, Options{Workers: 3, MaxFailures: 10})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Total != 6 || out.Correct != 3 {
		t.Fatalf("expected 3/6 correct, got %d/%d", out.Correct, out.Total)
	}
	if out.Partial {
		t.Fatalf("expected complete run")
	}
	acc, ok := out.Accuracy()
	if !ok || fmt.Sprintf("%.2f", acc) != "50.00" {
		t.Fatalf("unexpected accuracy %v (ok=%v)", acc, ok)
	}
	if len(out.Failures) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(out.Failures))
	}
	for i, want := range []int{3, 4, 5} {
		if out.Failures[i].Case.Line != want {
			t.Fatalf("failure %d: expected line %d, got %d", i, want, out.Failures[i].Case.Line)
		}
	}
	if out.Failures[2].Err == nil {
		t.Fatalf("expected parse error on line 5")
	}
}

func TestRunMaxFailures(t *testing.T) {
	out, err := Run(context.Background(), testCases(), testDict, Options{Workers: 2, MaxFailures: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out.Failures) != 1 || out.Failures[0].Case.Line != 3 {
		t.Fatalf("unexpected failures: %+v", out.Failures)
	}
}

func TestRunEmpty(t *testing.T) {
	out, err := Run(context.Background(), nil, testDict, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, ok := out.Accuracy(); ok {
		t.Fatalf("expected undefined accuracy, got outcome %+v", out)
	}
}

func TestRunOrderIndependent(t *testing.T) {
	var cases []model.TestCase
	for i := 0; i < 50; i++ {
		cases = append(cases, testCases()...)
	}
	want, err := Run(context.Background(), cases, testDict, Options{Workers: 4})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		shuffled := append([]model.TestCase(nil), cases...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := Run(context.Background(), shuffled, testDict, Options{Workers: i + 1})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if got.Total != want.Total || got.Correct != want.Correct {
			t.Fatalf("shuffle %d: expected %d/%d, got %d/%d", i, want.Correct, want.Total, got.Correct, got.Total)
		}
	}
}

func TestRunCancelledIsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := Run(ctx, testCases(), testDict, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !out.Partial || out.Total != 0 || out.Planned != 6 {
		t.Fatalf("expected empty partial outcome, got %+v", out)
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	started  int
	workers  int
	done     []int
	finished bool
}

func (o *recordingObserver) OnStart(total, workers int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = total
	o.workers = workers
}

func (o *recordingObserver) OnCaseDone(done, _ int, _ model.CaseResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done = append(o.done, done)
}

func (o *recordingObserver) OnFinish(model.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = true
}

func TestRunObserver(t *testing.T) {
	obs := &recordingObserver{}
	if _, err := Run(context.Background(), testCases(), testDict, Options{Observer: obs}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if obs.started != 6 || obs.workers < 1 || !obs.finished {
		t.Fatalf("unexpected observer state: %+v", obs)
	}
	if len(obs.done) != 6 {
		t.Fatalf("expected 6 progress events, got %d", len(obs.done))
	}
	for i, n := range obs.done {
		if n != i+1 {
			t.Fatalf("expected progress %d, got %d", i+1, n)
		}
	}
}

func manyCases(n int) []model.TestCase {
	cases := make([]model.TestCase, 0, n)
	for len(cases) < n {
		for _, tc := range testCases() {
			tc.Line = len(cases) + 1
			cases = append(cases, tc)
		}
	}
	return cases[:n]
}

func replaceCheck(t *testing.T, fn func(model.TestCase, model.Dictionary) model.CaseResult) {
	t.Helper()
	orig := checkFn
	checkFn = fn
	t.Cleanup(func() { checkFn = orig })
}

func TestRunBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	orig := checkFn
	replaceCheck(t, func(tc model.TestCase, dict model.Dictionary) model.CaseResult {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return orig(tc, dict)
	})

	out, err := Run(context.Background(), manyCases(30), testDict, Options{Workers: 3})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Total != 30 {
		t.Fatalf("expected 30 results, got %d", out.Total)
	}
	if got := peak.Load(); got < 1 || got > 3 {
		t.Fatalf("expected between 1 and 3 concurrent checks, got %d", got)
	}
}

func TestRunDefaultWorkers(t *testing.T) {
	obs := &recordingObserver{}
	if _, err := Run(context.Background(), testCases(), testDict, Options{Workers: 0, Observer: obs}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if obs.workers != runtime.NumCPU() {
		t.Fatalf("expected %d workers, got %d", runtime.NumCPU(), obs.workers)
	}
}

type cancellingObserver struct {
	recordingObserver
	at     int
	cancel context.CancelFunc
}

func (o *cancellingObserver) OnCaseDone(done, total int, res model.CaseResult) {
	o.recordingObserver.OnCaseDone(done, total, res)
	if done == o.at {
		o.cancel()
	}
}

func TestRunCancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cases := manyCases(5000)
	obs := &cancellingObserver{at: 10, cancel: cancel}
	out, err := Run(ctx, cases, testDict, Options{Workers: 2, Observer: obs})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !out.Partial {
		t.Fatalf("expected partial outcome")
	}
	if out.Total < 10 || out.Total >= len(cases) {
		t.Fatalf("expected between 10 and %d results, got %d", len(cases)-1, out.Total)
	}
	if out.Planned != len(cases) {
		t.Fatalf("expected planned %d, got %d", len(cases), out.Planned)
	}
	if !obs.finished {
		t.Fatalf("expected OnFinish after cancellation")
	}
}

func TestRunDetectsLostResults(t *testing.T) {
	var dropped atomic.Bool
	orig := checkFn
	replaceCheck(t, func(tc model.TestCase, dict model.Dictionary) model.CaseResult {
		if tc.Line == 4 && dropped.CompareAndSwap(false, true) {
			runtime.Goexit()
		}
		return orig(tc, dict)
	})

	_, err := Run(context.Background(), testCases(), testDict, Options{Workers: 2})
	if !errors.Is(err, ErrLostResults) {
		t.Fatalf("expected ErrLostResults, got %v", err)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	orig := checkFn
	replaceCheck(t, func(tc model.TestCase, dict model.Dictionary) model.CaseResult {
		if tc.Line == 2 {
			panic("boom")
		}
		return orig(tc, dict)
	})

	out, err := Run(context.Background(), testCases(), testDict, Options{Workers: 2, MaxFailures: 10})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Total != 6 || out.Correct != 2 {
		t.Fatalf("expected 2/6 correct, got %d/%d", out.Correct, out.Total)
	}
	if out.Failures[0].Case.Line != 2 || out.Failures[0].Err == nil {
		t.Fatalf("expected panic recorded on line 2, got %+v", out.Failures[0])
	}
}
