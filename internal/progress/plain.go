package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/letterfit/internal/model"
)

// Plain writes a progress line every tenth of the batch. It is used when
// the output is not a terminal.
type Plain struct {
	mu   sync.Mutex
	out  io.Writer
	step int
}

// NewPlain returns a Plain reporter writing to out.
func NewPlain(out io.Writer) *Plain {
	return &Plain{out: out, step: 1}
}

// OnStart implements batch.Observer.
func (p *Plain) OnStart(total, workers int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.step = max(1, total/10)
	p.printf("Processing %s test cases with %d workers...\n", humanize.Comma(int64(total)), workers)
}

// OnCaseDone implements batch.Observer.
func (p *Plain) OnCaseDone(done, total int, _ model.CaseResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if done%p.step != 0 && done != total {
		return
	}
	p.printf("Processed %s/%s\n", humanize.Comma(int64(done)), humanize.Comma(int64(total)))
}

// OnFinish implements batch.Observer.
func (p *Plain) OnFinish(out model.Outcome) {
	if !out.Partial {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf("Cancelled after %s of %s test cases\n", humanize.Comma(int64(out.Total)), humanize.Comma(int64(out.Planned)))
}

func (p *Plain) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(p.out, format, args...); err != nil {
		// Best-effort progress output.
		_ = err
	}
}
