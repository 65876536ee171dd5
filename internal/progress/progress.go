package progress

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/verte-zerg/letterfit/internal/batch"
	"github.com/verte-zerg/letterfit/internal/model"
)

// Modes accepted by New.
const (
	ModeAuto  = "auto"
	ModeBar   = "bar"
	ModePlain = "plain"
	ModeNone  = "none"
)

// Reporter is a batch observer with a lifecycle around the run.
type Reporter interface {
	batch.Observer
	Start()
	// Stop ends the reporter. failed is set when the batch returned an
	// error and OnFinish was never called.
	Stop(failed bool) error
}

var (
	_ batch.Observer = (*Bar)(nil)
	_ batch.Observer = (*Plain)(nil)
)

// New returns the reporter for mode, writing to out. Auto picks the bar
// when out is a terminal and plain lines otherwise.
func New(mode string, out *os.File) (Reporter, error) {
	switch mode {
	case "", ModeAuto:
		if isTerminal(out) {
			return barReporter{NewBar(out, terminalWidth(out))}, nil
		}
		return plainReporter{NewPlain(out)}, nil
	case ModeBar:
		return barReporter{NewBar(out, terminalWidth(out))}, nil
	case ModePlain:
		return plainReporter{NewPlain(out)}, nil
	case ModeNone:
		return nopReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown progress mode %q (want auto, bar, plain or none)", mode)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

type barReporter struct {
	*Bar
}

func (r barReporter) Stop(failed bool) error {
	if failed {
		r.Abort()
	}
	return r.Wait()
}

type plainReporter struct {
	*Plain
}

func (plainReporter) Start() {}

func (plainReporter) Stop(bool) error { return nil }

type nopReporter struct{}

func (nopReporter) OnStart(int, int) {}
func (nopReporter) OnCaseDone(int, int, model.CaseResult) {}
func (nopReporter) OnFinish(model.Outcome) {}
func (nopReporter) Start() {}
func (nopReporter) Stop(bool) error { return nil }
