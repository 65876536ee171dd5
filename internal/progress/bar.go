// Package progress renders batch progress on the terminal.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/letterfit/internal/model"
)

const maxBarWidth = 60

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	partialNote = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

type startMsg struct {
	total   int
	workers int
}

type caseMsg struct {
	done    int
	correct int
}

type finishMsg struct {
	out model.Outcome
}

type barModel struct {
	bar      progressbar.Model
	total    int
	workers  int
	done     int
	correct  int
	started  time.Time
	finished bool
	partial  bool
}

func newBarModel(width int) barModel {
	bar := progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithoutPercentage())
	bar.Width = barWidth(width)
	return barModel{bar: bar, started: time.Now()}
}

func barWidth(termWidth int) int {
	w := termWidth - 40
	if w > maxBarWidth {
		w = maxBarWidth
	}
	if w < 10 {
		w = 10
	}
	return w
}

// Init implements tea.Model.
func (m barModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m barModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = barWidth(msg.Width)
		return m, nil
	case startMsg:
		m.total = msg.total
		m.workers = msg.workers
		m.started = time.Now()
		return m, nil
	case caseMsg:
		m.done = msg.done
		m.correct = msg.correct
		return m, nil
	case finishMsg:
		m.done = msg.out.Total
		m.correct = msg.out.Correct
		m.partial = msg.out.Partial
		m.finished = true
		return m, tea.Quit
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m barModel) View() string {
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	title := "Evaluating"
	if m.finished {
		title = "Done"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString(" ")
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString(" ")
	b.WriteString(countStyle.Render(fmt.Sprintf("%s/%s", humanize.Comma(int64(m.done)), humanize.Comma(int64(m.total)))))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s correct  %d workers  %s", humanize.Comma(int64(m.correct)), m.workers, time.Since(m.started).Round(100*time.Millisecond))))
	if m.partial {
		b.WriteString(" ")
		b.WriteString(partialNote.Render("cancelled"))
	}
	b.WriteString("\n")
	return b.String()
}

// Bar shows a Bubble Tea progress bar fed by batch events.
type Bar struct {
	program *tea.Program

	mu      sync.Mutex
	step    int
	correct int

	done chan struct{}
	err  error
}

// NewBar builds a progress bar writing to out. The program never reads
// input; interrupts are left to the caller's signal handling.
func NewBar(out io.Writer, termWidth int) *Bar {
	program := tea.NewProgram(newBarModel(termWidth),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	return &Bar{program: program, step: 1, done: make(chan struct{})}
}

// Start runs the program in the background.
func (b *Bar) Start() {
	go func() {
		_, err := b.program.Run()
		b.err = err
		close(b.done)
	}()
}

// Wait blocks until the program has drawn its final frame.
func (b *Bar) Wait() error {
	<-b.done
	return b.err
}

// OnStart implements batch.Observer.
func (b *Bar) OnStart(total, workers int) {
	b.mu.Lock()
	b.step = max(1, total/200)
	b.mu.Unlock()
	b.program.Send(startMsg{total: total, workers: workers})
}

// OnCaseDone implements batch.Observer.
func (b *Bar) OnCaseDone(done, total int, res model.CaseResult) {
	b.mu.Lock()
	if res.Correct {
		b.correct++
	}
	correct := b.correct
	send := done == total || done%b.step == 0
	b.mu.Unlock()
	if send {
		b.program.Send(caseMsg{done: done, correct: correct})
	}
}

// OnFinish implements batch.Observer.
func (b *Bar) OnFinish(out model.Outcome) {
	b.program.Send(finishMsg{out: out})
}

// Abort stops the program when the batch fails before OnFinish.
func (b *Bar) Abort() {
	b.program.Quit()
}
