package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/letterfit/internal/model"
)

func TestFormatAccuracy(t *testing.T) {
	tests := []struct {
		name string
		out  model.Outcome
		want string
	}{
		{name: "two decimals", out: model.Outcome{Total: 3, Correct: 2, Planned: 3}, want: "Accuracy: 66.67%"},
		{name: "all correct", out: model.Outcome{Total: 4, Correct: 4, Planned: 4}, want: "Accuracy: 100.00%"},
		{name: "empty", out: model.Outcome{}, want: "Accuracy: undefined (no test cases)"},
		{name: "partial", out: model.Outcome{Total: 1000, Correct: 500, Planned: 12000, Partial: true}, want: "Accuracy: 50.00% (partial: 1,000 of 12,000 cases)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAccuracy(tt.out); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatSummary(t *testing.T) {
	got := FormatSummary(model.Outcome{Total: 25000, Correct: 1234})
	if got != "Correct: 1,234 of 25,000" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestFailureTable(t *testing.T) {
	failures := []model.CaseResult{
		{Case: model.TestCase{Line: 3, Spec: "b:1,e:2", Expected: "bed"}, Matched: true, Match: model.MatchResult{Word: "bee", Score: 3}},
		{Case: model.TestCase{Line: 12, Spec: "q:9", Expected: "cat"}},
		{Case: model.TestCase{Line: 40, Spec: "a:x"}, Err: errors.New("bad count")},
	}
	lines := FailureTable(failures)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Line Letters") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "bee") || !strings.HasSuffix(lines[1], "3") {
		t.Fatalf("unexpected row %q", lines[1])
	}
	if !strings.Contains(lines[2], "<no match>") {
		t.Fatalf("expected no match marker, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "<empty>") || !strings.Contains(lines[3], "error: bad count") {
		t.Fatalf("unexpected error row %q", lines[3])
	}
	if FailureTable(nil) != nil {
		t.Fatalf("expected no lines for no failures")
	}
}

func TestDictionaryTable(t *testing.T) {
	infos := []model.DictionaryInfo{
		{Name: "en", SourcePath: "/data/en.txt", Words: 370105, ImportedAt: time.Now().Add(-2 * time.Hour)},
	}
	lines := DictionaryTable(infos)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "370,105") || !strings.Contains(lines[1], "2 hours ago") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
