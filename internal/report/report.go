// Package report formats batch outcomes for the terminal.
package report

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/letterfit/internal/model"
)

// FormatAccuracy renders the accuracy line. An empty batch is reported as
// undefined, and cancelled runs are labelled partial.
func FormatAccuracy(out model.Outcome) string {
	line := "Accuracy: undefined (no test cases)"
	if acc, ok := out.Accuracy(); ok {
		line = fmt.Sprintf("Accuracy: %.2f%%", acc)
	}
	if out.Partial {
		line += fmt.Sprintf(" (partial: %s of %s cases)", humanize.Comma(int64(out.Total)), humanize.Comma(int64(out.Planned)))
	}
	return line
}

// FormatSummary renders the correct/total counts.
func FormatSummary(out model.Outcome) string {
	return fmt.Sprintf("Correct: %s of %s", humanize.Comma(int64(out.Correct)), humanize.Comma(int64(out.Total)))
}

// FailureTable renders failed cases as aligned rows.
func FailureTable(failures []model.CaseResult) []string {
	if len(failures) == 0 {
		return nil
	}
	headers := []string{"Line", "Letters", "Expected", "Got", "Score"}
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		got, score := "<no match>", "-"
		switch {
		case f.Err != nil:
			got = "error: " + f.Err.Error()
		case f.Matched:
			got = f.Match.Word
			score = strconv.Itoa(f.Match.Score)
		}
		rows = append(rows, []string{
			strconv.Itoa(f.Case.Line),
			f.Case.Spec,
			displayValue(f.Case.Expected),
			got,
			score,
		})
	}
	return formatTable(headers, rows, map[int]bool{0: true, 4: true})
}

func displayValue(s string) string {
	if s == "" {
		return "<empty>"
	}
	return s
}

// DictionaryTable renders imported dictionaries with their size and age.
func DictionaryTable(infos []model.DictionaryInfo) []string {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{
			info.Name,
			humanize.Comma(int64(info.Words)),
			humanize.Time(info.ImportedAt),
			info.SourcePath,
		})
	}
	return formatTable([]string{"Name", "Words", "Imported", "Source"}, rows, map[int]bool{1: true})
}
