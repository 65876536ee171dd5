package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatTable lays rows out in space-separated columns sized to their widest
// cell in terminal cells. Short rows are padded with empty cells.
func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	all := rows
	if len(headers) > 0 {
		all = append([][]string{headers}, rows...)
	}
	widths := columnWidths(all)
	if len(widths) == 0 {
		return nil
	}

	lines := make([]string, 0, len(all))
	cells := make([]string, len(widths))
	for _, row := range all {
		for i, w := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			if rightAlignCols[i] {
				cells[i] = runewidth.FillLeft(cell, w)
			} else {
				cells[i] = runewidth.FillRight(cell, w)
			}
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return lines
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	return widths
}
