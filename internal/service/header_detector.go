package service

import "strings"

// TargetHeaders is the vocabulary that marks a header row.
var TargetHeaders = []string{"BRAND", "STYLE"}

// minHeaderMatches is how many target cells a row needs to qualify.
const minHeaderMatches = 2

// DetectHeaderRow returns the first row within the window holding at least two
// target header cells. Cells are compared upper-cased and trimmed; the same
// token appearing twice counts twice.
func DetectHeaderRow(rows [][]string, window int) (int, bool) {
	limit := window
	if limit > len(rows) {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		matches := 0
		for _, cell := range rows[i] {
			if isTargetHeader(normalizeHeader(cell)) {
				matches++
			}
		}
		if matches >= minHeaderMatches {
			return i, true
		}
	}

	return 0, false
}

func normalizeHeader(cell string) string {
	return strings.ToUpper(strings.TrimSpace(cell))
}

func isTargetHeader(value string) bool {
	for _, target := range TargetHeaders {
		if value == target {
			return true
		}
	}
	return false
}

// BuildExcelData splits preview rows at the header row. Rows are padded or cut
// to the header width so every column index is addressable.
func BuildExcelData(preview [][]string, headerRow int) ([]string, [][]string) {
	headers := append([]string(nil), preview[headerRow]...)
	width := len(headers)

	rows := make([][]string, 0, len(preview)-headerRow-1)
	for _, raw := range preview[headerRow+1:] {
		row := make([]string, width)
		copy(row, raw)
		rows = append(rows, row)
	}

	return headers, rows
}
