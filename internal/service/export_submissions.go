package service

import (
	"fmt"
	"io"

	"scraper-admin/internal/models"

	"github.com/xuri/excelize/v2"
)

// ExportSubmissions writes the submission audit rows as a workbook, with a
// per-status summary under the table.
func (s *ExcelService) ExportSubmissions(rows []models.Submission, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Submissions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Session Code", "User ID", "Filename", "Header Row",
		"Columns", "Send To", "Status", "Upstream Status", "Error Message", "Created At",
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 12},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: border,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	statusStyles := map[string]int{}
	for status, color := range map[string]string{
		models.SubmissionStatusAccepted: "#D4EDDA",
		models.SubmissionStatusRejected: "#F8D7DA",
	} {
		style, _ := f.NewStyle(&excelize.Style{
			Border: border,
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		statusStyles[status] = style
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", ColumnLetter(i))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	lastCol := ColumnLetter(len(headers) - 1)
	counts := map[string]int{}
	for i, sub := range rows {
		row := i + 2
		createdAt := ""
		if !sub.CreatedAt.IsZero() {
			createdAt = sub.CreatedAt.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			sub.ID, sub.SessionCode, sub.UserID, sub.Filename, sub.HeaderIndex,
			sub.Columns, sub.SendToEmail, sub.Status, sub.UpstreamStatus, sub.ErrorMessage, createdAt,
		}
		for col, value := range values {
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", ColumnLetter(col), row), value)
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), dataStyle)

		if style, ok := statusStyles[sub.Status]; ok {
			statusCell := fmt.Sprintf("H%d", row)
			f.SetCellStyle(sheetName, statusCell, statusCell, style)
		}
		counts[sub.Status]++
	}

	for i := range headers {
		col := ColumnLetter(i)
		f.SetColWidth(sheetName, col, col, 15)
	}
	f.SetColWidth(sheetName, "B", "B", 20) // Session Code
	f.SetColWidth(sheetName, "D", "D", 30) // Filename
	f.SetColWidth(sheetName, "F", "F", 45) // Columns
	f.SetColWidth(sheetName, "J", "J", 40) // Error Message
	f.SetColWidth(sheetName, "K", "K", 20) // Created At

	if len(rows) > 0 {
		summaryRow := len(rows) + 3
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "Summary:")
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryRow), fmt.Sprintf("Total Submissions: %d", len(rows)))

		row := summaryRow + 1
		for _, status := range []string{models.SubmissionStatusAccepted, models.SubmissionStatusRejected} {
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), fmt.Sprintf("%s: %d", status, counts[status]))
			row++
		}

		summaryStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#F0F0F0"}, Pattern: 1},
		})
		cell := fmt.Sprintf("A%d", summaryRow)
		f.SetCellStyle(sheetName, cell, cell, summaryStyle)
	}

	f.DeleteSheet("Sheet1")

	return f.Write(w)
}
