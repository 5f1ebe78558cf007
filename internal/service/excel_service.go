package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"scraper-admin/internal/models"

	"github.com/xuri/excelize/v2"
)

type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// AllowedExtension reports whether filename names a workbook excelize can open.
func AllowedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ReadPreview opens a workbook file and returns the first maxRows rows of its first sheet.
func (s *ExcelService) ReadPreview(filePath string, maxRows int) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	return readPreview(f, maxRows)
}

// ReadPreviewFrom is ReadPreview over an in-memory workbook.
func (s *ExcelService) ReadPreviewFrom(r io.Reader, maxRows int) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	return readPreview(f, maxRows)
}

// readPreview keeps blank rows, reads raw cell values and pads every row to the
// widest one so all rows share one column space.
func readPreview(f *excelize.File, maxRows int) ([][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	defer rows.Close()

	var preview [][]string
	width := 0
	for len(preview) < maxRows && rows.Next() {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(preview)+1, err)
		}
		if len(cols) > width {
			width = len(cols)
		}
		preview = append(preview, cols)
	}

	if len(preview) == 0 || width == 0 {
		return nil, ErrEmptyWorkbook
	}

	for i, row := range preview {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			preview[i] = padded
		}
	}

	return preview, nil
}

// ExportProxyStatuses writes a health snapshot as a workbook.
func (s *ExcelService) ExportProxyStatuses(snapshot models.ProxySnapshot, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Proxy Health"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Provider", "Region", "URL", "Status", "Health",
		"Public IP", "Batch", "Latency (ms)", "Last Checked", "Error",
	}
	for i, header := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s1", ColumnLetter(i)), header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", ColumnLetter(len(headers)-1)), headerStyle)

	healthyStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D4EDDA"}, Pattern: 1},
	})
	unhealthyStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8D7DA"}, Pattern: 1},
	})

	for i, st := range snapshot.Statuses {
		row := i + 2
		health := "Unhealthy"
		if st.Healthy {
			health = "Healthy"
		}
		lastChecked := ""
		if !st.LastChecked.IsZero() {
			lastChecked = st.LastChecked.Format("2006-01-02 15:04:05")
		}

		values := []interface{}{
			st.ID, st.Provider, st.Region, st.URL, st.Status, health,
			st.PublicIP, st.Batch, st.LatencyMs, lastChecked, st.Error,
		}
		for col, value := range values {
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", ColumnLetter(col), row), value)
		}

		healthCell := fmt.Sprintf("F%d", row)
		if st.Healthy {
			f.SetCellStyle(sheetName, healthCell, healthCell, healthyStyle)
		} else {
			f.SetCellStyle(sheetName, healthCell, healthCell, unhealthyStyle)
		}
	}

	columnWidths := []float64{6, 14, 26, 70, 28, 12, 16, 12, 12, 20, 40}
	for i, width := range columnWidths {
		col := ColumnLetter(i)
		f.SetColWidth(sheetName, col, col, width)
	}

	f.DeleteSheet("Sheet1")

	return f.Write(w)
}
