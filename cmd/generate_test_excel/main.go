package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"scraper-admin/internal/service"

	"github.com/xuri/excelize/v2"
)

// Writes two sample workbooks: one with a STYLE/BRAND header below a few
// preamble rows, and one without a brand column for the manual brand flow.
func main() {
	outDir := flag.String("out", filepath.Join("storage", "uploads"), "output directory")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		return
	}

	preamble := [][]interface{}{
		{"ICON LUXURY GROUP - IMAGE REQUEST"},
		{"Prepared for", "Buying team"},
		{},
	}
	headers := []string{"#", "STYLE", "BRAND", "COLOR", "CATEGORY", "IMAGE"}
	rows := [][]interface{}{
		{1, "GG-451234-BLK", "Gucci", "Black", "Handbags", ""},
		{2, "PR-1BA217-NER", "Prada", "Nero", "Handbags", ""},
		{3, "SL-532750-RED", "Saint Laurent", "Rouge", "Shoes", ""},
		{4, "BV-609175-GRN", "Bottega Veneta", "Parakeet", "Handbags", ""},
		{5, "FE-8BR600-BRN", "Fendi", "Tobacco", "Wallets", ""},
		{6, "VA-1W0C01-IVY", "Valentino", "Ivory", "Shoes", ""},
	}

	path1 := filepath.Join(*outDir, "sample_with_brand.xlsx")
	if err := writeWorkbook(path1, preamble, headers, rows); err != nil {
		fmt.Printf("Error saving file: %v\n", err)
		return
	}
	fmt.Printf("✓ Test file 1 created: %s (header at row %d)\n", path1, len(preamble))

	noBrandHeaders := []string{"STYLE #", "COLOUR", "DEPARTMENT"}
	noBrandRows := [][]interface{}{
		{"GG-451234-BLK", "Black", "Handbags"},
		{"GG-625789-WHT", "White", "Shoes"},
		{"GG-700213-BEI", "Beige", "Accessories"},
	}
	path2 := filepath.Join(*outDir, "sample_without_brand.xlsx")
	if err := writeWorkbook(path2, nil, noBrandHeaders, noBrandRows); err != nil {
		fmt.Printf("Error saving file: %v\n", err)
		return
	}
	fmt.Printf("✓ Test file 2 created: %s (no header detected, brand must be added manually)\n", path2)
}

func writeWorkbook(path string, preamble [][]interface{}, headers []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	row := 1
	for _, line := range preamble {
		for colIdx, value := range line {
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", service.ColumnLetter(colIdx), row), value)
		}
		row++
	}

	headerRow := row
	for i, header := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s%d", service.ColumnLetter(i), headerRow), header)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName,
		fmt.Sprintf("A%d", headerRow),
		fmt.Sprintf("%s%d", service.ColumnLetter(len(headers)-1), headerRow),
		headerStyle)
	row++

	for _, data := range rows {
		for colIdx, value := range data {
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", service.ColumnLetter(colIdx), row), value)
		}
		row++
	}

	f.SetColWidth(sheetName, "A", service.ColumnLetter(len(headers)-1), 20)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(path)
}
