package service

import (
	"fmt"
	"strconv"
	"strings"

	"scraper-admin/internal/models"
)

// ManualBrandHeader labels the synthetic column added by ApplyManualBrand.
const ManualBrandHeader = "BRAND (Manual)"

// ColumnLetter converts a zero-based column index to spreadsheet letters
// (0 -> A, 25 -> Z, 26 -> AA).
func ColumnLetter(index int) string {
	result := ""
	for index >= 0 {
		result = string(rune('A'+(index%26))) + result
		index = index/26 - 1
	}
	return result
}

// ColumnIndex parses spreadsheet letters or a zero-based number.
func ColumnIndex(ref string) (int, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return 0, newValidationError("empty column reference")
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 {
			return 0, newValidationError("invalid column %q", ref)
		}
		return n, nil
	}
	index := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			return 0, newValidationError("invalid column %q", ref)
		}
		index = index*26 + int(r-'A'+1)
	}
	return index - 1, nil
}

// AutoMap maps style and brand by exact header name; everything else starts unmapped.
func AutoMap(headers []string) models.ColumnMapping {
	mapping := models.ColumnMapping{}
	for i, header := range headers {
		switch normalizeHeader(header) {
		case "STYLE":
			mapping[models.FieldStyle] = i
		case "BRAND":
			mapping[models.FieldBrand] = i
		}
	}
	return mapping
}

// Assign points field at col, evicting whichever fields held col before.
// An empty field only clears col. The manual brand column only takes brand,
// since it does not exist in the uploaded file.
func Assign(mapping models.ColumnMapping, col int, field models.Field, headers []string) error {
	width := len(headers)
	if col < 0 || col >= width {
		return newValidationError("column %d is outside the header row (0-%d)", col, width-1)
	}
	if field != "" && !field.Valid() {
		return newValidationError("unknown field %q", field)
	}
	if headers[col] == ManualBrandHeader && field != "" && field != models.FieldBrand {
		return newValidationError("column %s holds the manual brand and can only be mapped to brand", ColumnLetter(col))
	}

	for f, idx := range mapping {
		if idx == col {
			delete(mapping, f)
		}
	}
	if field != "" {
		mapping[field] = col
	}
	return nil
}

// Clear removes one field's mapping without touching the others.
func Clear(mapping models.ColumnMapping, field models.Field) error {
	if !field.Valid() {
		return newValidationError("unknown field %q", field)
	}
	delete(mapping, field)
	return nil
}

// SuggestField proposes the field for the column-choice prompt: the current
// owner of col, otherwise the first unmapped of style, brand, category, colorName.
func SuggestField(mapping models.ColumnMapping, col int) models.Field {
	if owner, ok := mapping.Owner(col); ok {
		return owner
	}
	for _, f := range []models.Field{models.FieldStyle, models.FieldBrand, models.FieldCategory, models.FieldColorName} {
		if _, ok := mapping[f]; !ok {
			return f
		}
	}
	return ""
}

func MissingFields(mapping models.ColumnMapping) []models.Field {
	missing := []models.Field{}
	for _, f := range models.RequiredFields {
		if _, ok := mapping[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func RequiredSatisfied(mapping models.ColumnMapping) bool {
	return len(MissingFields(mapping)) == 0
}

// ApplyManualBrand appends a column holding brand on every row and maps the
// brand field to it. Only allowed while brand is unmapped.
func ApplyManualBrand(data *models.ExcelData, mapping models.ColumnMapping, brand string) error {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return newValidationError("manual brand must not be empty")
	}
	if _, ok := mapping[models.FieldBrand]; ok {
		return newValidationError("brand is already mapped to a column")
	}

	last := len(data.Headers) - 1
	if last >= 0 && data.Headers[last] == ManualBrandHeader {
		// Re-applying after the brand was cleared rewrites the existing column.
		for i := range data.Rows {
			data.Rows[i][last] = brand
		}
		for f, idx := range mapping {
			if idx == last {
				delete(mapping, f)
			}
		}
		mapping[models.FieldBrand] = last
		return nil
	}

	data.Headers = append(data.Headers, ManualBrandHeader)
	for i := range data.Rows {
		data.Rows[i] = append(data.Rows[i], brand)
	}
	mapping[models.FieldBrand] = len(data.Headers) - 1
	return nil
}

// IsManualBrand reports whether brand currently points at the synthetic column.
func IsManualBrand(session *models.MappingSession) bool {
	if session.ManualBrand == "" {
		return false
	}
	idx, ok := session.Mapping[models.FieldBrand]
	if !ok || idx != len(session.Data.Headers)-1 {
		return false
	}
	return session.Data.Headers[idx] == ManualBrandHeader
}

// Summarize derives the read-only view of a session's mapping.
func Summarize(session *models.MappingSession) models.MappingSummary {
	summary := models.MappingSummary{
		MissingFields:     MissingFields(session.Mapping),
		MappedColumns:     map[models.Field]string{},
		ColumnLetters:     map[models.Field]string{},
		ManualBrandActive: IsManualBrand(session),
	}
	summary.RequiredSatisfied = len(summary.MissingFields) == 0

	for _, f := range models.AllFields {
		idx, ok := session.Mapping[f]
		if !ok {
			continue
		}
		label := fmt.Sprintf("Column %d", idx+1)
		if idx < len(session.Data.Headers) && strings.TrimSpace(session.Data.Headers[idx]) != "" {
			label = session.Data.Headers[idx]
		}
		summary.MappedColumns[f] = label
		if f == models.FieldBrand && summary.ManualBrandActive {
			summary.ColumnLetters[f] = manualBrandMarker
		} else {
			summary.ColumnLetters[f] = ColumnLetter(idx)
		}
	}
	return summary
}
