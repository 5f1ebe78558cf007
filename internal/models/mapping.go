package models

import "time"

// Field is a semantic column role understood by the scraping backend.
type Field string

const (
	FieldStyle     Field = "style"
	FieldBrand     Field = "brand"
	FieldCategory  Field = "category"
	FieldColorName Field = "colorName"
	FieldReadImage Field = "readImage"
	FieldImageAdd  Field = "imageAdd"
)

var (
	RequiredFields = []Field{FieldStyle, FieldBrand}
	OptionalFields = []Field{FieldCategory, FieldColorName, FieldReadImage, FieldImageAdd}
	AllFields      = []Field{FieldStyle, FieldBrand, FieldCategory, FieldColorName, FieldReadImage, FieldImageAdd}
)

func (f Field) Valid() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// ExcelData is the worksheet as seen from the chosen header row.
type ExcelData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Width is the number of header columns.
func (d ExcelData) Width() int {
	return len(d.Headers)
}

// ColumnMapping maps a field to a zero-based column index. Unmapped fields are absent.
type ColumnMapping map[Field]int

func (m ColumnMapping) Index(f Field) (int, bool) {
	idx, ok := m[f]
	return idx, ok
}

// Owner returns the field mapped to col, if any.
func (m ColumnMapping) Owner(col int) (Field, bool) {
	for _, f := range AllFields {
		if idx, ok := m[f]; ok && idx == col {
			return f, true
		}
	}
	return "", false
}

func (m ColumnMapping) Clone() ColumnMapping {
	out := make(ColumnMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

const (
	MappingStatusStaged        = "staged"
	MappingStatusHeaderPending = "header_pending"
	MappingStatusMapped        = "mapped"
	MappingStatusSubmitted     = "submitted"
	MappingStatusFailed        = "failed"
)

// MappingSession is one upload form session, from file staging until submission.
type MappingSession struct {
	SessionCode    string        `json:"session_code"`
	UserID         int           `json:"user_id"`
	Filename       string        `json:"filename"`
	FilePath       string        `json:"file_path"`
	PreviewRows    [][]string    `json:"preview_rows"`
	HeaderRowIndex *int          `json:"header_row_index"`
	Data           ExcelData     `json:"data"`
	Mapping        ColumnMapping `json:"mapping"`
	ManualBrand    string        `json:"manual_brand,omitempty"`
	SendToEmail    string        `json:"send_to_email,omitempty"`
	Status         string        `json:"status"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type HeaderSelectRequest struct {
	RowIndex *int `json:"row_index"`
}

type MappingUpdateRequest struct {
	Column *int   `json:"column"`
	Field  string `json:"field"`
}

type ManualBrandRequest struct {
	Brand string `json:"brand"`
}

type SubmitRequest struct {
	SendToEmail string `json:"send_to_email"`
}

// MappingSummary is the derived view returned with every session response.
type MappingSummary struct {
	RequiredSatisfied bool             `json:"required_satisfied"`
	MissingFields     []Field          `json:"missing_fields"`
	MappedColumns     map[Field]string `json:"mapped_columns"`
	ColumnLetters     map[Field]string `json:"column_letters"`
	ManualBrandActive bool             `json:"manual_brand_active"`
}
