package service

import (
	"errors"
	"fmt"
	"strings"

	"scraper-admin/internal/models"
)

var (
	ErrSessionNotFound  = errors.New("mapping session not found")
	ErrInvalidFileType  = errors.New("invalid file type, upload an Excel workbook (.xlsx)")
	ErrEmptyWorkbook    = errors.New("workbook has no readable rows")
	ErrRefreshSkipped   = errors.New("refresh skipped, a check batch is already running or was just started")
	ErrUnknownJobAction = errors.New("unknown job action")
	ErrUpstreamDown     = errors.New("scraping backend unreachable")
)

// ValidationError is an input problem caught before any network call.
type ValidationError struct {
	Message string         `json:"message"`
	Missing []models.Field `json:"missing_fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return e.Message
	}
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(names, ", "))
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError is a non-2xx answer from the scraping backend.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.StatusCode, e.Body)
}
