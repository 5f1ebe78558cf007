package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"scraper-admin/internal/models"

	"github.com/sirupsen/logrus"
)

const manualBrandMarker = "MANUAL"

// SubmissionForm is the encoded multipart payload for POST /submitImage, minus the file.
type SubmissionForm struct {
	SearchCol   string `json:"searchColImage"`
	BrandCol    string `json:"brandColImage"`
	ManualBrand string `json:"manualBrand,omitempty"`
	ColorCol    string `json:"ColorColImage,omitempty"`
	CategoryCol string `json:"CategoryColImage,omitempty"`
	ImageCol    string `json:"imageColumnImage,omitempty"`
	HeaderIndex int    `json:"header_index"`
	SendToEmail string `json:"sendToEmail,omitempty"`
}

// Fields returns the form fields in the order they are written.
func (f SubmissionForm) Fields() [][2]string {
	fields := [][2]string{}
	if f.ImageCol != "" {
		fields = append(fields, [2]string{"imageColumnImage", f.ImageCol})
	}
	fields = append(fields,
		[2]string{"searchColImage", f.SearchCol},
		[2]string{"brandColImage", f.BrandCol},
	)
	if f.ColorCol != "" {
		fields = append(fields, [2]string{"ColorColImage", f.ColorCol})
	}
	if f.CategoryCol != "" {
		fields = append(fields, [2]string{"CategoryColImage", f.CategoryCol})
	}
	fields = append(fields, [2]string{"header_index", strconv.Itoa(f.HeaderIndex)})
	if f.ManualBrand != "" {
		fields = append(fields, [2]string{"manualBrand", f.ManualBrand})
	}
	if f.SendToEmail != "" {
		fields = append(fields, [2]string{"sendToEmail", f.SendToEmail})
	}
	return fields
}

// ValidateSession checks everything a submission needs before any network call.
func ValidateSession(session *models.MappingSession) error {
	if session.HeaderRowIndex == nil {
		return newValidationError("header row not selected")
	}
	if missing := MissingFields(session.Mapping); len(missing) > 0 {
		return &ValidationError{Message: "missing required columns", Missing: missing}
	}
	if session.FilePath == "" {
		return newValidationError("no file selected")
	}
	return nil
}

// EncodeSubmission validates the session and encodes its mapping as column letters.
func EncodeSubmission(session *models.MappingSession, sendToEmail string) (SubmissionForm, error) {
	if err := ValidateSession(session); err != nil {
		return SubmissionForm{}, err
	}

	letter := func(f models.Field) string {
		if idx, ok := session.Mapping[f]; ok {
			return ColumnLetter(idx)
		}
		return ""
	}

	form := SubmissionForm{
		SearchCol:   letter(models.FieldStyle),
		BrandCol:    letter(models.FieldBrand),
		ColorCol:    letter(models.FieldColorName),
		CategoryCol: letter(models.FieldCategory),
		ImageCol:    letter(models.FieldReadImage),
		HeaderIndex: *session.HeaderRowIndex,
		SendToEmail: strings.TrimSpace(sendToEmail),
	}
	if form.ImageCol == "" {
		form.ImageCol = letter(models.FieldImageAdd)
	}
	if IsManualBrand(session) {
		form.BrandCol = manualBrandMarker
		form.ManualBrand = session.ManualBrand
	}

	return form, nil
}

// SubmissionClient posts encoded spreadsheets to the scraping backend.
type SubmissionClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewSubmissionClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *SubmissionClient {
	return &SubmissionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Submit sends one multipart POST to {baseURL}/submitImage and returns the decoded JSON answer.
func (c *SubmissionClient) Submit(ctx context.Context, filePath, filename string, form SubmissionForm) (map[string]interface{}, error) {
	body, contentType, err := buildMultipart(filePath, filename, form)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submitImage", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamDown, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read submit response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"file":     filename,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Info("Spreadsheet submitted")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	result := map[string]interface{}{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("failed to decode submit response: %w", err)
		}
	}
	return result, nil
}

func buildMultipart(filePath, filename string, form SubmissionForm) (io.Reader, string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open staged file: %w", err)
	}
	defer file.Close()

	if filename == "" {
		filename = filepath.Base(filePath)
	}

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	part, err := writer.CreateFormFile("fileUploadImage", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to copy staged file: %w", err)
	}

	for _, kv := range form.Fields() {
		if err := writer.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf, writer.FormDataContentType(), nil
}
