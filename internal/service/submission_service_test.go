package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"scraper-admin/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mappedSession(t *testing.T) *models.MappingSession {
	t.Helper()
	header := 2
	path := filepath.Join(t.TempDir(), "products.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("fake workbook"), 0o600))

	return &models.MappingSession{
		SessionCode:    "MAP-test",
		Filename:       "products.xlsx",
		FilePath:       path,
		HeaderRowIndex: &header,
		Data: models.ExcelData{
			Headers: []string{"#", "STYLE", "BRAND", "COLOR", "CATEGORY", "IMAGE"},
		},
		Mapping: models.ColumnMapping{
			models.FieldStyle:     1,
			models.FieldBrand:     2,
			models.FieldColorName: 3,
			models.FieldCategory:  4,
			models.FieldImageAdd:  5,
		},
	}
}

func TestEncodeSubmission(t *testing.T) {
	session := mappedSession(t)

	form, err := EncodeSubmission(session, " buyer@example.com ")
	require.NoError(t, err)

	assert.Equal(t, SubmissionForm{
		SearchCol:   "B",
		BrandCol:    "C",
		ColorCol:    "D",
		CategoryCol: "E",
		ImageCol:    "F",
		HeaderIndex: 2,
		SendToEmail: "buyer@example.com",
	}, form)
}

func TestEncodeSubmissionPrefersReadImage(t *testing.T) {
	session := mappedSession(t)
	session.Mapping[models.FieldReadImage] = 0

	form, err := EncodeSubmission(session, "")
	require.NoError(t, err)
	assert.Equal(t, "A", form.ImageCol)
}

func TestEncodeSubmissionManualBrand(t *testing.T) {
	session := mappedSession(t)
	delete(session.Mapping, models.FieldBrand)
	require.NoError(t, ApplyManualBrand(&session.Data, session.Mapping, "Gucci"))
	session.ManualBrand = "Gucci"

	form, err := EncodeSubmission(session, "")
	require.NoError(t, err)
	assert.Equal(t, "MANUAL", form.BrandCol)
	assert.Equal(t, "Gucci", form.ManualBrand)
	assert.Contains(t, form.Fields(), [2]string{"brandColImage", "MANUAL"})
	assert.Contains(t, form.Fields(), [2]string{"manualBrand", "Gucci"})
}

func TestValidateSession(t *testing.T) {
	session := mappedSession(t)
	session.HeaderRowIndex = nil
	var verr *ValidationError
	require.ErrorAs(t, ValidateSession(session), &verr)
	assert.Equal(t, "header row not selected", verr.Message)

	session = mappedSession(t)
	delete(session.Mapping, models.FieldBrand)
	require.ErrorAs(t, ValidateSession(session), &verr)
	assert.Equal(t, []models.Field{models.FieldBrand}, verr.Missing)

	session = mappedSession(t)
	session.FilePath = ""
	require.ErrorAs(t, ValidateSession(session), &verr)
	assert.Equal(t, "no file selected", verr.Message)
}

func TestSubmissionFormFieldsOrder(t *testing.T) {
	form := SubmissionForm{SearchCol: "B", BrandCol: "C", HeaderIndex: 0}
	assert.Equal(t, [][2]string{
		{"searchColImage", "B"},
		{"brandColImage", "C"},
		{"header_index", "0"},
	}, form.Fields())
}

func TestSubmissionClientSubmit(t *testing.T) {
	session := mappedSession(t)
	form, err := EncodeSubmission(session, "buyer@example.com")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/submitImage", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		file, header, err := r.FormFile("fileUploadImage")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		assert.Equal(t, "products.xlsx", header.Filename)
		assert.Equal(t, "fake workbook", string(body))

		assert.Equal(t, "B", r.FormValue("searchColImage"))
		assert.Equal(t, "C", r.FormValue("brandColImage"))
		assert.Equal(t, "D", r.FormValue("ColorColImage"))
		assert.Equal(t, "E", r.FormValue("CategoryColImage"))
		assert.Equal(t, "F", r.FormValue("imageColumnImage"))
		assert.Equal(t, "2", r.FormValue("header_index"))
		assert.Equal(t, "buyer@example.com", r.FormValue("sendToEmail"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"queued","file_id":42}`))
	}))
	defer srv.Close()

	client := NewSubmissionClient(srv.URL+"/", 5*time.Second, quietLogger())
	result, err := client.Submit(context.Background(), session.FilePath, session.Filename, form)
	require.NoError(t, err)
	assert.Equal(t, "queued", result["message"])
	assert.EqualValues(t, 42, result["file_id"])
}

func TestSubmissionClientUpstreamError(t *testing.T) {
	session := mappedSession(t)
	form, err := EncodeSubmission(session, "")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad columns", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewSubmissionClient(srv.URL, 5*time.Second, quietLogger())
	_, err = client.Submit(context.Background(), session.FilePath, session.Filename, form)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Equal(t, "server error: 400 - bad columns", upstream.Error())
}

func TestSubmissionClientUnreachable(t *testing.T) {
	session := mappedSession(t)
	form, err := EncodeSubmission(session, "")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewSubmissionClient(url, time.Second, quietLogger())
	_, err = client.Submit(context.Background(), session.FilePath, session.Filename, form)
	assert.ErrorIs(t, err, ErrUpstreamDown)
}

func TestSubmitBlockedWithoutRequiredFields(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	store := newFakeSessionStore()
	session := mappedSession(t)
	delete(session.Mapping, models.FieldBrand)
	require.NoError(t, store.Save(context.Background(), session))

	svc := NewMappingService(store, NewExcelService(), NewSubmissionClient(srv.URL, time.Second, quietLogger()), nil, MappingOptions{}, quietLogger())
	_, err := svc.Submit(context.Background(), session.SessionCode, "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []models.Field{models.FieldBrand}, verr.Missing)
	assert.Zero(t, atomic.LoadInt32(&hits))
}
