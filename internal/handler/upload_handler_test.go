package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scraper-admin/internal/config"
	"scraper-admin/internal/middleware"
	"scraper-admin/internal/models"
	"scraper-admin/internal/repository"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubSubmitter struct {
	forms []service.SubmissionForm
}

func (s *stubSubmitter) Submit(_ context.Context, _, _ string, form service.SubmissionForm) (map[string]interface{}, error) {
	s.forms = append(s.forms, form)
	return map[string]interface{}{"job_id": 77}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type sessionEnvelope struct {
	Session models.MappingSession `json:"session"`
	Summary models.MappingSummary `json:"summary"`
}

func newUploadTestApp(t *testing.T) (*fiber.App, *stubSubmitter, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:       "handler-test-secret",
		JWTAccessExpire: time.Hour,
		UploadPath:      t.TempDir(),
		UploadMaxSize:   1 << 20,
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	submitter := &stubSubmitter{}
	mapping := service.NewMappingService(
		repository.NewMemoryMappingSessionStore(),
		service.NewExcelService(),
		submitter,
		nil,
		service.MappingOptions{DefaultSendToEmail: "ops@example.com"},
		logger,
	)
	h := NewUploadHandler(mapping, service.NewExcelService(), nil, cfg)

	app := fiber.New()
	uploads := app.Group("/api/uploads", middleware.AuthMiddleware(cfg))
	uploads.Post("/", h.Stage)
	uploads.Get("/history", h.History)
	uploads.Get("/:code", h.Get)
	uploads.Get("/:code/columns/:index", h.Column)
	uploads.Put("/:code/mapping", h.Assign)
	uploads.Post("/:code/manual-brand", h.ManualBrand)
	uploads.Post("/:code/submit", h.Submit)
	uploads.Delete("/:code", h.Discard)
	return app, submitter, cfg
}

func tokenFor(t *testing.T, cfg *config.Config, user models.User) string {
	t.Helper()
	token, err := utils.GenerateAccessToken(user, cfg.JWTSecret, cfg.JWTAccessExpire)
	require.NoError(t, err)
	return token
}

func workbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, token, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func jsonRequest(method, target, token, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeSession(t *testing.T, env envelope) sessionEnvelope {
	t.Helper()
	var out sessionEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestUploadFlowSubmitsMappedSession(t *testing.T) {
	app, submitter, cfg := newUploadTestApp(t)
	owner := tokenFor(t, cfg, models.User{ID: 1, Email: "owner@example.com"})

	content := workbookBytes(t, [][]interface{}{
		{"Spring order"},
		{"STYLE", "BRAND", "COLOR"},
		{"A100", "Nike", "Red"},
		{"A101", "Adidas", "Blue"},
	})
	status, env := doRequest(t, app, uploadRequest(t, owner, "order.xlsx", content))
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	staged := decodeSession(t, env)
	require.NotNil(t, staged.Session.HeaderRowIndex)
	assert.Equal(t, 1, *staged.Session.HeaderRowIndex)
	assert.True(t, staged.Summary.RequiredSatisfied)
	code := staged.Session.SessionCode

	status, env = doRequest(t, app, jsonRequest(http.MethodPut, "/api/uploads/"+code+"/mapping", owner, `{"column":2,"field":"colorName"}`))
	require.Equal(t, fiber.StatusOK, status, env.Message)
	assert.Equal(t, 2, decodeSession(t, env).Session.Mapping[models.FieldColorName])

	status, env = doRequest(t, app, jsonRequest(http.MethodGet, "/api/uploads/"+code+"/columns/1", owner, ""))
	require.Equal(t, fiber.StatusOK, status)
	var column map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &column))
	assert.Equal(t, "B", column["letter"])
	assert.Equal(t, "brand", column["current"])
	assert.Equal(t, []interface{}{"Nike", "Adidas"}, column["samples"])

	status, env = doRequest(t, app, jsonRequest(http.MethodPost, "/api/uploads/"+code+"/submit", owner, ""))
	require.Equal(t, fiber.StatusOK, status, env.Message)
	require.Len(t, submitter.forms, 1)
	assert.Equal(t, "A", submitter.forms[0].SearchCol)
	assert.Equal(t, "B", submitter.forms[0].BrandCol)
	assert.Equal(t, "ops@example.com", submitter.forms[0].SendToEmail)

	status, _ = doRequest(t, app, jsonRequest(http.MethodGet, "/api/uploads/"+code, owner, ""))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUploadSessionsAreScopedToOwner(t *testing.T) {
	app, _, cfg := newUploadTestApp(t)
	owner := tokenFor(t, cfg, models.User{ID: 1, Email: "owner@example.com"})
	other := tokenFor(t, cfg, models.User{ID: 2, Email: "other@example.com"})
	admin := tokenFor(t, cfg, models.User{ID: 3, Email: "admin@example.com", IsSuperuser: true})

	content := workbookBytes(t, [][]interface{}{{"STYLE", "BRAND"}, {"A1", "Nike"}})
	status, env := doRequest(t, app, uploadRequest(t, owner, "order.xlsx", content))
	require.Equal(t, fiber.StatusCreated, status)
	code := decodeSession(t, env).Session.SessionCode

	status, _ = doRequest(t, app, jsonRequest(http.MethodGet, "/api/uploads/"+code, other, ""))
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = doRequest(t, app, jsonRequest(http.MethodDelete, "/api/uploads/"+code, other, ""))
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doRequest(t, app, jsonRequest(http.MethodGet, "/api/uploads/"+code, admin, ""))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestUploadSubmitWithoutBrandIsRejected(t *testing.T) {
	app, submitter, cfg := newUploadTestApp(t)
	owner := tokenFor(t, cfg, models.User{ID: 1, Email: "owner@example.com"})

	content := workbookBytes(t, [][]interface{}{{"STYLE", "COLOUR"}, {"A1", "Red"}})
	status, env := doRequest(t, app, uploadRequest(t, owner, "order.xlsx", content))
	require.Equal(t, fiber.StatusCreated, status)
	staged := decodeSession(t, env)
	assert.Nil(t, staged.Session.HeaderRowIndex)
	code := staged.Session.SessionCode

	status, _ = doRequest(t, app, jsonRequest(http.MethodPost, "/api/uploads/"+code+"/submit", owner, ""))
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Empty(t, submitter.forms)

	status, _ = doRequest(t, app, jsonRequest(http.MethodPost, "/api/uploads/"+code+"/manual-brand", owner, `{"brand":"Gucci"}`))
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestUploadRejectsLegacyWorkbook(t *testing.T) {
	app, _, cfg := newUploadTestApp(t)
	owner := tokenFor(t, cfg, models.User{ID: 1, Email: "owner@example.com"})

	status, env := doRequest(t, app, uploadRequest(t, owner, "order.xls", []byte("not a zip")))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestUploadHistoryNeedsDatabase(t *testing.T) {
	app, _, cfg := newUploadTestApp(t)
	owner := tokenFor(t, cfg, models.User{ID: 1, Email: "owner@example.com"})

	status, _ := doRequest(t, app, jsonRequest(http.MethodGet, "/api/uploads/history", owner, ""))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}
