package handler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"scraper-admin/internal/config"
	"scraper-admin/internal/middleware"
	"scraper-admin/internal/models"
	"scraper-admin/internal/repository"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// historyExportLimit caps how many audit rows one export reads.
const historyExportLimit = 5000

type UploadHandler struct {
	mappingService *service.MappingService
	excelService   *service.ExcelService
	submissionRepo *repository.SubmissionRepository
	cfg            *config.Config
}

func NewUploadHandler(
	mappingService *service.MappingService,
	excelService *service.ExcelService,
	submissionRepo *repository.SubmissionRepository,
	cfg *config.Config,
) *UploadHandler {
	return &UploadHandler{
		mappingService: mappingService,
		excelService:   excelService,
		submissionRepo: submissionRepo,
		cfg:            cfg,
	}
}

type sessionResponse struct {
	Session *models.MappingSession `json:"session"`
	Summary models.MappingSummary  `json:"summary"`
}

func newSessionResponse(session *models.MappingSession) sessionResponse {
	return sessionResponse{Session: session, Summary: service.Summarize(session)}
}

// Stage saves the uploaded workbook and opens a mapping session for it.
func (h *UploadHandler) Stage(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}

	// Validate file type
	if !service.AllowedExtension(file.Filename) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, service.ErrInvalidFileType.Error(), nil)
	}

	// Validate file size
	if file.Size > int64(h.cfg.UploadMaxSize) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File size exceeds maximum limit", nil)
	}

	sessionCode := service.NewSessionCode()
	ext := strings.ToLower(filepath.Ext(file.Filename))
	filePath := filepath.Join(h.cfg.UploadPath, fmt.Sprintf("%s%s", sessionCode, ext))
	if err := c.SaveFile(file, filePath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save file", err)
	}

	session, err := h.mappingService.Stage(c.UserContext(), sessionCode, userID, file.Filename, filePath, c.FormValue("sendToEmail"))
	if err != nil {
		_ = os.Remove(filePath)
		return mappingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.APIResponse{
		Success: true,
		Message: "File uploaded successfully",
		Data:    newSessionResponse(session),
	})
}

func (h *UploadHandler) Get(c *fiber.Ctx) error {
	session, err := h.ownedSession(c)
	if err != nil {
		return mappingError(c, err)
	}
	return utils.SuccessResponse(c, "Session retrieved successfully", newSessionResponse(session))
}

// Preview returns the raw top rows so the user can pick a header row.
func (h *UploadHandler) Preview(c *fiber.Ctx) error {
	session, err := h.ownedSession(c)
	if err != nil {
		return mappingError(c, err)
	}
	return utils.SuccessResponse(c, "Preview retrieved successfully", fiber.Map{
		"rows":             session.PreviewRows,
		"header_row_index": session.HeaderRowIndex,
	})
}

func (h *UploadHandler) SelectHeader(c *fiber.Ctx) error {
	if _, err := h.ownedSession(c); err != nil {
		return mappingError(c, err)
	}

	var req models.HeaderSelectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if req.RowIndex == nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "row_index is required", nil)
	}

	session, err := h.mappingService.SelectHeader(c.UserContext(), c.Params("code"), *req.RowIndex)
	if err != nil {
		return mappingError(c, err)
	}
	return utils.SuccessResponse(c, "Header row selected", newSessionResponse(session))
}

// Column describes one column for the field-choice prompt.
func (h *UploadHandler) Column(c *fiber.Ctx) error {
	session, err := h.ownedSession(c)
	if err != nil {
		return mappingError(c, err)
	}

	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 || index >= session.Data.Width() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid column index", nil)
	}

	current, _ := session.Mapping.Owner(index)
	samples := make([]string, 0, 5)
	for _, row := range session.Data.Rows {
		if len(samples) == cap(samples) {
			break
		}
		if index < len(row) && strings.TrimSpace(row[index]) != "" {
			samples = append(samples, row[index])
		}
	}

	return utils.SuccessResponse(c, "Column retrieved successfully", fiber.Map{
		"index":     index,
		"letter":    service.ColumnLetter(index),
		"header":    session.Data.Headers[index],
		"current":   current,
		"suggested": service.SuggestField(session.Mapping, index),
		"samples":   samples,
		"fields":    models.AllFields,
	})
}

func (h *UploadHandler) Assign(c *fiber.Ctx) error {
	if _, err := h.ownedSession(c); err != nil {
		return mappingError(c, err)
	}

	var req models.MappingUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if req.Column == nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "column is required", nil)
	}

	session, err := h.mappingService.AssignColumn(c.UserContext(), c.Params("code"), *req.Column, models.Field(req.Field))
	if err != nil {
		return mappingError(c, err)
	}
	return utils.SuccessResponse(c, "Mapping updated", newSessionResponse(session))
}

func (h *UploadHandler) Clear(c *fiber.Ctx) error {
	if _, err := h.ownedSession(c); err != nil {
		return mappingError(c, err)
	}

	session, err := h.mappingService.ClearField(c.UserContext(), c.Params("code"), models.Field(c.Params("field")))
	if err != nil {
		return mappingError(c, err)
	}
	return utils.SuccessResponse(c, "Mapping cleared", newSessionResponse(session))
}

func (h *UploadHandler) ManualBrand(c *fiber.Ctx) error {
	if _, err := h.ownedSession(c); err != nil {
		return mappingError(c, err)
	}

	var req models.ManualBrandRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	session, err := h.mappingService.ApplyManualBrand(c.UserContext(), c.Params("code"), req.Brand)
	if err != nil {
		return mappingError(c, err)
	}
	return utils.SuccessResponse(c, "Manual brand applied", newSessionResponse(session))
}

func (h *UploadHandler) Submit(c *fiber.Ctx) error {
	if _, err := h.ownedSession(c); err != nil {
		return mappingError(c, err)
	}

	var req models.SubmitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
		}
	}

	result, err := h.mappingService.Submit(c.UserContext(), c.Params("code"), req.SendToEmail)
	if err != nil {
		return mappingError(c, err)
	}
	return utils.SuccessResponse(c, "Spreadsheet submitted successfully", result)
}

func (h *UploadHandler) Discard(c *fiber.Ctx) error {
	if _, err := h.ownedSession(c); err != nil {
		return mappingError(c, err)
	}
	if err := h.mappingService.Discard(c.UserContext(), c.Params("code")); err != nil {
		return mappingError(c, err)
	}
	return utils.SuccessResponse(c, "Session discarded", nil)
}

// History lists submission audit rows; admins see every user's.
func (h *UploadHandler) History(c *fiber.Ctx) error {
	if h.submissionRepo == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Submission history requires a database", nil)
	}

	params := utils.GetPaginationParams(c)
	userID := middleware.CurrentUserID(c)
	if middleware.IsAdmin(c) {
		userID = 0
	}

	rows, total, err := h.submissionRepo.List(userID, params)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get submissions", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Submissions retrieved successfully", rows, pagination)
}

// ExportHistory downloads the visible submission history as a workbook.
func (h *UploadHandler) ExportHistory(c *fiber.Ctx) error {
	if h.submissionRepo == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Submission history requires a database", nil)
	}

	userID := middleware.CurrentUserID(c)
	if middleware.IsAdmin(c) {
		userID = 0
	}
	params := utils.PaginationParams{Page: 1, Limit: historyExportLimit, Search: c.Query("search")}

	rows, _, err := h.submissionRepo.List(userID, params)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get submissions", err)
	}

	filename := fmt.Sprintf("submissions_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.excelService.ExportSubmissions(rows, c.Response().BodyWriter()); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export submissions", err)
	}
	return nil
}

// ownedSession loads the session and hides other users' sessions as not found.
func (h *UploadHandler) ownedSession(c *fiber.Ctx) (*models.MappingSession, error) {
	session, err := h.mappingService.Get(c.UserContext(), c.Params("code"))
	if err != nil {
		return nil, err
	}
	if session.UserID != middleware.CurrentUserID(c) && !middleware.IsAdmin(c) {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func mappingError(c *fiber.Ctx, err error) error {
	var validation *service.ValidationError
	var upstream *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Upload session not found", nil)
	case errors.As(err, &validation):
		return utils.ErrorResponseWithData(c, fiber.StatusUnprocessableEntity, validation.Error(), validation)
	case errors.As(err, &upstream):
		return utils.ErrorResponseWithData(c, fiber.StatusBadGateway, upstream.Error(), fiber.Map{
			"upstream_status": upstream.StatusCode,
		})
	case errors.Is(err, service.ErrUpstreamDown):
		return utils.ErrorResponse(c, fiber.StatusBadGateway, err.Error(), nil)
	default:
		utils.GetLogger().WithError(err).Error("Upload session operation failed")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Upload session operation failed", err)
	}
}
