package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"scraper-admin/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MappingSessionStore keeps form sessions between requests.
type MappingSessionStore interface {
	Save(ctx context.Context, session *models.MappingSession) error
	Get(ctx context.Context, code string) (*models.MappingSession, error)
	Delete(ctx context.Context, code string) error
}

type Submitter interface {
	Submit(ctx context.Context, filePath, filename string, form SubmissionForm) (map[string]interface{}, error)
}

type SubmissionRecorder interface {
	Create(submission *models.Submission) error
}

type MappingOptions struct {
	PreviewRows        int
	HeaderScanRows     int
	DefaultSendToEmail string
	KeepFiles          bool
}

// MappingService drives one upload form session from staging to submission.
type MappingService struct {
	store     MappingSessionStore
	excel     *ExcelService
	submitter Submitter
	recorder  SubmissionRecorder
	opts      MappingOptions
	logger    *logrus.Logger
}

func NewMappingService(
	store MappingSessionStore,
	excel *ExcelService,
	submitter Submitter,
	recorder SubmissionRecorder,
	opts MappingOptions,
	logger *logrus.Logger,
) *MappingService {
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 50
	}
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = 10
	}
	return &MappingService{
		store:     store,
		excel:     excel,
		submitter: submitter,
		recorder:  recorder,
		opts:      opts,
		logger:    logger,
	}
}

func NewSessionCode() string {
	return fmt.Sprintf("MAP-%s", uuid.New().String()[:8])
}

// Stage reads a saved workbook and opens a session for it. When no header row
// is detected the session waits for a manual header selection.
func (s *MappingService) Stage(ctx context.Context, sessionCode string, userID int, filename, filePath, sendToEmail string) (*models.MappingSession, error) {
	preview, err := s.excel.ReadPreview(filePath, s.opts.PreviewRows)
	if err != nil {
		if errors.Is(err, ErrEmptyWorkbook) {
			return nil, newValidationError("%s", err.Error())
		}
		return nil, newValidationError("error parsing Excel file: %s", err.Error())
	}

	now := time.Now()
	session := &models.MappingSession{
		SessionCode: sessionCode,
		UserID:      userID,
		Filename:    filename,
		FilePath:    filePath,
		PreviewRows: preview,
		Mapping:     models.ColumnMapping{},
		SendToEmail: strings.TrimSpace(sendToEmail),
		Status:      models.MappingStatusHeaderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	log := s.logger.WithFields(logrus.Fields{"session": sessionCode, "file": filename})
	if row, ok := DetectHeaderRow(preview, s.opts.HeaderScanRows); ok {
		s.applyHeader(session, row)
		log.WithField("header_row", row).Info("Header auto selected")
	} else {
		log.Info("No header row detected, waiting for manual selection")
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save mapping session: %w", err)
	}
	return session, nil
}

func (s *MappingService) Get(ctx context.Context, code string) (*models.MappingSession, error) {
	return s.store.Get(ctx, code)
}

// SelectHeader rebuilds the worksheet view from a manually chosen header row.
func (s *MappingService) SelectHeader(ctx context.Context, code string, rowIndex int) (*models.MappingSession, error) {
	return s.update(ctx, code, func(session *models.MappingSession) error {
		if rowIndex < 0 || rowIndex >= len(session.PreviewRows) {
			return newValidationError("row %d is outside the preview (0-%d)", rowIndex, len(session.PreviewRows)-1)
		}
		s.applyHeader(session, rowIndex)
		return nil
	})
}

func (s *MappingService) AssignColumn(ctx context.Context, code string, col int, field models.Field) (*models.MappingSession, error) {
	return s.update(ctx, code, func(session *models.MappingSession) error {
		if session.HeaderRowIndex == nil {
			return newValidationError("header row not selected")
		}
		return Assign(session.Mapping, col, field, session.Data.Headers)
	})
}

func (s *MappingService) ClearField(ctx context.Context, code string, field models.Field) (*models.MappingSession, error) {
	return s.update(ctx, code, func(session *models.MappingSession) error {
		return Clear(session.Mapping, field)
	})
}

func (s *MappingService) ApplyManualBrand(ctx context.Context, code, brand string) (*models.MappingSession, error) {
	return s.update(ctx, code, func(session *models.MappingSession) error {
		if session.HeaderRowIndex == nil {
			return newValidationError("header row not selected")
		}
		if err := ApplyManualBrand(&session.Data, session.Mapping, brand); err != nil {
			return err
		}
		session.ManualBrand = strings.TrimSpace(brand)
		return nil
	})
}

// Submit validates, encodes and forwards the session. Validation failures never
// reach the network. A successful submission closes the session; a failed one
// stays open so the user can correct and resubmit.
func (s *MappingService) Submit(ctx context.Context, code, sendToEmail string) (map[string]interface{}, error) {
	session, err := s.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(sendToEmail)
	if email == "" {
		email = session.SendToEmail
	}
	if email == "" {
		email = s.opts.DefaultSendToEmail
	}

	form, err := EncodeSubmission(session, email)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"session": code, "file": session.Filename})
	result, submitErr := s.submitter.Submit(ctx, session.FilePath, session.Filename, form)
	s.record(session, form, submitErr)

	if submitErr != nil {
		log.WithError(submitErr).Warn("Submission failed")
		session.Status = models.MappingStatusFailed
		session.ErrorMessage = submitErr.Error()
		session.UpdatedAt = time.Now()
		if err := s.store.Save(ctx, session); err != nil {
			log.WithError(err).Error("Failed to save session after failed submission")
		}
		return nil, submitErr
	}

	log.Info("Submission accepted")
	s.closeSession(ctx, session)
	return result, nil
}

// Discard drops the session and its staged file.
func (s *MappingService) Discard(ctx context.Context, code string) error {
	session, err := s.store.Get(ctx, code)
	if err != nil {
		return err
	}
	s.closeSession(ctx, session)
	return nil
}

func (s *MappingService) closeSession(ctx context.Context, session *models.MappingSession) {
	if err := s.store.Delete(ctx, session.SessionCode); err != nil {
		s.logger.WithError(err).WithField("session", session.SessionCode).Error("Failed to delete mapping session")
	}
	if session.FilePath != "" && !s.opts.KeepFiles {
		if err := os.Remove(session.FilePath); err != nil && !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", session.FilePath).Warn("Failed to remove staged file")
		}
	}
}

func (s *MappingService) record(session *models.MappingSession, form SubmissionForm, submitErr error) {
	if s.recorder == nil {
		return
	}

	columns, _ := json.Marshal(form)
	row := &models.Submission{
		SessionCode: session.SessionCode,
		UserID:      session.UserID,
		Filename:    session.Filename,
		HeaderIndex: form.HeaderIndex,
		Columns:     string(columns),
		SendToEmail: form.SendToEmail,
		Status:      models.SubmissionStatusAccepted,
	}
	if submitErr != nil {
		row.Status = models.SubmissionStatusRejected
		row.ErrorMessage = submitErr.Error()
		var upstream *UpstreamError
		if errors.As(submitErr, &upstream) {
			row.UpstreamStatus = upstream.StatusCode
		}
	} else {
		row.UpstreamStatus = 200
	}

	if err := s.recorder.Create(row); err != nil {
		s.logger.WithError(err).WithField("session", session.SessionCode).Error("Failed to record submission")
	}
}

func (s *MappingService) update(ctx context.Context, code string, mutate func(*models.MappingSession) error) (*models.MappingSession, error) {
	session, err := s.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if session.Mapping == nil {
		session.Mapping = models.ColumnMapping{}
	}
	if err := mutate(session); err != nil {
		return nil, err
	}
	if session.HeaderRowIndex != nil {
		session.Status = models.MappingStatusMapped
	}
	session.ErrorMessage = ""
	session.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save mapping session: %w", err)
	}
	return session, nil
}

func (s *MappingService) applyHeader(session *models.MappingSession, row int) {
	headers, rows := BuildExcelData(session.PreviewRows, row)
	session.Data = models.ExcelData{Headers: headers, Rows: rows}
	session.Mapping = AutoMap(headers)
	session.ManualBrand = ""
	session.HeaderRowIndex = &row
	session.Status = models.MappingStatusMapped
}
