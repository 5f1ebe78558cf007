package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"scraper-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string][]byte{}}
}

func (s *fakeSessionStore) Save(_ context.Context, session *models.MappingSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionCode] = raw
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, code string) (*models.MappingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.sessions[code]
	if !ok {
		return nil, ErrSessionNotFound
	}
	var session models.MappingSession
	return &session, json.Unmarshal(raw, &session)
}

func (s *fakeSessionStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, code)
	return nil
}

type fakeSubmitter struct {
	calls []SubmissionForm
	err   error
}

func (f *fakeSubmitter) Submit(_ context.Context, _, _ string, form SubmissionForm) (map[string]interface{}, error) {
	f.calls = append(f.calls, form)
	if f.err != nil {
		return nil, f.err
	}
	return map[string]interface{}{"message": "ok"}, nil
}

type fakeRecorder struct {
	rows []*models.Submission
}

func (f *fakeRecorder) Create(s *models.Submission) error {
	f.rows = append(f.rows, s)
	return nil
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, value := range row {
			cell := fmt.Sprintf("%s%d", ColumnLetter(c), r+1)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}

	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newTestMappingService(submitter Submitter, recorder SubmissionRecorder) (*MappingService, *fakeSessionStore) {
	store := newFakeSessionStore()
	svc := NewMappingService(store, NewExcelService(), submitter, recorder, MappingOptions{
		PreviewRows:        50,
		HeaderScanRows:     10,
		DefaultSendToEmail: "ops@example.com",
	}, quietLogger())
	return svc, store
}

func TestStageDetectsHeaderAndAutoMaps(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Image request"},
		{"Buyer", "Anna"},
		{"STYLE", "BRAND", "COLOR"},
		{"GG-1", "Gucci", "Black"},
		{"GG-2", "Gucci", "Red"},
	})
	svc, _ := newTestMappingService(&fakeSubmitter{}, nil)

	session, err := svc.Stage(context.Background(), "MAP-1", 7, "upload.xlsx", path, "")
	require.NoError(t, err)

	require.NotNil(t, session.HeaderRowIndex)
	assert.Equal(t, 2, *session.HeaderRowIndex)
	assert.Equal(t, models.MappingStatusMapped, session.Status)
	assert.Equal(t, []string{"STYLE", "BRAND", "COLOR"}, session.Data.Headers)
	assert.Len(t, session.Data.Rows, 2)
	assert.Equal(t, models.ColumnMapping{models.FieldStyle: 0, models.FieldBrand: 1}, session.Mapping)
	assert.Equal(t, 7, session.UserID)

	stored, err := svc.Get(context.Background(), "MAP-1")
	require.NoError(t, err)
	assert.Equal(t, session.Mapping, stored.Mapping)
}

func TestStageWithoutHeaderWaitsForSelection(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"SKU", "MAKER"},
		{"GG-1", "Gucci"},
	})
	svc, _ := newTestMappingService(&fakeSubmitter{}, nil)
	ctx := context.Background()

	session, err := svc.Stage(ctx, "MAP-2", 1, "upload.xlsx", path, "")
	require.NoError(t, err)
	assert.Nil(t, session.HeaderRowIndex)
	assert.Equal(t, models.MappingStatusHeaderPending, session.Status)
	assert.Len(t, session.PreviewRows, 2)

	_, err = svc.AssignColumn(ctx, "MAP-2", 0, models.FieldStyle)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	session, err = svc.SelectHeader(ctx, "MAP-2", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU", "MAKER"}, session.Data.Headers)
	assert.Empty(t, session.Mapping)

	_, err = svc.SelectHeader(ctx, "MAP-2", 5)
	require.ErrorAs(t, err, &verr)
}

func TestStageRejectsUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))
	svc, _ := newTestMappingService(&fakeSubmitter{}, nil)

	_, err := svc.Stage(context.Background(), "MAP-3", 1, "broken.xlsx", path, "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestMappingFlowWithManualBrandSubmits(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"STYLE", "COLOR", "STYLE"},
		{"GG-1", "Black", "x"},
	})
	submitter := &fakeSubmitter{}
	recorder := &fakeRecorder{}
	svc, store := newTestMappingService(submitter, recorder)
	ctx := context.Background()

	session, err := svc.Stage(ctx, "MAP-4", 3, "upload.xlsx", path, "buyer@example.com")
	require.NoError(t, err)
	require.NotNil(t, session.HeaderRowIndex, "two STYLE cells qualify as a header")
	assert.Equal(t, 2, session.Mapping[models.FieldStyle])

	session, err = svc.AssignColumn(ctx, "MAP-4", 0, models.FieldStyle)
	require.NoError(t, err)
	session, err = svc.AssignColumn(ctx, "MAP-4", 1, models.FieldColorName)
	require.NoError(t, err)
	assert.Equal(t, models.ColumnMapping{models.FieldStyle: 0, models.FieldColorName: 1}, session.Mapping)

	session, err = svc.ApplyManualBrand(ctx, "MAP-4", "Gucci")
	require.NoError(t, err)
	assert.Equal(t, 4, session.Data.Width())
	assert.Equal(t, 3, session.Mapping[models.FieldBrand])

	result, err := svc.Submit(ctx, "MAP-4", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", result["message"])

	require.Len(t, submitter.calls, 1)
	form := submitter.calls[0]
	assert.Equal(t, "A", form.SearchCol)
	assert.Equal(t, "MANUAL", form.BrandCol)
	assert.Equal(t, "Gucci", form.ManualBrand)
	assert.Equal(t, "B", form.ColorCol)
	assert.Equal(t, "buyer@example.com", form.SendToEmail)

	require.Len(t, recorder.rows, 1)
	assert.Equal(t, models.SubmissionStatusAccepted, recorder.rows[0].Status)
	assert.Equal(t, 3, recorder.rows[0].UserID)

	_, err = store.Get(ctx, "MAP-4")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "staged file is removed after submission")
}

func TestSubmitFailureKeepsSession(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"STYLE", "BRAND"},
		{"GG-1", "Gucci"},
	})
	submitter := &fakeSubmitter{err: &UpstreamError{StatusCode: 500, Body: "boom"}}
	recorder := &fakeRecorder{}
	svc, _ := newTestMappingService(submitter, recorder)
	ctx := context.Background()

	_, err := svc.Stage(ctx, "MAP-5", 1, "upload.xlsx", path, "")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "MAP-5", "")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)

	session, err := svc.Get(ctx, "MAP-5")
	require.NoError(t, err)
	assert.Equal(t, models.MappingStatusFailed, session.Status)
	assert.Contains(t, session.ErrorMessage, "boom")
	assert.Equal(t, "ops@example.com", submitter.calls[0].SendToEmail)

	require.Len(t, recorder.rows, 1)
	assert.Equal(t, models.SubmissionStatusRejected, recorder.rows[0].Status)
	assert.Equal(t, 500, recorder.rows[0].UpstreamStatus)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDiscard(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{{"STYLE", "BRAND"}})
	svc, _ := newTestMappingService(&fakeSubmitter{}, nil)
	ctx := context.Background()

	_, err := svc.Stage(ctx, "MAP-6", 1, "upload.xlsx", path, "")
	require.NoError(t, err)
	require.NoError(t, svc.Discard(ctx, "MAP-6"))

	_, err = svc.Get(ctx, "MAP-6")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.ErrorIs(t, svc.Discard(ctx, "MAP-6"), ErrSessionNotFound)
}
