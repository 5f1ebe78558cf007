package repository

import (
	"context"
	"testing"
	"time"

	"scraper-admin/internal/models"
	"scraper-admin/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func sampleSession(code string) *models.MappingSession {
	header := 1
	return &models.MappingSession{
		SessionCode:    code,
		UserID:         3,
		Filename:       "stock.xlsx",
		HeaderRowIndex: &header,
		Data: models.ExcelData{
			Headers: []string{"STYLE", "BRAND"},
			Rows:    [][]string{{"A1", "Nike"}},
		},
		Mapping: models.ColumnMapping{models.FieldStyle: 0, models.FieldBrand: 1},
		Status:  models.MappingStatusMapped,
	}
}

func TestRedisMappingSessionStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisMappingSessionStore(client, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession("MAP-abc")))
	assert.Equal(t, 30*time.Minute, mr.TTL(mappingSessionPrefix+"MAP-abc"))

	got, err := store.Get(ctx, "MAP-abc")
	require.NoError(t, err)
	assert.Equal(t, 3, got.UserID)
	assert.Equal(t, 1, *got.HeaderRowIndex)
	assert.Equal(t, 1, got.Mapping[models.FieldBrand])
	assert.Equal(t, []string{"STYLE", "BRAND"}, got.Data.Headers)

	require.NoError(t, store.Delete(ctx, "MAP-abc"))
	_, err = store.Get(ctx, "MAP-abc")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestRedisMappingSessionStoreExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisMappingSessionStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession("MAP-old")))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "MAP-old")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestMemoryMappingSessionStoreCopies(t *testing.T) {
	store := NewMemoryMappingSessionStore()
	ctx := context.Background()

	session := sampleSession("MAP-mem")
	require.NoError(t, store.Save(ctx, session))
	session.Mapping[models.FieldStyle] = 1

	got, err := store.Get(ctx, "MAP-mem")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Mapping[models.FieldStyle])

	got.Filename = "changed.xlsx"
	again, err := store.Get(ctx, "MAP-mem")
	require.NoError(t, err)
	assert.Equal(t, "stock.xlsx", again.Filename)

	require.NoError(t, store.Delete(ctx, "MAP-mem"))
	_, err = store.Get(ctx, "MAP-mem")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}
