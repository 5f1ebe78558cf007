package repository

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"scraper-admin/internal/models"
	"scraper-admin/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

var userRowColumns = []string{"id", "email", "full_name", "password_hash", "is_superuser", "is_active", "created_at", "updated_at"}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ? LIMIT 1")).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(1, "admin@example.com", "Admin", "hash", true, true, now, now))

	user, err := repo.FindByEmail("admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.True(t, user.IsSuperuser)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ? LIMIT 1")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.FindByID(9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListSearch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE email LIKE ? OR full_name LIKE ?")).
		WithArgs("%ann%", "%ann%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id ASC LIMIT ? OFFSET ?")).
		WithArgs("%ann%", "%ann%", 10, 10).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(11, "ann@example.com", "Ann", "hash", false, true, now, now))

	users, total, err := repo.List(utils.PaginationParams{Page: 2, Limit: 10, Search: "ann"})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, users, 1)
	assert.Equal(t, "ann@example.com", users[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("new@example.com", "New", "hash", false, true).
		WillReturnResult(sqlmock.NewResult(7, 1))

	user := &models.User{Email: "new@example.com", FullName: "New", PasswordHash: "hash", IsActive: true}
	require.NoError(t, repo.Create(user))
	assert.Equal(t, 7, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email = ?")).
		WithArgs("a@example.com", "A", true, false, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = ? WHERE id = ?")).
		WithArgs("new-hash", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(&models.User{ID: 3, Email: "a@example.com", FullName: "A", IsSuperuser: true}))
	require.NoError(t, repo.UpdatePassword(3, "new-hash"))
	require.NoError(t, repo.Delete(3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
