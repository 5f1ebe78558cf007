package repository

import (
	"scraper-admin/internal/models"
	"scraper-admin/internal/utils"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, email, full_name, password_hash, is_superuser, is_active, created_at, updated_at"

func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	query := "SELECT " + userColumns + " FROM users WHERE email = ? LIMIT 1"
	err := r.db.Get(&user, query, email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(id int) (*models.User, error) {
	var user models.User
	query := "SELECT " + userColumns + " FROM users WHERE id = ? LIMIT 1"
	err := r.db.Get(&user, query, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns one page of users, optionally filtered by email or name, and the total match count.
func (r *UserRepository) List(params utils.PaginationParams) ([]models.User, int, error) {
	where := ""
	args := []interface{}{}
	if params.Search != "" {
		where = " WHERE email LIKE ? OR full_name LIKE ?"
		like := "%" + params.Search + "%"
		args = append(args, like, like)
	}

	var total int
	if err := r.db.Get(&total, "SELECT COUNT(*) FROM users"+where, args...); err != nil {
		return nil, 0, err
	}

	users := []models.User{}
	query := "SELECT " + userColumns + " FROM users" + where + " ORDER BY id ASC LIMIT ? OFFSET ?"
	args = append(args, params.Limit, utils.GetOffset(params.Page, params.Limit))
	if err := r.db.Select(&users, query, args...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) Create(user *models.User) error {
	query := `INSERT INTO users (email, full_name, password_hash, is_superuser, is_active)
	          VALUES (:email, :full_name, :password_hash, :is_superuser, :is_active)`
	result, err := r.db.NamedExec(query, user)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	user.ID = int(id)
	return nil
}

func (r *UserRepository) Update(user *models.User) error {
	query := `UPDATE users SET email = :email, full_name = :full_name,
	          is_superuser = :is_superuser, is_active = :is_active WHERE id = :id`
	_, err := r.db.NamedExec(query, user)
	return err
}

func (r *UserRepository) UpdatePassword(id int, passwordHash string) error {
	query := "UPDATE users SET password_hash = ? WHERE id = ?"
	_, err := r.db.Exec(query, passwordHash, id)
	return err
}

func (r *UserRepository) Delete(id int) error {
	_, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}
