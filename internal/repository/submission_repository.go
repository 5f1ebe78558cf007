package repository

import (
	"scraper-admin/internal/models"
	"scraper-admin/internal/utils"

	"github.com/jmoiron/sqlx"
)

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(s *models.Submission) error {
	query := `INSERT INTO submissions (session_code, user_id, filename, header_index, columns,
	          send_to_email, status, upstream_status, error_message)
	          VALUES (:session_code, :user_id, :filename, :header_index, :columns,
	          :send_to_email, :status, :upstream_status, :error_message)`
	result, err := r.db.NamedExec(query, s)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	s.ID = int(id)
	return nil
}

// List returns submissions newest first. userID 0 lists every user's rows.
func (r *SubmissionRepository) List(userID int, params utils.PaginationParams) ([]models.Submission, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if userID > 0 {
		where += " AND user_id = ?"
		args = append(args, userID)
	}
	if params.Search != "" {
		where += " AND (filename LIKE ? OR session_code LIKE ?)"
		like := "%" + params.Search + "%"
		args = append(args, like, like)
	}

	var total int
	if err := r.db.Get(&total, "SELECT COUNT(*) FROM submissions"+where, args...); err != nil {
		return nil, 0, err
	}

	rows := []models.Submission{}
	query := `SELECT id, session_code, user_id, filename, header_index, columns, send_to_email,
	          status, upstream_status, error_message, created_at FROM submissions` +
		where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, params.Limit, utils.GetOffset(params.Page, params.Limit))
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
