package models

import "time"

// Submission is the audit row written for every forwarded spreadsheet.
type Submission struct {
	ID             int       `db:"id" json:"id"`
	SessionCode    string    `db:"session_code" json:"session_code"`
	UserID         int       `db:"user_id" json:"user_id"`
	Filename       string    `db:"filename" json:"filename"`
	HeaderIndex    int       `db:"header_index" json:"header_index"`
	Columns        string    `db:"columns" json:"columns"`
	SendToEmail    string    `db:"send_to_email" json:"send_to_email"`
	Status         string    `db:"status" json:"status"`
	UpstreamStatus int       `db:"upstream_status" json:"upstream_status"`
	ErrorMessage   string    `db:"error_message" json:"error_message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

const (
	SubmissionStatusAccepted = "accepted"
	SubmissionStatusRejected = "rejected"
)
