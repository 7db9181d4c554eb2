package models

import (
	"time"
)

// Screenshot is the latest captured frame for a job's browser session
type Screenshot struct {
	JobID      string    `json:"job_id"`
	Data       []byte    `json:"-"`
	Sequence   int64     `json:"sequence"`
	CapturedAt time.Time `json:"captured_at"`
}

// UploadedFile is a stored attachment available to form jobs
type UploadedFile struct {
	ID           string    `json:"file_id"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	TextPreview  string    `json:"text_preview,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
