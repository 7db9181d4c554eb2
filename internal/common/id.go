package common

import (
	"github.com/google/uuid"
)

// NewFileID generates a unique uploaded file identifier
func NewFileID() string {
	return "file_" + uuid.New().String()
}
