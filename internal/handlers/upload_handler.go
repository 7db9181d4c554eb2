package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/models"
)

// allowedExtensions is the upload whitelist
var allowedExtensions = map[string]string{
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

const textPreviewLength = 500

// UploadHandler stores file attachments for later form submission
type UploadHandler struct {
	dir     string
	maxSize int64
	logger  arbor.ILogger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(config *common.UploadsConfig, logger arbor.ILogger) (*UploadHandler, error) {
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	maxSize := config.MaxSizeBytes
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}

	return &UploadHandler{
		dir:     config.Dir,
		maxSize: maxSize,
		logger:  logger,
	}, nil
}

// UploadFileHandler accepts a multipart file upload
// POST /api/v1/files/upload
func (h *UploadHandler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required (field name: file)")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("File type %s is not allowed", ext))
		return
	}
	if header.Size > h.maxSize {
		writeError(w, http.StatusBadRequest, "File exceeds maximum allowed size")
		return
	}

	fileID := common.NewFileID()
	storedName := fileID + ext
	storedPath := filepath.Join(h.dir, storedName)

	dst, err := os.Create(storedPath)
	if err != nil {
		h.logger.Error().Err(err).Str("path", storedPath).Msg("Failed to create upload file")
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	written, err := io.Copy(dst, file)
	dst.Close()
	if err != nil {
		os.Remove(storedPath)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	// Reject files that claim to be PDFs but are not
	if ext == ".pdf" {
		if err := api.ValidateFile(storedPath, nil); err != nil {
			os.Remove(storedPath)
			h.logger.Warn().Err(err).Str("file", header.Filename).Msg("Uploaded PDF failed validation")
			writeError(w, http.StatusBadRequest, "File is not a valid PDF")
			return
		}
	}

	uploaded := &models.UploadedFile{
		ID:           fileID,
		OriginalName: header.Filename,
		StoredName:   storedName,
		Size:         written,
		ContentType:  contentType,
		UploadedAt:   time.Now(),
	}

	if ext == ".txt" {
		uploaded.TextPreview = h.textPreview(storedPath)
	}

	h.logger.Info().
		Str("file_id", fileID).
		Str("original_name", header.Filename).
		Int64("size", written).
		Msg("File uploaded")

	writeJSON(w, http.StatusCreated, uploaded)
}

// textPreview reads the first chunk of a text file for display
func (h *UploadHandler) textPreview(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, textPreviewLength)
	n, _ := f.Read(buf)
	return string(buf[:n])
}
