package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxUploadSize limits accepted file uploads to 25 MiB.
const maxUploadSize = 25 << 20

// UploadHandlers provides HTTP handlers for file uploads.
type UploadHandlers struct {
	uploadDir string
	log       *zerolog.Logger
}

// NewUploadHandlers creates a new upload handlers instance.
func NewUploadHandlers(uploadDir string, logger *zerolog.Logger) *UploadHandlers {
	return &UploadHandlers{
		uploadDir: uploadDir,
		log:       logger,
	}
}

// UploadResponse represents a successful upload.
type UploadResponse struct {
	URL              string `json:"url"`
	OriginalFileName string `json:"originalFileName"`
	FileType         string `json:"fileType"`
}

// Upload stores an attachment and returns its public URL.
// POST /api/upload
func (h *UploadHandlers) Upload(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, err := c.FormFile("file")
	if err != nil {
		h.log.Debug().Err(err).Msg("invalid upload request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return
	}

	fileType, ok := attachmentKind(file.Header.Get("Content-Type"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "only image and video uploads are allowed"})
		return
	}

	name := uuid.NewString() + filepath.Ext(file.Filename)
	dst := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Str("file", name).Msg("failed to store upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("user_id", uid).Str("file", name).Str("file_type", fileType).Msg("file uploaded")
	c.JSON(http.StatusOK, UploadResponse{
		URL:              "/uploads/" + name,
		OriginalFileName: file.Filename,
		FileType:         fileType,
	})
}

// attachmentKind maps an upload MIME type to a message kind.
func attachmentKind(contentType string) (string, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image", true
	case strings.HasPrefix(contentType, "video/"):
		return "video", true
	default:
		return "", false
	}
}
