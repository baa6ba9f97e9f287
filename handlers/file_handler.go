package handlers

import (
	"errors"
	"net/http"

	"papertalk-backend/auth"
	"papertalk-backend/logger"
	"papertalk-backend/service"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is allowed on top of the file size for form boundaries and headers
const multipartOverhead = 1 << 20

// FileHandler handles HTTP requests for file operations
type FileHandler struct {
	log         *logger.Logger
	files       FileService
	maxFileSize int64
}

// NewFileHandler creates a new file handler
func NewFileHandler(log *logger.Logger, files FileService, maxFileSize int64) *FileHandler {
	return &FileHandler{
		log:         log.With("handler", "FileHandler"),
		files:       files,
		maxFileSize: maxFileSize,
	}
}

// UploadFile handles POST /api/files/upload
func (h *FileHandler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusBadRequest, CodeBadRequest, "file is too large")
			return
		}
		respondError(c, http.StatusBadRequest, CodeBadRequest, "file is required")
		return
	}

	body, err := fileHeader.Open()
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	defer body.Close()

	file, err := h.files.UploadFile(c.Request.Context(), auth.FromContext(c.Request.Context()), service.UploadFileRequest{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        body,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, file)
}

// ListFiles handles GET /api/files
func (h *FileHandler) ListFiles(c *gin.Context) {
	files, err := h.files.GetUserFiles(c.Request.Context(), auth.FromContext(c.Request.Context()))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// GetFileByKey handles GET /api/files/lookup?key=
func (h *FileHandler) GetFileByKey(c *gin.Context) {
	file, err := h.files.GetFile(c.Request.Context(), auth.FromContext(c.Request.Context()), c.Query("key"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// GetUploadStatus handles GET /api/files/:id/upload-status
func (h *FileHandler) GetUploadStatus(c *gin.Context) {
	status, err := h.files.GetFileUploadStatus(c.Request.Context(), auth.FromContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// DeleteFile handles DELETE /api/files/:id
func (h *FileHandler) DeleteFile(c *gin.Context) {
	file, err := h.files.DeleteFile(c.Request.Context(), auth.FromContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, file)
}
