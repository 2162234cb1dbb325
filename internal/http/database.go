package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/kobohighlights/internal/session"
)

// Multipart framing allowance on top of the file size limit.
const multipartOverhead = 1 << 20

var allowedDatabaseExtensions = map[string]bool{
	".sqlite":  true,
	".sqlite3": true,
	".db":      true,
	"":         true,
}

type DatabaseController struct {
	maxBytes int64
}

func NewDatabaseController(maxBytes int64) *DatabaseController {
	return &DatabaseController{maxBytes: maxBytes}
}

type UploadResponse struct {
	Filename    string        `json:"filename"`
	Bytes       int           `json:"bytes"`
	Books       int           `json:"books"`
	Fingerprint string        `json:"fingerprint"`
	State       session.State `json:"state"`
}

// Upload replaces the workspace database with the uploaded KoboReader.sqlite.
// The file is kept in memory only.
func (h *DatabaseController) Upload(c *gin.Context) {
	ws := getWorkspace(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	data, filename, err := h.readUploadedFile(c, "file")
	if err != nil {
		var tooLarge *fileTooLargeError
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge), errors.As(err, &maxBytesErr):
			respondError(c, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
				fmt.Sprintf("file too large (max %d MB)", h.maxBytes>>20))
		case errors.Is(err, errInvalidFileType):
			respondError(c, http.StatusBadRequest, CodeInvalidFileType, err.Error())
		default:
			respondBadRequest(c, err.Error())
		}
		return
	}

	if err := ws.Upload(c.Request.Context(), data); err != nil {
		log.Warn().Err(err).Str("session", ws.ID()).Str("filename", filename).Msg("Database upload rejected")
		respondWorkspaceError(c, err)
		return
	}

	info := ws.Info()
	c.JSON(http.StatusOK, UploadResponse{
		Filename:    filename,
		Bytes:       len(data),
		Books:       info.Books,
		Fingerprint: info.Fingerprint,
		State:       info.State,
	})
}

var errInvalidFileType = errors.New("invalid file type: expected .sqlite or .db file")

type fileTooLargeError struct {
	limit int64
}

func (e *fileTooLargeError) Error() string {
	return fmt.Sprintf("file larger than %d bytes", e.limit)
}

func (h *DatabaseController) readUploadedFile(c *gin.Context, fieldName string) ([]byte, string, error) {
	file, header, err := c.Request.FormFile(fieldName)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("file not provided")
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		return nil, "", &fileTooLargeError{limit: h.maxBytes}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedDatabaseExtensions[ext] {
		return nil, "", errInvalidFileType
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > h.maxBytes {
		return nil, "", &fileTooLargeError{limit: h.maxBytes}
	}

	return data, filepath.Base(header.Filename), nil
}
