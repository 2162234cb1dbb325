package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/kobohighlights/internal/clipboard"
	"github.com/mrlokans/kobohighlights/internal/kobo"
	"github.com/mrlokans/kobohighlights/internal/session"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context
}

// Machine-readable error codes.
const (
	CodeBadRequest           = "bad_request"
	CodeFileTooLarge         = "file_too_large"
	CodeInvalidFileType      = "invalid_file_type"
	CodeMalformedFile        = "malformed_file"
	CodeInitializationFailed = "initialization_failed"
	CodeLoadInProgress       = "load_in_progress"
	CodeInvalidState         = "invalid_state"
	CodeNoHighlights         = "no_highlights"
	CodeBookNotFound         = "book_not_found"
	CodeUnknownFormat        = "unknown_format"
	CodeClipboardUnavailable = "clipboard_unavailable"
	CodeSessionClosed        = "session_closed"
	CodeInternal             = "internal_error"
)

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeBadRequest})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Error().Err(err).Str("context", context).Msg("Internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// respondWorkspaceError maps loader and session errors to their HTTP status.
func respondWorkspaceError(c *gin.Context, err error) {
	var schemaErr *kobo.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "the file is not a Kobo database",
			Code:    CodeMalformedFile,
			Details: schemaErr.Error(),
		})
	case errors.Is(err, kobo.ErrMalformedFile):
		respondError(c, http.StatusBadRequest, CodeMalformedFile, "the file is not a valid database")
	case errors.Is(err, kobo.ErrInitialization):
		log.Error().Err(err).Msg("Database engine failed to start")
		respondError(c, http.StatusInternalServerError, CodeInitializationFailed, "the database could not be opened, please retry")
	case errors.Is(err, session.ErrLoadInProgress):
		respondError(c, http.StatusConflict, CodeLoadInProgress, "a database is already being loaded")
	case errors.Is(err, session.ErrInvalidState):
		respondError(c, http.StatusConflict, CodeInvalidState, "action not available right now")
	case errors.Is(err, session.ErrNoHighlights):
		respondError(c, http.StatusNotFound, CodeNoHighlights, "this book has no highlights")
	case errors.Is(err, session.ErrBookNotFound):
		respondError(c, http.StatusNotFound, CodeBookNotFound, "book not found")
	case errors.Is(err, session.ErrUnknownFormat):
		respondError(c, http.StatusBadRequest, CodeUnknownFormat, err.Error())
	case errors.Is(err, clipboard.ErrUnavailable):
		respondError(c, http.StatusServiceUnavailable, CodeClipboardUnavailable, "clipboard unavailable")
	case errors.Is(err, session.ErrClosed):
		respondError(c, http.StatusGone, CodeSessionClosed, "session expired, please reload")
	default:
		respondInternalError(c, err, "workspace")
	}
}
