package http

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobohighlights/internal/auth"
	"github.com/mrlokans/kobohighlights/internal/clipboard"
	"github.com/mrlokans/kobohighlights/internal/entities"
	"github.com/mrlokans/kobohighlights/internal/exporters"
	"github.com/mrlokans/kobohighlights/internal/session"
	"github.com/mrlokans/kobohighlights/internal/utils"
)

// CatalogController serves the loaded catalog and the highlight dialog.
type CatalogController struct{}

func NewCatalogController() *CatalogController {
	return &CatalogController{}
}

type SessionResponse struct {
	session.Info
	Formats   []string `json:"formats"`
	CSRFToken string   `json:"csrf_token,omitempty"`
}

type BookView struct {
	entities.Book
	Display entities.BookDisplay `json:"display"`
}

type BooksResponse struct {
	Books []BookView `json:"books"`
	Count int        `json:"count"`
}

type OpenDialogRequest struct {
	ContentID string `json:"content_id" binding:"required"`
}

type CopyRequest struct {
	Format string `json:"format"`
}

type CopyResponse struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

func (h *CatalogController) Session(c *gin.Context) {
	c.JSON(http.StatusOK, SessionResponse{
		Info:      getWorkspace(c).Info(),
		Formats:   exporters.Names(),
		CSRFToken: auth.GetCSRFToken(c),
	})
}

func (h *CatalogController) Books(c *gin.Context) {
	books, err := getWorkspace(c).Catalog()
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	views := make([]BookView, 0, len(books))
	for _, book := range books {
		views = append(views, BookView{Book: book, Display: book.Display()})
	}

	c.JSON(http.StatusOK, BooksResponse{Books: views, Count: len(views)})
}

// OpenDialog loads the highlights of one book.
func (h *CatalogController) OpenDialog(c *gin.Context) {
	var req OpenDialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "content_id is required")
		return
	}

	dialog, err := getWorkspace(c).SelectBook(c.Request.Context(), req.ContentID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dialog)
}

func (h *CatalogController) GetDialog(c *gin.Context) {
	dialog, err := getWorkspace(c).Highlights()
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dialog)
}

func (h *CatalogController) CloseDialog(c *gin.Context) {
	if err := getWorkspace(c).CloseDialog(); err != nil {
		respondWorkspaceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Copy renders the open dialog for the browser to put on its clipboard.
func (h *CatalogController) Copy(c *gin.Context) {
	var req CopyRequest
	// An empty body, chunked or not, selects the default format.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Format == "" {
		req.Format = exporters.FormatMarkdown
	}

	var buf clipboard.Buffer
	text, err := getWorkspace(c).Copy(c.Request.Context(), req.Format, &buf)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, CopyResponse{Format: req.Format, Content: text})
}

// Download returns the open dialog as a file attachment.
func (h *CatalogController) Download(c *gin.Context) {
	format, ok := exporters.Lookup(c.DefaultQuery("format", exporters.FormatMarkdown))
	if !ok {
		respondError(c, http.StatusBadRequest, CodeUnknownFormat, "unknown export format")
		return
	}

	dialog, err := getWorkspace(c).Highlights()
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	filename := utils.SanitizeFilename(dialog.Book.Title) + format.Extension
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, format.MIMEType, []byte(format.Render(dialog.Highlights)))
}
