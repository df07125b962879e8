package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/usecase"
	"github.com/gin-gonic/gin"
)

type directoryUsecaser interface {
	ListVolunteers(ctx context.Context) ([]domain.VolunteerListing, error)
	ListNGOs(ctx context.Context) ([]domain.NGOListing, error)
	VolunteerDocument(ctx context.Context, volunteerID int64, kind domain.DocumentKind) (*usecase.Document, error)
}

type DirectoryHandler struct {
	directory directoryUsecaser
	logger    *slog.Logger
}

func NewDirectoryHandler(directory directoryUsecaser, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{directory: directory, logger: logger.With("component", "directory_handler")}
}

// GET /volunteers
// An empty directory is 200 with [].
func (h *DirectoryHandler) ListVolunteers(c *gin.Context) {
	vols, err := h.directory.ListVolunteers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list volunteers", err)
		return
	}
	c.JSON(http.StatusOK, toVolunteers(vols))
}

// GET /ngos
func (h *DirectoryHandler) ListNGOs(c *gin.Context) {
	ngos, err := h.directory.ListNGOs(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list ngos", err)
		return
	}
	c.JSON(http.StatusOK, toNGOs(ngos))
}

// GET /volunteers/:id/documents/:kind
func (h *DirectoryHandler) VolunteerDocument(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	kind, err := domain.ParseDocumentKind(c.Param("kind"))
	if err != nil {
		respondError(c, h.logger, "parse document kind", err)
		return
	}

	doc, err := h.directory.VolunteerDocument(c.Request.Context(), id, kind)
	if err != nil {
		respondError(c, h.logger, "get volunteer document", err)
		return
	}
	defer doc.Body.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, doc.Size, contentType, doc.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.Filename),
	})
}

// NotFound is the fallback for unmatched routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": errNotFound})
}
