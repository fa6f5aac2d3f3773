package export

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/furniscan/furniscan-backend/internal/auth"
	"github.com/furniscan/furniscan-backend/internal/projects"
)

type Handler struct {
	service  *Service
	projects projects.Store
	history  *LogRepository
}

// Register mounts the export routes on the projects group. The "excel" path
// segment matches the product's button naming; the artifact itself is XLSX.
func Register(rg *gin.RouterGroup, service *Service, store projects.Store, history *LogRepository) {
	h := &Handler{service: service, projects: store, history: history}

	rg.POST("/:id/exports/pdf", h.export(FormatPDF))
	rg.POST("/:id/exports/excel", h.export(FormatXLSX))
	rg.GET("/:id/exports", h.list)
}

func (h *Handler) export(format Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserDBID(c)
		project, err := h.projects.Get(c.Request.Context(), userID, c.Param("id"))
		if errors.Is(err, projects.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}

		download, err := h.service.Export(c.Request.Context(), userID, project, format)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "download_url": download.URL, "filename": download.Filename})
	}
}

func (h *Handler) list(c *gin.Context) {
	logs, err := h.history.ListByProject(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if logs == nil {
		logs = []Log{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "exports": logs})
}
