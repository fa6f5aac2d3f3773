package scans

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/furniscan/furniscan-backend/internal/auth"
	"github.com/furniscan/furniscan-backend/internal/capture"
	"github.com/furniscan/furniscan-backend/internal/projects"
	"github.com/furniscan/furniscan-backend/internal/ws"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens via the bearer token middleware; origins are handled by
	// the CORS layer in front of the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	service  *Service
	projects projects.Store
	hub      *ws.Hub
	logger   *slog.Logger
}

func Register(rg *gin.RouterGroup, service *Service, store projects.Store, hub *ws.Hub, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{service: service, projects: store, hub: hub, logger: logger}

	rg.POST("", h.ingest)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.edit)
	rg.POST("/:id/save", h.save)
	rg.DELETE("/:id", h.discard)
	rg.GET("/:id/events", h.events)
}

func (h *Handler) ingest(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "image file required"})
		return
	}

	// The pipeline owns the upload stream from here; its capture session
	// releases it when the scan settles.
	draft, err := h.service.Ingest(c.Request.Context(), auth.UserDBID(c), auth.UserFirebaseUID(c), header.Filename, file)
	if errors.Is(err, ErrUnsupportedImage) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"ok": false, "error": "unsupported image format"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "scan": draft})
}

func (h *Handler) get(c *gin.Context) {
	draft, err := h.service.GetDraft(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
	if errors.Is(err, ErrDraftNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "scan not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "scan": draft})
}

func (h *Handler) edit(c *gin.Context) {
	var edit DraftEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	draft, err := h.service.EditDraft(c.Request.Context(), auth.UserDBID(c), c.Param("id"), edit)
	if errors.Is(err, ErrDraftNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "scan not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "scan": draft})
}

func (h *Handler) save(c *gin.Context) {
	project, err := h.service.Save(c.Request.Context(), auth.UserDBID(c), c.Param("id"), h.projects)
	if errors.Is(err, ErrDraftNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "scan not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": project})
}

func (h *Handler) discard(c *gin.Context) {
	err := h.service.Discard(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
	if errors.Is(err, capture.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "scan still processing"})
		return
	}
	if errors.Is(err, ErrDraftNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "scan not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// events upgrades the request and streams pipeline progress for one scan.
func (h *Handler) events(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "scan_id", c.Param("id"), "error", err)
		return
	}

	client := &ws.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 64),
		ScanID: c.Param("id"),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
