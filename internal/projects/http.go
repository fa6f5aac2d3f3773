package projects

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/furniscan/furniscan-backend/internal/auth"
)

// Store is the repository surface the handlers use; *Repo satisfies it.
type Store interface {
	Create(ctx context.Context, userDBID string, in CreateProject) (*Project, error)
	Get(ctx context.Context, userDBID, projectID string) (*Project, error)
	List(ctx context.Context, userDBID string) ([]Project, error)
	Update(ctx context.Context, userDBID, projectID string, in UpdateProject) (*Project, error)
	Delete(ctx context.Context, userDBID, projectID string) (imageURL, thumbnailURL string, err error)
}

// ObjectRemover deletes a stored object by its URL. Used for the best-effort
// image cleanup when a project is deleted.
type ObjectRemover interface {
	DeleteByURL(ctx context.Context, url string) error
}

type Handler struct {
	store  Store
	images ObjectRemover
	logger *slog.Logger
}

func Register(rg *gin.RouterGroup, store Store, images ObjectRemover, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{store: store, images: images, logger: logger}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

type createReq struct {
	Title        string   `json:"title"`
	ImageURL     string   `json:"image_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
	FullText     string   `json:"full_text"`
	Materials    []string `json:"materials"`
	Measurements []string `json:"measurements"`
	Instructions []string `json:"instructions"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	userID := auth.UserDBID(c)
	p, err := h.store.Create(c.Request.Context(), userID, CreateProject{
		Title:        strings.TrimSpace(req.Title),
		ImageURL:     req.ImageURL,
		ThumbnailURL: req.ThumbnailURL,
		FullText:     req.FullText,
		Materials:    req.Materials,
		Measurements: req.Measurements,
		Instructions: req.Instructions,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	userID := auth.UserDBID(c)
	items, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	userID := auth.UserDBID(c)
	p, err := h.store.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type updateReq struct {
	Title        *string  `json:"title"`
	ImageURL     *string  `json:"image_url"`
	FullText     *string  `json:"full_text"`
	Materials    []string `json:"materials"`
	Measurements []string `json:"measurements"`
	Instructions []string `json:"instructions"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "title cannot be empty"})
		return
	}

	userID := auth.UserDBID(c)
	p, err := h.store.Update(c.Request.Context(), userID, c.Param("id"), UpdateProject{
		Title:        req.Title,
		ImageURL:     req.ImageURL,
		FullText:     req.FullText,
		Materials:    req.Materials,
		Measurements: req.Measurements,
		Instructions: req.Instructions,
	})
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	userID := auth.UserDBID(c)
	projectID := c.Param("id")

	imageURL, thumbnailURL, err := h.store.Delete(c.Request.Context(), userID, projectID)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	// Best-effort image cleanup: a storage failure is logged and swallowed,
	// the record deletion already succeeded.
	for _, u := range []string{imageURL, thumbnailURL} {
		if u == "" {
			continue
		}
		if err := h.images.DeleteByURL(c.Request.Context(), u); err != nil {
			h.logger.Warn("could not delete stored image", "project_id", projectID, "url", u, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
