package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dhruvc/stylefeed/internal/cache"
	"github.com/dhruvc/stylefeed/internal/config"
	"github.com/dhruvc/stylefeed/internal/middleware"
	"github.com/dhruvc/stylefeed/internal/model"
	"github.com/dhruvc/stylefeed/internal/repository"
	"github.com/dhruvc/stylefeed/internal/storage"
)

// maxUploadBytes caps a single media upload at 50 MiB.
const maxUploadBytes = 50 << 20

// MediaHandler streams uploads into object storage and hands out signed
// download links.
type MediaHandler struct {
	Cfg   config.Config
	Store *storage.Store
	Media *repository.MediaRepo
	URLs  *cache.SignedURLs
}

func NewMediaHandler(cfg config.Config, store *storage.Store, media *repository.MediaRepo, urls *cache.SignedURLs) *MediaHandler {
	return &MediaHandler{Cfg: cfg, Store: store, Media: media, URLs: urls}
}

// Upload accepts one multipart file under the "file" field, stores it and
// records the media row.  The media type follows the declared content
// type: image/* or video/*, nothing else.
func (h *MediaHandler) Upload(c echo.Context) error {
	if h.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "media storage unavailable"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file required"})
	}
	if fh.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}

	contentType := fh.Header.Get("Content-Type")
	var mediaType model.MediaType
	switch {
	case strings.HasPrefix(contentType, "image/"):
		mediaType = model.MediaImage
	case strings.HasPrefix(contentType, "video/"):
		mediaType = model.MediaVideo
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported media type"})
	}

	src, err := fh.Open()
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	defer src.Close()

	userID, _ := middleware.CurrentUserID(c)

	ctx := c.Request().Context()
	key, err := h.Store.Put(ctx, src, fh.Size, contentType)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	id, err := h.Media.Create(ctx, userID, mediaType, key)
	if err != nil {
		// The row failed; don't leave the object orphaned.
		_ = h.Store.Remove(ctx, key)
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "type": mediaType})
}

// signedURLCacheTTL keeps cached links well inside their validity window
// so a cache hit never serves a link about to expire.
const signedURLCacheTTL = storage.SignedURLTTL - 10*time.Minute

// Info returns one media record with a short-lived signed download URL,
// served from the URL cache when a still-valid link is there.
func (h *MediaHandler) Info(c echo.Context) error {
	if h.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "media storage unavailable"})
	}
	mediaID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media id"})
	}

	ctx := c.Request().Context()
	m, err := h.Media.GetByID(ctx, mediaID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	url := h.URLs.Get(ctx, m.ID)
	if url == "" {
		if url, err = h.Store.SignedURL(ctx, m.ObjectKey); err != nil {
			return writeError(c, err, h.Cfg.IsDev())
		}
		h.URLs.Put(ctx, m.ID, url, signedURLCacheTTL)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":   m.ID,
		"type": m.Type,
		"url":  url,
	})
}
