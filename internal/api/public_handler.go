package api

import (
	"net/http"

	"github.com/editorial-cms/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PublicHandler serves the reader-facing endpoints. Every listing it returns
// has already passed the publication gate.
type PublicHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(services *service.Services, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		services: services,
		log:      log.With().Str("handler", "public").Logger(),
	}
}

// Home handles GET /v1/articles
func (h *PublicHandler) Home(c *gin.Context) {
	page, err := h.services.Public.Home(c.Request.Context(), parsePage(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Article handles GET /v1/articles/:slug
func (h *PublicHandler) Article(c *gin.Context) {
	view, err := h.services.Public.Article(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Categories handles GET /v1/categories
func (h *PublicHandler) Categories(c *gin.Context) {
	categories, err := h.services.Public.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": categories})
}

// CategoryArchive handles GET /v1/categories/:slug/articles
func (h *PublicHandler) CategoryArchive(c *gin.Context) {
	archive, err := h.services.Public.CategoryArchive(c.Request.Context(), c.Param("slug"), parsePage(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, archive)
}

// Search handles GET /v1/search?q=
func (h *PublicHandler) Search(c *gin.Context) {
	result, err := h.services.Public.Search(c.Request.Context(), c.Query("q"), parsePage(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Sitemap handles GET /sitemap.xml
func (h *PublicHandler) Sitemap(c *gin.Context) {
	body, err := h.services.Public.Sitemap(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// Robots handles GET /robots.txt
func (h *PublicHandler) Robots(c *gin.Context) {
	c.String(http.StatusOK, h.services.Public.Robots())
}
