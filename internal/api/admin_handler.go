package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminHandler handles the authenticated back-office endpoints
type AdminHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// Login handles POST /v1/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	sess, err := h.services.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	maxAge := int(h.cfg.Security.SessionTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sess.ID, maxAge, "/", "", h.cfg.IsProduction(), true)

	c.JSON(http.StatusOK, gin.H{
		"token":      sess.ID,
		"csrf_token": sess.CSRFToken,
		"expires_in": maxAge,
		"admin": gin.H{
			"id":       sess.AdminID,
			"username": sess.Username,
			"role":     sess.Role,
		},
	})
}

// Logout handles POST /v1/admin/logout
func (h *AdminHandler) Logout(c *gin.Context) {
	sess := currentSession(c)
	if err := h.services.Auth.Logout(c.Request.Context(), sess.ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", h.cfg.IsProduction(), true)
	c.Status(http.StatusNoContent)
}

// Dashboard handles GET /v1/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.services.Article.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListArticles handles GET /v1/admin/articles?status=
// An unknown status filter lists every status.
func (h *AdminHandler) ListArticles(c *gin.Context) {
	page, err := h.services.Article.List(c.Request.Context(), parsePage(c), c.Query("status"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetArticle handles GET /v1/admin/articles/:id
func (h *AdminHandler) GetArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	article, err := h.services.Article.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// CreateArticle handles POST /v1/admin/articles
func (h *AdminHandler) CreateArticle(c *gin.Context) {
	in, ok := h.bindArticle(c)
	if !ok {
		return
	}

	sess := currentSession(c)
	article, err := h.services.Article.Create(c.Request.Context(), sess.AdminID, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// UpdateArticle handles PUT /v1/admin/articles/:id
func (h *AdminHandler) UpdateArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := h.bindArticle(c)
	if !ok {
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// DeleteArticle handles DELETE /v1/admin/articles/:id
func (h *AdminHandler) DeleteArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Article.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindArticle binds the article form and attaches the optional image upload
func (h *AdminHandler) bindArticle(c *gin.Context) (*models.ArticleInput, bool) {
	var in models.ArticleInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article: " + err.Error()})
		return nil, false
	}

	upload, err := h.readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image upload"})
		return nil, false
	}
	in.Image = upload
	return &in, true
}

// readImage returns the "image" part of a multipart form, or nil when absent.
// At most one byte over the configured limit is read so the image store can
// reject oversized files.
func (h *AdminHandler) readImage(c *gin.Context) (*models.Upload, error) {
	if c.ContentType() != "multipart/form-data" {
		return nil, nil
	}
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Media.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &models.Upload{Filename: header.Filename, Data: data}, nil
}

// ListCategories handles GET /v1/admin/categories
func (h *AdminHandler) ListCategories(c *gin.Context) {
	categories, err := h.services.Taxonomy.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": categories})
}

// CreateCategory handles POST /v1/admin/categories
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var in models.CategoryInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category: " + err.Error()})
		return
	}
	category, err := h.services.Taxonomy.CreateCategory(c.Request.Context(), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// DeleteCategory handles DELETE /v1/admin/categories/:id
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Taxonomy.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTags handles GET /v1/admin/tags
func (h *AdminHandler) ListTags(c *gin.Context) {
	tags, err := h.services.Taxonomy.Tags(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": tags})
}

// CreateTag handles POST /v1/admin/tags
func (h *AdminHandler) CreateTag(c *gin.Context) {
	var in models.TagInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag: " + err.Error()})
		return
	}
	tag, err := h.services.Taxonomy.CreateTag(c.Request.Context(), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// DeleteTag handles DELETE /v1/admin/tags/:id
func (h *AdminHandler) DeleteTag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Taxonomy.DeleteTag(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
