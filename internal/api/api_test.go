package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/editorial-cms/internal/api"
	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/mocks"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *gin.Engine
	services *service.Services
	store    *mocks.Store
	auth     *mocks.MockAuthService
	images   *mocks.MockImageStore
}

type failingHealth struct{}

func (failingHealth) HealthCheck(ctx context.Context) error { return errors.New("connection refused") }

func testConfig() *config.Config {
	return &config.Config{
		Env:    "test",
		AppURL: "https://news.example",
		Server: config.ServerConfig{Port: "8080"},
		Security: config.SecurityConfig{
			AdminPath:        "admin",
			SessionTTL:       time.Hour,
			MaxLoginAttempts: 5,
			LockoutDuration:  15 * time.Minute,
			SearchRPS:        100,
			SearchBurst:      100,
		},
		Content: config.ContentConfig{
			ArticlesPerPage: 10,
			AdminPerPage:    20,
			WordsPerMinute:  238,
			ExcerptLength:   180,
		},
		Media: config.MediaConfig{MaxUploadBytes: 1 << 20},
	}
}

func setupTestRouter(t *testing.T, cfg *config.Config, health api.HealthChecker) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := mocks.NewStore()
	store.Articles.Now = clock
	images := &mocks.MockImageStore{Path: "/uploads/articles/2024/05/cover.png"}

	services := service.NewServices(store.Repositories(), service.Infra{
		Images: images,
		Events: &mocks.MockPublisher{},
		Now:    clock,
	}, cfg, zerolog.Nop())

	auth := mocks.NewMockAuthService("secret password")
	services.Auth = auth

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zerolog.Nop()
	router := api.NewRouter(ctx, services, cfg, health, log)

	return &testServer{router: router, services: services, store: store, auth: auth, images: images}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login returns the session token and CSRF token
func (s *testServer) login(t *testing.T) (string, string) {
	t.Helper()
	body := strings.NewReader(`{"email":"jane@example.com","password":"secret password"}`)
	req := httptest.NewRequest("POST", "/v1/admin/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token     string `json:"token"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.CSRFToken
}

func authed(method, target, token, csrf string, body *bytes.Buffer) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	return req
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)

	w := srv.do(httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "editorial-cms" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), failingHealth{})

	w := srv.do(httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	srv.do(httptest.NewRequest("GET", "/v1/articles", nil))

	w := srv.do(httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/v1/articles",status_code="200"}`)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)

	w := srv.do(httptest.NewRequest("GET", "/v1/articles", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Referrer-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest("GET", "/v1/articles", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = srv.do(req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORSHeaders(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)

	req := httptest.NewRequest("OPTIONS", "/v1/articles", nil)
	req.Header.Set("Origin", "https://reader.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := srv.do(req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPublicArticle(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	ctx := context.Background()

	_, err := srv.services.Article.Create(ctx, 1, &models.ArticleInput{Title: "Live story", Status: "published"})
	require.NoError(t, err)
	_, err = srv.services.Article.Create(ctx, 1, &models.ArticleInput{Title: "Hidden draft"})
	require.NoError(t, err)

	w := srv.do(httptest.NewRequest("GET", "/v1/articles/live-story", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Live story", view["title"])
	assert.Equal(t, "https://news.example/articles/live-story", view["canonical"])
	assert.EqualValues(t, 1, view["view_count"])

	w = srv.do(httptest.NewRequest("GET", "/v1/articles/hidden-draft", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(httptest.NewRequest("GET", "/v1/articles?page=-4", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items      []models.Article  `json:"items"`
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "live-story", page.Items[0].Slug)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
}

func TestPublicCategoryArchive_NotFound(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)

	w := srv.do(httptest.NewRequest("GET", "/v1/categories/missing/articles", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSitemapAndRobots(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)

	w := srv.do(httptest.NewRequest("GET", "/sitemap.xml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/xml"))
	assert.Contains(t, w.Body.String(), "<loc>https://news.example/</loc>")

	w = srv.do(httptest.NewRequest("GET", "/robots.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, w.Body.String(), "Disallow: /v1/admin/")
}

func TestSearchRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.SearchRPS = 0.001
	cfg.Security.SearchBurst = 2
	srv := setupTestRouter(t, cfg, nil)

	for i := 0; i < 2; i++ {
		w := srv.do(httptest.NewRequest("GET", "/v1/search?q=news", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := srv.do(httptest.NewRequest("GET", "/v1/search?q=news", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// other routes are not limited
	w = srv.do(httptest.NewRequest("GET", "/v1/articles", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRequiresSession(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)

	w := srv.do(httptest.NewRequest("GET", "/v1/admin/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(authed("GET", "/v1/admin/dashboard", "not-a-session", "", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLogin(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)

	body := strings.NewReader(`{"email":"jane@example.com","password":"wrong"}`)
	req := httptest.NewRequest("POST", "/v1/admin/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := srv.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("POST", "/v1/admin/login", strings.NewReader(`{"email":"jane@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w = srv.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	form := strings.NewReader("email=jane%40example.com&password=secret+password")
	req = httptest.NewRequest("POST", "/v1/admin/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = srv.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "cms_session" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	// the cookie alone authenticates reads
	req = httptest.NewRequest("GET", "/v1/admin/dashboard", nil)
	req.AddCookie(sessionCookie)
	w = srv.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminLogin_Lockout(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	srv.auth.LoginErr = &service.LockoutError{Remaining: 90 * time.Second}

	req := httptest.NewRequest("POST", "/v1/admin/login", strings.NewReader(`{"email":"jane@example.com","password":"secret password"}`))
	req.Header.Set("Content-Type", "application/json")
	w := srv.do(req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "120", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "2 minute")
}

func TestAdminLogout(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	token, csrf := srv.login(t)

	w := srv.do(authed("POST", "/v1/admin/logout", token, csrf, nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(authed("GET", "/v1/admin/dashboard", token, "", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminMutationsRequireCSRF(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	token, _ := srv.login(t)

	req := authed("POST", "/v1/admin/articles", token, "", jsonBody(t, map[string]string{"title": "No token"}))
	req.Header.Set("Content-Type", "application/json")
	w := srv.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = authed("POST", "/v1/admin/articles", token, "forged", jsonBody(t, map[string]string{"title": "Bad token"}))
	req.Header.Set("Content-Type", "application/json")
	w = srv.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Empty(t, srv.store.Articles.Articles)
}

func TestAdminArticleLifecycle(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	token, csrf := srv.login(t)

	tag, err := srv.services.Taxonomy.CreateTag(context.Background(), &models.TagInput{Name: "Politics"})
	require.NoError(t, err)

	req := authed("POST", "/v1/admin/articles", token, csrf, jsonBody(t, map[string]interface{}{
		"title":  "Budget day",
		"body":   "<p>numbers</p>",
		"status": "published",
		"tags":   []int64{tag.ID, tag.ID},
	}))
	req.Header.Set("Content-Type", "application/json")
	w := srv.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "budget-day", created.Slug)
	assert.Equal(t, []int64{tag.ID}, created.TagIDs)
	require.NotNil(t, created.AdminID)
	assert.Equal(t, int64(1), *created.AdminID)

	target := fmt.Sprintf("/v1/admin/articles/%d", created.ID)
	req = authed("PUT", target, token, csrf, jsonBody(t, map[string]interface{}{
		"title":  "Budget day",
		"slug":   "Budget Day Live!",
		"status": "draft",
	}))
	req.Header.Set("Content-Type", "application/json")
	w = srv.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "budget-day-live", updated.Slug)
	assert.Equal(t, models.StatusDraft, updated.Status)
	assert.Empty(t, updated.TagIDs)

	w = srv.do(authed("GET", target, token, "", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(authed("GET", "/v1/admin/articles?status=draft", token, "", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "budget-day-live")

	w = srv.do(authed("DELETE", target, token, csrf, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(authed("GET", target, token, "", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(authed("DELETE", target, token, csrf, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCreateArticle_Multipart(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	token, csrf := srv.login(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("title", "Photo essay")
	writer.WriteField("status", "draft")
	part, err := writer.CreateFormFile("image", "cover.png")
	require.NoError(t, err)
	part.Write(img.Bytes())
	writer.Close()

	req := authed("POST", "/v1/admin/articles", token, csrf, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := srv.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "/uploads/articles/2024/05/cover.png", created.FeaturedImage)
	assert.Equal(t, []string{"cover.png"}, srv.images.Uploads)
}

func TestAdminCreateArticle_Validation(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	token, csrf := srv.login(t)

	req := authed("POST", "/v1/admin/articles", token, csrf, jsonBody(t, map[string]string{"title": "<b></b>"}))
	req.Header.Set("Content-Type", "application/json")
	w := srv.do(req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "title is required")

	req = authed("POST", "/v1/admin/articles", token, csrf, jsonBody(t, map[string]string{"body": "untitled"}))
	req.Header.Set("Content-Type", "application/json")
	w = srv.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(authed("GET", "/v1/admin/articles/abc", token, "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminArticleService_InternalError(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	mockArticles := mocks.NewMockArticleService()
	mockArticles.DashboardFunc = func(ctx context.Context) (*models.Dashboard, error) {
		return nil, errors.New("pq: connection reset")
	}
	srv.services.Article = mockArticles
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router := api.NewRouter(ctx, srv.services, testConfig(), nil, zerolog.Nop())

	token, _ := srv.login(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authed("GET", "/v1/admin/dashboard", token, "", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestAdminTaxonomy(t *testing.T) {
	srv := setupTestRouter(t, testConfig(), nil)
	token, csrf := srv.login(t)

	create := func(path, name string) *httptest.ResponseRecorder {
		req := authed("POST", path, token, csrf, jsonBody(t, map[string]string{"name": name}))
		req.Header.Set("Content-Type", "application/json")
		return srv.do(req)
	}

	w := create("/v1/admin/categories", "Culture")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category models.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &category))
	assert.Equal(t, "culture", category.Slug)

	w = create("/v1/admin/categories", "culture")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = create("/v1/admin/tags", "Film")
	require.Equal(t, http.StatusCreated, w.Code)
	w = create("/v1/admin/tags", "film")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(authed("GET", "/v1/admin/tags", token, "", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"film"`)

	w = srv.do(httptest.NewRequest("GET", "/v1/categories", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"culture"`)

	target := fmt.Sprintf("/v1/admin/categories/%d", category.ID)
	w = srv.do(authed("DELETE", target, token, csrf, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = srv.do(authed("DELETE", target, token, csrf, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
