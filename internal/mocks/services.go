package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/editorial-cms/internal/events"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/editorial-cms/internal/session"
)

// MockArticleService is a mock implementation of ArticleService
type MockArticleService struct {
	CreateFunc    func(ctx context.Context, adminID int64, in *models.ArticleInput) (*models.Article, error)
	UpdateFunc    func(ctx context.Context, id int64, in *models.ArticleInput) (*models.Article, error)
	DeleteFunc    func(ctx context.Context, id int64) error
	GetFunc       func(ctx context.Context, id int64) (*models.Article, error)
	ListFunc      func(ctx context.Context, page int, status string) (*models.Page[*models.Article], error)
	DashboardFunc func(ctx context.Context) (*models.Dashboard, error)
	CreatedInputs []*models.ArticleInput
}

// Verify interface compliance
var _ service.ArticleService = (*MockArticleService)(nil)

func NewMockArticleService() *MockArticleService {
	return &MockArticleService{CreatedInputs: make([]*models.ArticleInput, 0)}
}

func (m *MockArticleService) Create(ctx context.Context, adminID int64, in *models.ArticleInput) (*models.Article, error) {
	m.CreatedInputs = append(m.CreatedInputs, in)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, adminID, in)
	}
	return &models.Article{ID: 1, Title: in.Title, AdminID: &adminID, Status: models.StatusDraft}, nil
}

func (m *MockArticleService) Update(ctx context.Context, id int64, in *models.ArticleInput) (*models.Article, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, in)
	}
	return &models.Article{ID: id, Title: in.Title}, nil
}

func (m *MockArticleService) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockArticleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, service.ErrNotFound
}

func (m *MockArticleService) List(ctx context.Context, page int, status string) (*models.Page[*models.Article], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, page, status)
	}
	return &models.Page[*models.Article]{Items: []*models.Article{}, Pagination: models.NewPagination(0, 20, page)}, nil
}

func (m *MockArticleService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	if m.DashboardFunc != nil {
		return m.DashboardFunc(ctx)
	}
	return &models.Dashboard{Stats: &models.ArticleStats{}, Recent: []*models.Article{}}, nil
}

// MockAuthService is a mock implementation of AuthService that accepts a
// single known password for every email.
type MockAuthService struct {
	mu       sync.Mutex
	Password string
	Sessions map[string]*session.Session
	LoginErr error
}

// Verify interface compliance
var _ service.AuthService = (*MockAuthService)(nil)

func NewMockAuthService(password string) *MockAuthService {
	return &MockAuthService{Password: password, Sessions: make(map[string]*session.Session)}
}

func (m *MockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*session.Session, error) {
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	if req.Password != m.Password {
		return nil, service.ErrInvalidCredentials
	}
	sess, err := session.New(1, "admin", "admin")
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.Sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Sessions, sessionID)
	return nil
}

func (m *MockAuthService) Resolve(ctx context.Context, sessionID string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sessions[sessionID], nil
}

func (m *MockAuthService) CreateAdmin(ctx context.Context, admin *models.Admin, password string) error {
	return errors.New("not supported")
}

// MockImageStore records uploads and returns a fixed path, or Err
type MockImageStore struct {
	Path    string
	Err     error
	Uploads []string
}

var _ service.ImageStorer = (*MockImageStore)(nil)

func (m *MockImageStore) Store(ctx context.Context, data []byte, filename string) (string, error) {
	m.Uploads = append(m.Uploads, filename)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Path, nil
}

// MockPublisher keeps published events in memory
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.ArticleEvent
	Err    error
}

var _ events.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, event events.ArticleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() {}

// Types returns the event types in publish order
func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Type
	}
	return out
}
