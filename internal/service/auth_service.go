package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/metrics"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/ratelimit"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/session"
	"github.com/editorial-cms/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// authService is the concrete implementation of AuthService
type authService struct {
	admins   repository.AdminRepository
	sessions session.Store
	attempts ratelimit.AttemptStore
	cfg      *config.SecurityConfig
	log      zerolog.Logger
}

func newAuthService(admins repository.AdminRepository, sessions session.Store, attempts ratelimit.AttemptStore, cfg *config.Config, log zerolog.Logger) *authService {
	return &authService{
		admins:   admins,
		sessions: sessions,
		attempts: attempts,
		cfg:      &cfg.Security,
		log:      log.With().Str("service", "auth").Logger(),
	}
}

// Login verifies credentials and opens a session. Failures are counted per
// email; once the limit is reached the email is locked out for the window.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*session.Session, error) {
	key := strings.ToLower(strings.TrimSpace(req.Email))

	count, left, err := s.attempts.Count(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read login attempts: %w", err)
	}
	if count >= s.cfg.MaxLoginAttempts {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		s.log.Warn().Str("email", key).Dur("remaining", left).Msg("Login locked out")
		return nil, &LockoutError{Remaining: left}
	}

	admin, err := s.admins.FindByEmail(ctx, key)
	if err != nil {
		return nil, err
	}
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)) != nil {
		if _, _, err := s.attempts.Hit(ctx, key, s.cfg.LockoutDuration); err != nil {
			s.log.Error().Err(err).Msg("Failed to record login attempt")
		}
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		s.log.Warn().Str("email", key).Msg("Invalid login")
		return nil, ErrInvalidCredentials
	}

	if err := s.attempts.Reset(ctx, key); err != nil {
		s.log.Error().Err(err).Msg("Failed to reset login attempts")
	}
	s.rehashIfNeeded(ctx, admin, req.Password)

	sess, err := session.New(admin.ID, admin.Username, admin.Role)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.log.Info().Int64("admin_id", admin.ID).Msg("Admin logged in")
	return sess, nil
}

// rehashIfNeeded upgrades a hash made with a lower cost than configured
func (s *authService) rehashIfNeeded(ctx context.Context, admin *models.Admin, password string) {
	cost, err := bcrypt.Cost([]byte(admin.Password))
	if err != nil || cost >= s.cfg.BcryptCost {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to rehash password")
		return
	}
	if err := s.admins.UpdatePassword(ctx, admin.ID, string(hash)); err != nil {
		s.log.Error().Err(err).Int64("admin_id", admin.ID).Msg("Failed to store rehashed password")
		return
	}
	s.log.Info().Int64("admin_id", admin.ID).Int("from_cost", cost).Msg("Password rehashed")
}

// Logout ends a session
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Resolve returns the live session for id, or nil
func (s *authService) Resolve(ctx context.Context, sessionID string) (*session.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	return s.sessions.Get(ctx, sessionID)
}

// CreateAdmin validates and stores a new admin with a bcrypt-hashed password
func (s *authService) CreateAdmin(ctx context.Context, admin *models.Admin, password string) error {
	if admin.Role == "" {
		admin.Role = "editor"
	}
	if errs := validation.ValidateAdmin(admin, password, minPasswordLength); len(errs) > 0 {
		return errs
	}

	existing, err := s.admins.FindByEmail(ctx, admin.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin.Password = string(hash)

	if err := s.admins.Create(ctx, admin); err != nil {
		return err
	}
	s.log.Info().Int64("admin_id", admin.ID).Str("role", admin.Role).Msg("Admin created")
	return nil
}
