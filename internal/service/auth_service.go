package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionStore persists operator sessions with a sliding TTL
type SessionStore interface {
	CreateSession(ctx context.Context, role, name, language string, ttl time.Duration) (*models.Session, error)
	TouchSession(ctx context.Context, token string, ttl time.Duration) (*models.Session, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
}

// AuthService logs operators in with a role PIN
type AuthService struct {
	sessions SessionStore
	pins     map[string]string
	ttl      time.Duration
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(sessions SessionStore, adminPIN, cashierPIN string, ttl time.Duration) *AuthService {
	return &AuthService{
		sessions: sessions,
		pins: map[string]string{
			models.RoleAdmin:   adminPIN,
			models.RoleCashier: cashierPIN,
		},
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// LoginRequest represents a PIN login
type LoginRequest struct {
	Role     string `json:"role" binding:"required,oneof=admin cashier"`
	PIN      string `json:"pin" binding:"required"`
	Language string `json:"language"`
}

// Login checks the PIN for the requested role and opens a session
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*models.Session, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	expected, ok := s.pins[req.Role]
	if !ok || expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(req.PIN)) != 1 {
		util.LoginsTotal.WithLabelValues(req.Role, "rejected").Inc()
		s.logger.Warn("Login rejected", zap.String("role", req.Role))
		return nil, models.ErrUnauthorized
	}

	language, err := NormalizeLanguage(req.Language)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.CreateSession(ctx, req.Role, displayName(req.Role), language, s.ttl)
	if err != nil {
		util.SpanError(span, err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	util.LoginsTotal.WithLabelValues(req.Role, "accepted").Inc()
	s.logger.Info("Operator logged in", zap.String("role", session.Role), zap.String("language", session.Language))
	return session, nil
}

// Authenticate resolves a session token and extends the session
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, models.ErrUnauthorized
	}
	return s.sessions.TouchSession(ctx, token, s.ttl)
}

// Logout ends a session
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// SetLanguage changes the display language of a session
func (s *AuthService) SetLanguage(ctx context.Context, session *models.Session, language string) (*models.Session, error) {
	lang, err := NormalizeLanguage(language)
	if err != nil {
		return nil, err
	}

	updated := *session
	updated.Language = lang
	if err := s.sessions.UpdateSession(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// NormalizeLanguage maps an empty value to Telugu and rejects unsupported languages
func NormalizeLanguage(language string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "", models.LanguageTelugu:
		return models.LanguageTelugu, nil
	case models.LanguageEnglish:
		return models.LanguageEnglish, nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedLanguage, language)
	}
}

func displayName(role string) string {
	if role == models.RoleAdmin {
		return "Admin"
	}
	return "Cashier"
}

// MemorySessionStore keeps sessions in process; used when Redis is not reachable
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	session   models.Session
	expiresAt time.Time
}

// NewMemorySessionStore creates an empty in-process session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (m *MemorySessionStore) CreateSession(_ context.Context, role, name, language string, ttl time.Duration) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	session := models.Session{
		Token:     uuid.New().String(),
		Role:      role,
		Name:      name,
		Language:  language,
		CreatedAt: now.UTC(),
	}
	m.sessions[session.Token] = memorySession{session: session, expiresAt: now.Add(ttl)}
	return &session, nil
}

func (m *MemorySessionStore) TouchSession(_ context.Context, token string, ttl time.Duration) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[token]
	now := m.now()
	if !ok || !now.Before(entry.expiresAt) {
		delete(m.sessions, token)
		return nil, models.ErrUnauthorized
	}

	entry.expiresAt = now.Add(ttl)
	m.sessions[token] = entry
	session := entry.session
	return &session, nil
}

func (m *MemorySessionStore) UpdateSession(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[session.Token]
	if !ok || !m.now().Before(entry.expiresAt) {
		return models.ErrUnauthorized
	}
	entry.session = *session
	m.sessions[session.Token] = entry
	return nil
}

func (m *MemorySessionStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
