package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/clearstack/opsdesk/internal/domain"
)

// UserDirectory is the slice of the database the sign-in flow needs.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.UserLogin, error)
	LogEmployeeLogin(ctx context.Context, email, name string) error
	LogEmployeeLogout(ctx context.Context, email string) error
}

// OpsNotifier receives best-effort auth events. May be nil.
type OpsNotifier interface {
	AuthEvent(event, email string)
}

// Manager owns the sign-in/sign-out lifecycle. It is the only place an
// Identity is created or discarded; every view receives identities from
// here instead of mutating shared state.
type Manager struct {
	users    UserDirectory
	notifier OpsNotifier

	mu       sync.RWMutex
	sessions map[string]*domain.Identity
}

func NewManager(users UserDirectory, notifier OpsNotifier) *Manager {
	return &Manager{
		users:    users,
		notifier: notifier,
		sessions: make(map[string]*domain.Identity),
	}
}

// SignIn verifies the login against user_perms, builds the identity with
// its validated permission map and returns an opaque session token. The
// employee login log and ops notification are best-effort.
func (m *Manager) SignIn(ctx context.Context, email, password string) (string, *domain.Identity, error) {
	login, err := m.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("sign in: %w", err)
	}
	if login.Pass != password {
		return "", nil, domain.ErrInvalidLogin
	}

	id := &domain.Identity{
		Email:       login.Email,
		Name:        login.Name,
		Role:        login.Role,
		Permissions: login.Permissions,
	}
	if id.Permissions == nil {
		id.Permissions = domain.PermissionMap{}
	}

	token := uuid.NewString()
	m.mu.Lock()
	m.sessions[token] = id
	m.mu.Unlock()

	if err := m.users.LogEmployeeLogin(ctx, login.Email, login.Name); err != nil {
		slog.Warn("employee login log failed", "email", login.Email, "error", err)
	}
	if m.notifier != nil {
		m.notifier.AuthEvent("sign-in", login.Email)
	}

	slog.Info("signed in", "email", login.Email, "role", login.Role)
	return token, id, nil
}

// Identity resolves a session token to its signed-in identity.
func (m *Manager) Identity(token string) (*domain.Identity, error) {
	m.mu.RLock()
	id, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotSignedIn
	}
	return id, nil
}

// SignOut discards the session and stamps the open employee_login row.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	m.mu.Lock()
	id, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotSignedIn
	}

	if err := m.users.LogEmployeeLogout(ctx, id.Email); err != nil {
		slog.Warn("employee logout log failed", "email", id.Email, "error", err)
	}
	if m.notifier != nil {
		m.notifier.AuthEvent("sign-out", id.Email)
	}

	slog.Info("signed out", "email", id.Email)
	return nil
}
