package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearstack/opsdesk/internal/auth"
	"github.com/clearstack/opsdesk/internal/chatstore"
	"github.com/clearstack/opsdesk/internal/config"
	"github.com/clearstack/opsdesk/internal/domain"
	"github.com/clearstack/opsdesk/internal/repository"
	"github.com/clearstack/opsdesk/internal/roleadmin"
)

type fakeUsers struct {
	logins map[string]*domain.UserLogin
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*domain.UserLogin, error) {
	u, ok := f.logins[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) LogEmployeeLogin(context.Context, string, string) error { return nil }
func (f *fakeUsers) LogEmployeeLogout(context.Context, string) error       { return nil }

func (f *fakeUsers) GetAllUserLogins(context.Context) ([]domain.UserLogin, error) {
	var out []domain.UserLogin
	for _, u := range f.logins {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) CreateUserLogin(_ context.Context, login *domain.UserLogin) (*domain.UserLogin, error) {
	f.logins[login.Email] = login
	return login, nil
}

func (f *fakeUsers) UpdateUserLoginByEmail(context.Context, string, repository.UserLoginUpdate) error {
	return nil
}
func (f *fakeUsers) DeleteUserLoginByEmail(context.Context, string) error { return nil }
func (f *fakeUsers) UpdateRolePermissions(context.Context, string, domain.Role, domain.PermissionMap) error {
	return nil
}
func (f *fakeUsers) CreateRole(_ context.Context, name string) (*domain.RoleRecord, error) {
	return &domain.RoleRecord{ID: 1, Name: name}, nil
}
func (f *fakeUsers) UpdateRoleByID(context.Context, int64, string) error { return nil }
func (f *fakeUsers) DeleteRoleByID(context.Context, int64) error         { return nil }

type fakeRemote struct{ reply string }

func (f *fakeRemote) SetSession(context.Context, string, string) error { return nil }
func (f *fakeRemote) GetUserProject(context.Context, string) (*domain.ProjectBinding, error) {
	return &domain.ProjectBinding{}, nil
}
func (f *fakeRemote) CommonChat(context.Context, string) (string, error) { return f.reply, nil }
func (f *fakeRemote) DualChat(context.Context, string) (string, error)   { return f.reply, nil }
func (f *fakeRemote) WorkChat(context.Context, string, string) (string, error) {
	return f.reply, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeUsers) {
	t.Helper()

	users := &fakeUsers{logins: map[string]*domain.UserLogin{
		"admin@corp.test": {Email: "admin@corp.test", Name: "Admin", Pass: "pw", Role: domain.RoleAdmin},
		"emp@corp.test": {
			Email: "emp@corp.test", Name: "Emp", Pass: "pw", Role: domain.RoleEmployee,
			Permissions: domain.PermissionMap{
				domain.PageChooseRoles: {View: true},
			},
		},
	}}

	store, err := chatstore.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mgr := auth.NewManager(users, nil)
	srv := NewServer(Deps{
		Cfg:    &config.Config{AllowedOrigins: []string{"http://localhost:3001"}},
		Auth:   mgr,
		View:   roleadmin.NewView(users, nil),
		Store:  store,
		Remote: &fakeRemote{reply: "pong"},
		Repo:   repository.New(nil),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, users
}

func signIn(t *testing.T, ts *httptest.Server, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "pw"})
	resp, err := http.Post(ts.URL+"/api/signin", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, ts.URL+path, &body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestSignInRejectsBadPassword(t *testing.T) {
	ts, _ := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"email": "emp@corp.test", "password": "nope"})
	resp, err := http.Post(ts.URL+"/api/signin", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatRequiresSignIn(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, ts, http.MethodPost, "/api/chat/communication/message", "", map[string]string{"text": "hi"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatSendAndHistory(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signIn(t, ts, "emp@corp.test")

	resp := doJSON(t, ts, http.MethodPost, "/api/chat/communication/message", token, map[string]string{"text": "hi"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sendOut struct {
		Reply *domain.ChatMessage `json:"reply"`
		Sent  bool                `json:"sent"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sendOut))
	assert.True(t, sendOut.Sent)
	require.NotNil(t, sendOut.Reply)
	assert.Equal(t, "pong", sendOut.Reply.Content)

	hist := doJSON(t, ts, http.MethodGet, "/api/chat/communication/history", token, nil)
	defer hist.Body.Close()
	require.Equal(t, http.StatusOK, hist.StatusCode)

	var histOut struct {
		Sessions []domain.ChatSession `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(hist.Body).Decode(&histOut))
	require.Len(t, histOut.Sessions, 1)
	assert.Equal(t, "hi", histOut.Sessions[0].Summary)
}

func TestUnknownSurfaceIs404(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signIn(t, ts, "emp@corp.test")

	resp := doJSON(t, ts, http.MethodGet, "/api/chat/voice/transcript", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoleMutationGatedByPermissions(t *testing.T) {
	ts, _ := newTestServer(t)

	empToken := signIn(t, ts, "emp@corp.test")
	resp := doJSON(t, ts, http.MethodPost, "/api/roles", empToken, map[string]string{"name": "Auditor"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "view-only login cannot create roles")

	list := doJSON(t, ts, http.MethodGet, "/api/roles", empToken, nil)
	defer list.Body.Close()
	assert.Equal(t, http.StatusOK, list.StatusCode, "the same login can still list")

	adminToken := signIn(t, ts, "admin@corp.test")
	created := doJSON(t, ts, http.MethodPost, "/api/roles", adminToken, map[string]string{"name": "Auditor"})
	defer created.Body.Close()
	require.Equal(t, http.StatusOK, created.StatusCode)

	var notice roleadmin.Notice
	require.NoError(t, json.NewDecoder(created.Body).Decode(&notice))
	assert.Equal(t, roleadmin.NoticeSuccess, notice.Type)
	assert.Equal(t, "Role created successfully", notice.Text)
}

func TestProjectsUnavailableWithoutDatabase(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signIn(t, ts, "admin@corp.test")

	resp := doJSON(t, ts, http.MethodGet, "/api/projects", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSignOutInvalidatesToken(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signIn(t, ts, "emp@corp.test")

	resp := doJSON(t, ts, http.MethodPost, "/api/signout", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	after := doJSON(t, ts, http.MethodGet, "/api/chat/communication/transcript", token, nil)
	defer after.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, after.StatusCode)
}
