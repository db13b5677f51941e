package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/rs/cors"

	"github.com/clearstack/opsdesk/internal/auth"
	"github.com/clearstack/opsdesk/internal/chat"
	"github.com/clearstack/opsdesk/internal/chatstore"
	"github.com/clearstack/opsdesk/internal/config"
	"github.com/clearstack/opsdesk/internal/domain"
	"github.com/clearstack/opsdesk/internal/notify"
	"github.com/clearstack/opsdesk/internal/repository"
	"github.com/clearstack/opsdesk/internal/roleadmin"
)

const sessionCookie = "opsdesk_token"

// Server is the console's HTTP surface. Chat controllers are built lazily
// per signed-in session and torn down at sign-out.
type Server struct {
	cfg      *config.Config
	auth     *auth.Manager
	view     *roleadmin.View
	store    *chatstore.Store
	remote   chat.Remote
	repo     *repository.Repo
	notifier *notify.Notifier

	mu       sync.Mutex
	surfaces map[string]map[string]*chat.Controller
}

// Deps contains everything required to construct a Server.
type Deps struct {
	Cfg      *config.Config
	Auth     *auth.Manager
	View     *roleadmin.View
	Store    *chatstore.Store
	Remote   chat.Remote
	Repo     *repository.Repo
	Notifier *notify.Notifier
}

func NewServer(deps Deps) *Server {
	return &Server{
		cfg:      deps.Cfg,
		auth:     deps.Auth,
		view:     deps.View,
		store:    deps.Store,
		remote:   deps.Remote,
		repo:     deps.Repo,
		notifier: deps.Notifier,
		surfaces: make(map[string]map[string]*chat.Controller),
	}
}

// Handler builds the routed, CORS-wrapped handler with the full
// middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/signin", s.handleSignIn)
	mux.HandleFunc("POST /api/signout", s.handleSignOut)

	mux.HandleFunc("GET /api/chat/{surface}/transcript", s.handleTranscript)
	mux.HandleFunc("POST /api/chat/{surface}/message", s.handleSendMessage)
	mux.HandleFunc("POST /api/chat/{surface}/new", s.handleNewSession)
	mux.HandleFunc("GET /api/chat/{surface}/history", s.handleHistory)
	mux.HandleFunc("POST /api/chat/{surface}/history/{id}/load", s.handleLoadSession)
	mux.HandleFunc("DELETE /api/chat/{surface}/history/{id}", s.handleDeleteSession)

	mux.HandleFunc("GET /api/roles", s.handleListRoles)
	mux.HandleFunc("GET /api/roles/catalog", s.handleRoleCatalog)
	mux.HandleFunc("GET /api/roles/controls", s.handleRoleControls)
	mux.HandleFunc("POST /api/roles", s.handleCreateRole)
	mux.HandleFunc("PUT /api/roles/{id}", s.handleRenameRole)
	mux.HandleFunc("DELETE /api/roles/{id}", s.handleDeleteRole)
	mux.HandleFunc("POST /api/roles/permissions", s.handleSavePermissions)

	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("POST /api/users", s.handleCreateUser)
	mux.HandleFunc("PUT /api/users/{email}", s.handleUpdateUser)
	mux.HandleFunc("DELETE /api/users/{email}", s.handleDeleteUser)

	mux.HandleFunc("GET /api/logins", s.handleLoginLog)

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)

	handler := Chain(mux,
		Recover(),
		Logging(),
		IdentityLoader(s.auth),
		RateLimit(),
	)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(handler)
}

// controller returns the session's controller for a surface, building and
// starting it on first use.
func (s *Server) controller(r *http.Request, surface string) (*chat.Controller, error) {
	token := GetToken(r.Context())
	if token == "" {
		return nil, domain.ErrNotSignedIn
	}
	id := GetIdentity(r.Context())

	s.mu.Lock()
	byToken, ok := s.surfaces[token]
	if !ok {
		byToken = make(map[string]*chat.Controller)
		s.surfaces[token] = byToken
	}
	ctrl, ok := byToken[surface]
	s.mu.Unlock()
	if ok {
		return ctrl, nil
	}

	switch surface {
	case domain.ChatTypeCommunication:
		ctrl = chat.NewCommunication(s.store, s.remote, id)
	case domain.ChatTypeDual:
		ctrl = chat.NewDual(s.store, s.remote, id)
	case domain.ChatTypeProject:
		ctrl = chat.NewProject(s.store, s.remote, id, "", "")
	default:
		return nil, fmt.Errorf("unknown chat surface %q", surface)
	}
	ctrl.Start(r.Context())

	s.mu.Lock()
	if existing, ok := byToken[surface]; ok {
		ctrl.Close()
		ctrl = existing
	} else {
		byToken[surface] = ctrl
	}
	s.mu.Unlock()
	return ctrl, nil
}

func (s *Server) dropSurfaces(token string) {
	s.mu.Lock()
	byToken := s.surfaces[token]
	delete(s.surfaces, token)
	s.mu.Unlock()
	for _, ctrl := range byToken {
		ctrl.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
