package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clearstack/opsdesk/internal/auth"
	"github.com/clearstack/opsdesk/internal/domain"
	"github.com/clearstack/opsdesk/internal/repository"
	"github.com/clearstack/opsdesk/internal/roleadmin"
)

func (s *Server) adminError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, domain.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "directory unavailable")
	default:
		s.notifier.Error(err, r.URL.Path)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleRoleControls(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	writeJSON(w, http.StatusOK, map[string]roleadmin.Controls{
		"roles": s.view.Controls(id),
		"users": s.view.UserControls(id),
	})
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	entries, err := s.view.ListRoles(r.Context(), GetIdentity(r.Context()))
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	if entries == nil {
		entries = []roleadmin.RoleEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": entries})
}

// handleRoleCatalog serves the persisted roles table, as opposed to the
// role names distilled from user logins.
func (s *Server) handleRoleCatalog(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	if !auth.CanView(id, domain.PageChooseRoles) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	records, err := s.repo.ListRoles(r.Context())
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	type roleRecord struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]roleRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, roleRecord{ID: rec.ID, Name: rec.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	notice, err := s.view.CreateRole(r.Context(), GetIdentity(r.Context()), req.Name)
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

func (s *Server) handleRenameRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	notice, err := s.view.RenameRole(r.Context(), GetIdentity(r.Context()), roleID, req.Name)
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	notice, err := s.view.DeleteRole(r.Context(), GetIdentity(r.Context()), roleID)
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

func (s *Server) handleSavePermissions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string          `json:"email"`
		Role        domain.Role     `json:"role"`
		Permissions json.RawMessage `json:"permissions"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	perms, err := auth.ParsePermissions(req.Permissions)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid permission table")
		return
	}
	notice, err := s.view.SavePermissions(r.Context(), GetIdentity(r.Context()), req.Email, req.Role, perms)
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

type userPayload struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Pass  string      `json:"pass,omitempty"`
	Role  domain.Role `json:"role"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	logins, err := s.view.ListUserLogins(r.Context(), GetIdentity(r.Context()))
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	out := make([]userPayload, 0, len(logins))
	for _, l := range logins {
		out = append(out, userPayload{Email: l.Email, Name: l.Name, Role: l.Role})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userPayload
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	login := &domain.UserLogin{
		Email: req.Email,
		Name:  req.Name,
		Pass:  req.Pass,
		Role:  req.Role,
	}
	notice, err := s.view.CreateUserLogin(r.Context(), GetIdentity(r.Context()), login)
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name *string      `json:"name"`
		Pass *string      `json:"pass"`
		Role *domain.Role `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	update := repository.UserLoginUpdate{Name: req.Name, Pass: req.Pass, Role: req.Role}
	notice, err := s.view.UpdateUserLogin(r.Context(), GetIdentity(r.Context()), r.PathValue("email"), update)
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	notice, err := s.view.DeleteUserLogin(r.Context(), GetIdentity(r.Context()), r.PathValue("email"))
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

const loginLogLimit = 200

// handleLoginLog serves recent sign-in/sign-out rows for the overview
// screen.
func (s *Server) handleLoginLog(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	if !auth.CanView(id, domain.PageOverview) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	entries, err := s.repo.ListLoginLog(r.Context(), loginLogLimit)
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	type loginRow struct {
		Email      string     `json:"email"`
		Name       string     `json:"name"`
		LoginTime  time.Time  `json:"loginTime"`
		LogoutTime *time.Time `json:"logoutTime,omitempty"`
	}
	out := make([]loginRow, 0, len(entries))
	for _, e := range entries {
		out = append(out, loginRow{
			Email:      e.Email,
			Name:       e.Name,
			LoginTime:  e.LoginTime,
			LogoutTime: e.LogoutTime,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"logins": out})
}

type projectPayload struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerEmail  string `json:"ownerEmail"`
	Status      string `json:"status"`
	Budget      string `json:"budget"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	if !auth.CanView(id, domain.PageProjectDescription) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	projects, err := s.repo.ListProjects(r.Context())
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	out := make([]projectPayload, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectResponse(&p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": out})
}

func projectResponse(p *domain.Project) projectPayload {
	return projectPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerEmail:  p.OwnerEmail,
		Status:      p.Status,
		Budget:      p.Budget.String(),
	}
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	if !auth.CanView(id, domain.PageProjectDescription) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	projectID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	p, err := s.repo.GetProjectByID(r.Context(), projectID)
	if errors.Is(err, domain.ErrProjectNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse(p))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	if !auth.HasPermission(id, domain.PageProjectForm, domain.ActionUpdate) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	projectID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req projectPayload
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	budget := decimal.Zero
	if req.Budget != "" {
		parsed, err := decimal.NewFromString(req.Budget)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid budget")
			return
		}
		budget = parsed
	}
	p := &domain.Project{
		ID:          projectID,
		Name:        req.Name,
		Description: req.Description,
		OwnerEmail:  req.OwnerEmail,
		Status:      req.Status,
		Budget:      budget,
	}
	if err := s.repo.UpdateProject(r.Context(), p); err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse(p))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	if !auth.HasPermission(id, domain.PageProjectForm, domain.ActionDelete) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	projectID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	if err := s.repo.DeleteProject(r.Context(), projectID); err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	if !auth.HasPermission(id, domain.PageProjectForm, domain.ActionInsert) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	var req projectPayload
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	budget := decimal.Zero
	if req.Budget != "" {
		parsed, err := decimal.NewFromString(req.Budget)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid budget")
			return
		}
		budget = parsed
	}
	created, err := s.repo.CreateProject(r.Context(), &domain.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerEmail:  req.OwnerEmail,
		Status:      req.Status,
		Budget:      budget,
	})
	if err != nil {
		s.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse(created))
}
