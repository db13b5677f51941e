package roleadmin

import (
	"context"
	"fmt"

	"github.com/clearstack/opsdesk/internal/auth"
	"github.com/clearstack/opsdesk/internal/domain"
	"github.com/clearstack/opsdesk/internal/repository"
)

// Directory is the slice of the database the admin screens use.
type Directory interface {
	GetAllUserLogins(ctx context.Context) ([]domain.UserLogin, error)
	CreateUserLogin(ctx context.Context, login *domain.UserLogin) (*domain.UserLogin, error)
	UpdateUserLoginByEmail(ctx context.Context, email string, update repository.UserLoginUpdate) error
	DeleteUserLoginByEmail(ctx context.Context, email string) error
	UpdateRolePermissions(ctx context.Context, email string, role domain.Role, permissions domain.PermissionMap) error
	CreateRole(ctx context.Context, name string) (*domain.RoleRecord, error)
	UpdateRoleByID(ctx context.Context, id int64, name string) error
	DeleteRoleByID(ctx context.Context, id int64) error
}

// OpsNotifier receives best-effort role administration events. May be nil.
type OpsNotifier interface {
	RoleEvent(event, detail string)
}

// NoticeType discriminates the dismissible banner shown after a CRUD
// action. Chat and permission failures never use this channel.
type NoticeType string

const (
	NoticeSuccess NoticeType = "success"
	NoticeError   NoticeType = "error"
)

type Notice struct {
	Type NoticeType `json:"type"`
	Text string     `json:"text"`
}

func success(text string) Notice { return Notice{Type: NoticeSuccess, Text: text} }
func failure(text string) Notice { return Notice{Type: NoticeError, Text: text} }

// Controls reports which mutating controls render for an identity on the
// role screen. An absent control is a silent omission, not an error.
type Controls struct {
	Add         bool `json:"add"`
	Edit        bool `json:"edit"`
	Permissions bool `json:"permissions"`
	Delete      bool `json:"delete"`
}

// RoleEntry is one row of the role list, distilled from the distinct role
// names across user logins.
type RoleEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// View is the role/permission administration screen's model. Every
// mutating operation re-checks the resolver against the Choose Roles page
// even though an unauthorized identity never sees the control.
type View struct {
	db       Directory
	notifier OpsNotifier
}

func NewView(db Directory, notifier OpsNotifier) *View {
	return &View{db: db, notifier: notifier}
}

func (v *View) Controls(id *domain.Identity) Controls {
	return Controls{
		Add:         auth.HasPermission(id, domain.PageChooseRoles, domain.ActionInsert),
		Edit:        auth.HasPermission(id, domain.PageChooseRoles, domain.ActionUpdate),
		Permissions: auth.HasPermission(id, domain.PageChooseRoles, domain.ActionUpdate),
		Delete:      auth.HasPermission(id, domain.PageChooseRoles, domain.ActionDelete),
	}
}

// ListRoles returns the distinct role names across user logins, in first
// seen order, a blank role counting as Employee.
func (v *View) ListRoles(ctx context.Context, id *domain.Identity) ([]RoleEntry, error) {
	if !auth.CanView(id, domain.PageChooseRoles) {
		return nil, domain.ErrPermissionDenied
	}
	logins, err := v.db.GetAllUserLogins(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	seen := make(map[domain.Role]bool)
	var entries []RoleEntry
	for _, login := range logins {
		role := login.Role
		if role == "" {
			role = domain.RoleEmployee
		}
		if seen[role] {
			continue
		}
		seen[role] = true
		entries = append(entries, RoleEntry{ID: len(entries) + 1, Name: string(role)})
	}
	return entries, nil
}

func (v *View) CreateRole(ctx context.Context, id *domain.Identity, name string) (Notice, error) {
	if !auth.HasPermission(id, domain.PageChooseRoles, domain.ActionInsert) {
		return Notice{}, domain.ErrPermissionDenied
	}
	if _, err := v.db.CreateRole(ctx, name); err != nil {
		return failure("Save failed: " + err.Error()), nil
	}
	v.notifyRole("role created", name)
	return success("Role created successfully"), nil
}

func (v *View) RenameRole(ctx context.Context, id *domain.Identity, roleID int64, name string) (Notice, error) {
	if !auth.HasPermission(id, domain.PageChooseRoles, domain.ActionUpdate) {
		return Notice{}, domain.ErrPermissionDenied
	}
	if err := v.db.UpdateRoleByID(ctx, roleID, name); err != nil {
		return failure("Save failed: " + err.Error()), nil
	}
	v.notifyRole("role renamed", name)
	return success("Role updated successfully"), nil
}

func (v *View) DeleteRole(ctx context.Context, id *domain.Identity, roleID int64) (Notice, error) {
	if !auth.HasPermission(id, domain.PageChooseRoles, domain.ActionDelete) {
		return Notice{}, domain.ErrPermissionDenied
	}
	if err := v.db.DeleteRoleByID(ctx, roleID); err != nil {
		return failure("Delete failed: " + err.Error()), nil
	}
	v.notifyRole("role deleted", fmt.Sprintf("id %d", roleID))
	return success("Role deleted"), nil
}

// SavePermissions writes a role assignment and its permission table for
// one login.
func (v *View) SavePermissions(ctx context.Context, id *domain.Identity, email string, role domain.Role, permissions domain.PermissionMap) (Notice, error) {
	if !auth.HasPermission(id, domain.PageChooseRoles, domain.ActionUpdate) {
		return Notice{}, domain.ErrPermissionDenied
	}
	if err := v.db.UpdateRolePermissions(ctx, email, role, permissions); err != nil {
		return failure("Failed to update permissions: " + err.Error()), nil
	}
	v.notifyRole("permissions updated", email)
	return success("Permissions updated successfully"), nil
}

func (v *View) notifyRole(event, detail string) {
	if v.notifier != nil {
		v.notifier.RoleEvent(event, detail)
	}
}
