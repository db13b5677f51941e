package roleadmin

import (
	"context"
	"fmt"

	"github.com/clearstack/opsdesk/internal/auth"
	"github.com/clearstack/opsdesk/internal/domain"
	"github.com/clearstack/opsdesk/internal/repository"
)

// User-login administration backs the Create Mails screen. Same gating
// pattern as roles, against its own page.

func (v *View) UserControls(id *domain.Identity) Controls {
	return Controls{
		Add:         auth.HasPermission(id, domain.PageCreateMails, domain.ActionInsert),
		Edit:        auth.HasPermission(id, domain.PageCreateMails, domain.ActionUpdate),
		Permissions: auth.HasPermission(id, domain.PageChooseRoles, domain.ActionUpdate),
		Delete:      auth.HasPermission(id, domain.PageCreateMails, domain.ActionDelete),
	}
}

func (v *View) ListUserLogins(ctx context.Context, id *domain.Identity) ([]domain.UserLogin, error) {
	if !auth.CanView(id, domain.PageCreateMails) {
		return nil, domain.ErrPermissionDenied
	}
	logins, err := v.db.GetAllUserLogins(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user logins: %w", err)
	}
	// Stored passwords stay server-side.
	for i := range logins {
		logins[i].Pass = ""
	}
	return logins, nil
}

func (v *View) CreateUserLogin(ctx context.Context, id *domain.Identity, login *domain.UserLogin) (Notice, error) {
	if !auth.HasPermission(id, domain.PageCreateMails, domain.ActionInsert) {
		return Notice{}, domain.ErrPermissionDenied
	}
	if login.Role == "" {
		login.Role = domain.RoleEmployee
	}
	if _, err := v.db.CreateUserLogin(ctx, login); err != nil {
		return failure("Save failed: " + err.Error()), nil
	}
	v.notifyRole("user login created", login.Email)
	return success("User created successfully"), nil
}

func (v *View) UpdateUserLogin(ctx context.Context, id *domain.Identity, email string, update repository.UserLoginUpdate) (Notice, error) {
	if !auth.HasPermission(id, domain.PageCreateMails, domain.ActionUpdate) {
		return Notice{}, domain.ErrPermissionDenied
	}
	if err := v.db.UpdateUserLoginByEmail(ctx, email, update); err != nil {
		return failure("Save failed: " + err.Error()), nil
	}
	v.notifyRole("user login updated", email)
	return success("User updated successfully"), nil
}

func (v *View) DeleteUserLogin(ctx context.Context, id *domain.Identity, email string) (Notice, error) {
	if !auth.HasPermission(id, domain.PageCreateMails, domain.ActionDelete) {
		return Notice{}, domain.ErrPermissionDenied
	}
	if err := v.db.DeleteUserLoginByEmail(ctx, email); err != nil {
		return failure("Delete failed: " + err.Error()), nil
	}
	v.notifyRole("user login deleted", email)
	return success("User deleted"), nil
}
