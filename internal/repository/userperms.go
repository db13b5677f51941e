package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clearstack/opsdesk/internal/auth"
	"github.com/clearstack/opsdesk/internal/domain"
)

// UserLoginUpdate carries a partial update for a user_perms row; nil
// fields are left untouched.
type UserLoginUpdate struct {
	Name *string
	Pass *string
	Role *domain.Role
}

func (r *Repo) GetAllUserLogins(ctx context.Context) ([]domain.UserLogin, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, name, pass, role, permission_roles, created_at, updated_at
		FROM user_perms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list user logins: %w", err)
	}
	defer rows.Close()

	var logins []domain.UserLogin
	for rows.Next() {
		login, err := scanUserLogin(rows)
		if err != nil {
			return nil, err
		}
		logins = append(logins, *login)
	}
	return logins, rows.Err()
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (*domain.UserLogin, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, pass, role, permission_roles, created_at, updated_at
		FROM user_perms WHERE email = $1`, email)
	login, err := scanUserLogin(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return login, nil
}

func (r *Repo) CreateUserLogin(ctx context.Context, login *domain.UserLogin) (*domain.UserLogin, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	raw, err := auth.EncodePermissions(login.Permissions)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_perms (email, name, pass, role, permission_roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, name, pass, role, permission_roles, created_at, updated_at`,
		login.Email, login.Name, login.Pass, string(login.Role), raw)
	created, err := scanUserLogin(row)
	if err != nil {
		return nil, fmt.Errorf("create user login: %w", err)
	}
	return created, nil
}

func (r *Repo) UpdateUserLoginByEmail(ctx context.Context, email string, update UserLoginUpdate) error {
	if err := r.ready(); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE user_perms SET
			name = COALESCE($2, name),
			pass = COALESCE($3, pass),
			role = COALESCE($4, role),
			updated_at = now()
		WHERE email = $1`,
		email, update.Name, update.Pass, (*string)(update.Role))
	if err != nil {
		return fmt.Errorf("update user login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *Repo) DeleteUserLoginByEmail(ctx context.Context, email string) error {
	if err := r.ready(); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_perms WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("delete user login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateRolePermissions writes a role assignment together with its
// permission table in one statement, the shape the permission editor
// saves.
func (r *Repo) UpdateRolePermissions(ctx context.Context, email string, role domain.Role, permissions domain.PermissionMap) error {
	if err := r.ready(); err != nil {
		return err
	}
	raw, err := auth.EncodePermissions(permissions)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE user_perms SET role = $2, permission_roles = $3, updated_at = now()
		WHERE email = $1`,
		email, string(role), raw)
	if err != nil {
		return fmt.Errorf("update role permissions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// scanUserLogin validates the permission document at the database
// boundary: unknown pages and actions never reach the typed map.
func scanUserLogin(row pgx.Row) (*domain.UserLogin, error) {
	var login domain.UserLogin
	var role string
	var rawPerms []byte
	if err := row.Scan(&login.ID, &login.Email, &login.Name, &login.Pass,
		&role, &rawPerms, &login.CreatedAt, &login.UpdatedAt); err != nil {
		return nil, err
	}
	login.Role = domain.Role(role)

	perms, err := auth.ParsePermissions(rawPerms)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", login.Email, err)
	}
	login.Permissions = perms
	return &login, nil
}
