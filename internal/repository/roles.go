package repository

import (
	"context"
	"fmt"

	"github.com/clearstack/opsdesk/internal/domain"
)

func (r *Repo) ListRoles(ctx context.Context) ([]domain.RoleRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.RoleRecord
	for rows.Next() {
		var rec domain.RoleRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, rec)
	}
	return roles, rows.Err()
}

func (r *Repo) CreateRole(ctx context.Context, name string) (*domain.RoleRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var rec domain.RoleRecord
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = excluded.name
		RETURNING id, name, created_at`, name).
		Scan(&rec.ID, &rec.Name, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return &rec, nil
}

func (r *Repo) UpdateRoleByID(ctx context.Context, id int64, name string) error {
	if err := r.ready(); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (r *Repo) DeleteRoleByID(ctx context.Context, id int64) error {
	if err := r.ready(); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}
