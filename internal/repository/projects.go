package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clearstack/opsdesk/internal/domain"
)

func (r *Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, owner_email, status, budget, created_at, updated_at
		FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerEmail,
			&p.Status, &p.Budget, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *Repo) GetProjectByID(ctx context.Context, id int64) (*domain.Project, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var p domain.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, owner_email, status, budget, created_at, updated_at
		FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.OwnerEmail,
			&p.Status, &p.Budget, &p.CreatedAt, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

func (r *Repo) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	created := *p
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (name, description, owner_email, status, budget)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.OwnerEmail, p.Status, p.Budget).
		Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &created, nil
}

func (r *Repo) UpdateProject(ctx context.Context, p *domain.Project) error {
	if err := r.ready(); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET name = $2, description = $3, owner_email = $4,
			status = $5, budget = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.OwnerEmail, p.Status, p.Budget)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *Repo) DeleteProject(ctx context.Context, id int64) error {
	if err := r.ready(); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
