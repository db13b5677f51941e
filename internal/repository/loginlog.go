package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clearstack/opsdesk/internal/domain"
)

// LogEmployeeLogin opens a login log row; LogEmployeeLogout stamps the
// most recent open row for the email.

func (r *Repo) LogEmployeeLogin(ctx context.Context, email, name string) error {
	if err := r.ready(); err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO employee_login (email, name, login_time, logout_time)
		VALUES ($1, $2, now(), NULL)`, email, name); err != nil {
		return fmt.Errorf("log employee login: %w", err)
	}
	return nil
}

func (r *Repo) LogEmployeeLogout(ctx context.Context, email string) error {
	if err := r.ready(); err != nil {
		return err
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM employee_login
		WHERE email = $1 AND logout_time IS NULL
		ORDER BY login_time DESC LIMIT 1`, email).Scan(&id)
	if err == pgx.ErrNoRows {
		return domain.ErrNoActiveLogin
	}
	if err != nil {
		return fmt.Errorf("find open login: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `
		UPDATE employee_login SET logout_time = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("log employee logout: %w", err)
	}
	return nil
}

func (r *Repo) ListLoginLog(ctx context.Context, limit int) ([]domain.LoginLogEntry, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, name, login_time, logout_time
		FROM employee_login ORDER BY login_time DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list login log: %w", err)
	}
	defer rows.Close()

	var entries []domain.LoginLogEntry
	for rows.Next() {
		var e domain.LoginLogEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.Name, &e.LoginTime, &e.LogoutTime); err != nil {
			return nil, fmt.Errorf("scan login log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
