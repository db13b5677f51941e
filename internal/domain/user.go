package domain

import "time"

// UserLogin is one row of the user_perms table: a console login with its
// assigned role and stored permission table.
type UserLogin struct {
	ID          int64
	Email       string
	Name        string
	Pass        string
	Role        Role
	Permissions PermissionMap
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleRecord is one row of the roles table.
type RoleRecord struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// LoginLogEntry is one employee_login row. LogoutTime stays nil until the
// matching sign-out stamps it.
type LoginLogEntry struct {
	ID         int64
	Email      string
	Name       string
	LoginTime  time.Time
	LogoutTime *time.Time
}
