package domain

// Role is the coarse actor classification. Admin bypasses the permission
// map entirely; everything else is resolved through it.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
	RoleGuest    Role = "Guest"
)

// Identity is the signed-in actor: role plus resolved permission map,
// built once at sign-in and held until sign-out.
type Identity struct {
	Email       string
	Name        string
	Role        Role
	Permissions PermissionMap
}

// Guest is the identity used before sign-in.
func Guest() *Identity {
	return &Identity{Role: RoleGuest, Permissions: PermissionMap{}}
}
