package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearstack/opsdesk/internal/domain"
)

func TestHasPermissionAdminBypassesMap(t *testing.T) {
	admin := &domain.Identity{Email: "root@corp.test", Role: domain.RoleAdmin}
	for _, page := range domain.Pages {
		for _, action := range domain.Actions {
			assert.True(t, HasPermission(admin, page, action))
		}
	}
}

func TestHasPermissionDeniesByDefault(t *testing.T) {
	tests := []struct {
		name string
		id   *domain.Identity
	}{
		{"nil identity", nil},
		{"nil map", &domain.Identity{Role: domain.RoleEmployee}},
		{"empty map", &domain.Identity{Role: domain.RoleEmployee, Permissions: domain.PermissionMap{}}},
		{
			"other page granted",
			&domain.Identity{
				Role:        domain.RoleEmployee,
				Permissions: domain.PermissionMap{domain.PageDashboard: {All: true, View: true, Insert: true, Update: true, Delete: true}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, HasPermission(tt.id, domain.PageChooseRoles, domain.ActionView))
		})
	}
}

func TestHasPermissionGrantedAction(t *testing.T) {
	id := &domain.Identity{
		Role: domain.RoleManager,
		Permissions: domain.PermissionMap{
			domain.PageChooseRoles: {View: true, Update: true},
		},
	}
	assert.True(t, HasPermission(id, domain.PageChooseRoles, domain.ActionView))
	assert.True(t, HasPermission(id, domain.PageChooseRoles, domain.ActionUpdate))
	assert.False(t, HasPermission(id, domain.PageChooseRoles, domain.ActionInsert))
	assert.False(t, HasPermission(id, domain.PageChooseRoles, domain.ActionDelete))
	assert.True(t, CanView(id, domain.PageChooseRoles))
	assert.False(t, CanView(id, domain.PageCreateMails))
}

func TestHasPermissionAllAuthorizesAnyAction(t *testing.T) {
	id := &domain.Identity{
		Role: domain.RoleManager,
		Permissions: domain.PermissionMap{
			domain.PageOverview: {All: true},
		},
	}
	for _, action := range domain.Actions {
		assert.True(t, HasPermission(id, domain.PageOverview, action))
	}
	assert.True(t, HasPermission(id, domain.PageOverview, "Export"),
		"All authorizes actions outside the fixed vocabulary")
	assert.False(t, HasPermission(id, domain.PageDashboard, "Export"))
}

func TestParsePermissionsDropsUnknownPages(t *testing.T) {
	raw := []byte(`{
		"Dashboard": {"View": true},
		"Secret Console": {"All": true},
		"Choose Roles": {"View": true, "Update": true, "Export": true}
	}`)
	perms, err := ParsePermissions(raw)
	require.NoError(t, err)

	assert.Len(t, perms, 2)
	assert.NotContains(t, perms, domain.Page("Secret Console"))
	assert.True(t, perms[domain.PageDashboard].View)
	assert.True(t, perms[domain.PageChooseRoles].Update)
	assert.False(t, perms[domain.PageChooseRoles].Insert)
}

func TestParsePermissionsAllExpands(t *testing.T) {
	perms, err := ParsePermissions([]byte(`{"Overview": {"All": true}}`))
	require.NoError(t, err)
	set := perms[domain.PageOverview]
	assert.Equal(t, domain.ActionSet{All: true, View: true, Insert: true, Update: true, Delete: true}, set)
}

func TestParsePermissionsEmptyAndMalformed(t *testing.T) {
	perms, err := ParsePermissions(nil)
	require.NoError(t, err)
	assert.NotNil(t, perms)
	assert.Empty(t, perms)

	_, err = ParsePermissions([]byte(`{"Dashboard": "yes"}`))
	assert.Error(t, err)
}

func TestEncodeParseRoundTrip(t *testing.T) {
	in := domain.PermissionMap{
		domain.PageFeedback: {View: true, Insert: true},
	}
	raw, err := EncodePermissions(in)
	require.NoError(t, err)
	out, err := ParsePermissions(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
