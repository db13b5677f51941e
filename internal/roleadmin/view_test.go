package roleadmin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearstack/opsdesk/internal/domain"
	"github.com/clearstack/opsdesk/internal/repository"
)

type fakeDirectory struct {
	logins []domain.UserLogin
	fail   error

	createdRoles []string
	renamed      map[int64]string
	deletedRoles []int64
	permWrites   map[string]domain.PermissionMap
}

func newFakeDirectory(logins ...domain.UserLogin) *fakeDirectory {
	return &fakeDirectory{
		logins:     logins,
		renamed:    make(map[int64]string),
		permWrites: make(map[string]domain.PermissionMap),
	}
}

func (f *fakeDirectory) GetAllUserLogins(context.Context) ([]domain.UserLogin, error) {
	return f.logins, f.fail
}

func (f *fakeDirectory) CreateUserLogin(_ context.Context, login *domain.UserLogin) (*domain.UserLogin, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.logins = append(f.logins, *login)
	return login, nil
}

func (f *fakeDirectory) UpdateUserLoginByEmail(_ context.Context, _ string, _ repository.UserLoginUpdate) error {
	return f.fail
}

func (f *fakeDirectory) DeleteUserLoginByEmail(_ context.Context, _ string) error {
	return f.fail
}

func (f *fakeDirectory) UpdateRolePermissions(_ context.Context, email string, _ domain.Role, perms domain.PermissionMap) error {
	if f.fail != nil {
		return f.fail
	}
	f.permWrites[email] = perms
	return nil
}

func (f *fakeDirectory) CreateRole(_ context.Context, name string) (*domain.RoleRecord, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.createdRoles = append(f.createdRoles, name)
	return &domain.RoleRecord{ID: int64(len(f.createdRoles)), Name: name}, nil
}

func (f *fakeDirectory) UpdateRoleByID(_ context.Context, id int64, name string) error {
	if f.fail != nil {
		return f.fail
	}
	f.renamed[id] = name
	return nil
}

func (f *fakeDirectory) DeleteRoleByID(_ context.Context, id int64) error {
	if f.fail != nil {
		return f.fail
	}
	f.deletedRoles = append(f.deletedRoles, id)
	return nil
}

func viewer() *domain.Identity {
	return &domain.Identity{
		Email: "viewer@corp.test",
		Role:  domain.RoleEmployee,
		Permissions: domain.PermissionMap{
			domain.PageChooseRoles: {View: true},
		},
	}
}

func editor() *domain.Identity {
	return &domain.Identity{
		Email: "editor@corp.test",
		Role:  domain.RoleManager,
		Permissions: domain.PermissionMap{
			domain.PageChooseRoles: {All: true, View: true, Insert: true, Update: true, Delete: true},
		},
	}
}

func TestControlsFollowPermissions(t *testing.T) {
	v := NewView(newFakeDirectory(), nil)

	assert.Equal(t, Controls{}, v.Controls(viewer()), "view-only identity gets no mutating controls")
	assert.Equal(t, Controls{Add: true, Edit: true, Permissions: true, Delete: true}, v.Controls(editor()))
	assert.Equal(t, Controls{Add: true, Edit: true, Permissions: true, Delete: true},
		v.Controls(&domain.Identity{Role: domain.RoleAdmin}))
}

func TestListRolesDistinctFirstSeen(t *testing.T) {
	dir := newFakeDirectory(
		domain.UserLogin{Email: "a@corp.test", Role: domain.RoleManager},
		domain.UserLogin{Email: "b@corp.test", Role: ""},
		domain.UserLogin{Email: "c@corp.test", Role: domain.RoleManager},
		domain.UserLogin{Email: "d@corp.test", Role: domain.RoleAdmin},
	)
	v := NewView(dir, nil)

	entries, err := v.ListRoles(context.Background(), viewer())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []RoleEntry{
		{ID: 1, Name: "Manager"},
		{ID: 2, Name: "Employee"},
		{ID: 3, Name: "Admin"},
	}, entries)
}

func TestListRolesDeniedWithoutView(t *testing.T) {
	v := NewView(newFakeDirectory(), nil)
	_, err := v.ListRoles(context.Background(), domain.Guest())
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestMutationsGatedPerAction(t *testing.T) {
	dir := newFakeDirectory()
	v := NewView(dir, nil)
	ctx := context.Background()

	// A view-only identity can list but not mutate, even though the UI
	// would never render the control.
	_, err := v.CreateRole(ctx, viewer(), "Auditor")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = v.RenameRole(ctx, viewer(), 1, "Auditor")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = v.DeleteRole(ctx, viewer(), 1)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = v.SavePermissions(ctx, viewer(), "a@corp.test", domain.RoleEmployee, nil)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.Empty(t, dir.createdRoles)

	notice, err := v.CreateRole(ctx, editor(), "Auditor")
	require.NoError(t, err)
	assert.Equal(t, NoticeSuccess, notice.Type)
	assert.Equal(t, "Role created successfully", notice.Text)
	assert.Equal(t, []string{"Auditor"}, dir.createdRoles)
}

func TestMutationFailureBecomesErrorNotice(t *testing.T) {
	dir := newFakeDirectory()
	dir.fail = errors.New("duplicate key")
	v := NewView(dir, nil)

	notice, err := v.CreateRole(context.Background(), editor(), "Auditor")
	require.NoError(t, err, "backend failures surface as notices, not errors")
	assert.Equal(t, NoticeError, notice.Type)
	assert.Equal(t, "Save failed: duplicate key", notice.Text)

	notice, err = v.SavePermissions(context.Background(), editor(), "a@corp.test", domain.RoleEmployee, nil)
	require.NoError(t, err)
	assert.Equal(t, "Failed to update permissions: duplicate key", notice.Text)
}

func TestSavePermissionsWritesThrough(t *testing.T) {
	dir := newFakeDirectory()
	v := NewView(dir, nil)
	perms := domain.PermissionMap{domain.PageDashboard: {View: true}}

	notice, err := v.SavePermissions(context.Background(), editor(), "a@corp.test", domain.RoleManager, perms)
	require.NoError(t, err)
	assert.Equal(t, "Permissions updated successfully", notice.Text)
	assert.Equal(t, perms, dir.permWrites["a@corp.test"])
}

func TestListUserLoginsHidesPasswords(t *testing.T) {
	dir := newFakeDirectory(domain.UserLogin{
		Email: "a@corp.test", Pass: "secret", Role: domain.RoleEmployee,
	})
	v := NewView(dir, nil)

	id := &domain.Identity{
		Role: domain.RoleEmployee,
		Permissions: domain.PermissionMap{
			domain.PageCreateMails: {View: true},
		},
	}
	logins, err := v.ListUserLogins(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, logins, 1)
	assert.Empty(t, logins[0].Pass)
}

func TestCreateUserLoginDefaultsRole(t *testing.T) {
	dir := newFakeDirectory()
	v := NewView(dir, nil)

	id := &domain.Identity{
		Role: domain.RoleManager,
		Permissions: domain.PermissionMap{
			domain.PageCreateMails: {Insert: true},
		},
	}
	notice, err := v.CreateUserLogin(context.Background(), id, &domain.UserLogin{Email: "new@corp.test"})
	require.NoError(t, err)
	assert.Equal(t, NoticeSuccess, notice.Type)
	require.Len(t, dir.logins, 1)
	assert.Equal(t, domain.RoleEmployee, dir.logins[0].Role)
}
