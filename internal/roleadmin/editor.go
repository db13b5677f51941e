package roleadmin

import "github.com/clearstack/opsdesk/internal/domain"

// PermissionEditor models the permission grid in the assignment modal:
// every page crossed with the fixed action verbs, toggled one checkbox at
// a time. ActionSet.Set keeps the All column consistent on every toggle.
type PermissionEditor struct {
	perms domain.PermissionMap
}

// NewPermissionEditor seeds the grid from an existing permission map, or
// all-false when starting fresh.
func NewPermissionEditor(base domain.PermissionMap) *PermissionEditor {
	perms := domain.PermissionMap{}
	for _, page := range domain.Pages {
		perms[page] = domain.ActionSet{}
	}
	for page, set := range base {
		perms[page] = set
	}
	return &PermissionEditor{perms: perms}
}

// Toggle flips one checkbox.
func (e *PermissionEditor) Toggle(page domain.Page, action domain.Action) {
	set := e.perms[page]
	set.Set(action, !set.Get(action))
	e.perms[page] = set
}

// Checked reports the rendered state of one checkbox.
func (e *PermissionEditor) Checked(page domain.Page, action domain.Action) bool {
	if action == domain.ActionAll {
		return e.perms[page].All
	}
	return e.perms[page].Get(action)
}

// Map returns the grid as a permission map ready to save.
func (e *PermissionEditor) Map() domain.PermissionMap {
	return e.perms.Clone()
}
