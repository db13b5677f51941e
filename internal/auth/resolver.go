package auth

import (
	"encoding/json"
	"fmt"

	"github.com/clearstack/opsdesk/internal/domain"
)

// HasPermission reports whether the identity may perform action on page.
// Admin bypasses the map entirely; a missing page entry, a nil map and an
// unknown action all resolve to false. Pure, safe to call on every render.
func HasPermission(id *domain.Identity, page domain.Page, action domain.Action) bool {
	if id == nil {
		return false
	}
	if id.Role == domain.RoleAdmin {
		return true
	}
	if id.Permissions == nil {
		return false
	}
	set, ok := id.Permissions[page]
	if !ok {
		return false
	}
	return set.Get(action)
}

// CanView is HasPermission with the default View action.
func CanView(id *domain.Identity, page domain.Page) bool {
	return HasPermission(id, page, domain.ActionView)
}

// ParsePermissions validates a raw permission_roles JSON document into the
// typed map. Unknown pages and actions are dropped, the All flag is
// re-derived through ActionSet.Set, and an empty document yields an empty
// map rather than nil.
func ParsePermissions(raw []byte) (domain.PermissionMap, error) {
	out := domain.PermissionMap{}
	if len(raw) == 0 {
		return out, nil
	}

	var doc map[string]map[string]bool
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse permissions: %w", err)
	}

	known := make(map[domain.Page]bool, len(domain.Pages))
	for _, p := range domain.Pages {
		known[p] = true
	}

	for rawPage, rawActions := range doc {
		page := domain.Page(rawPage)
		if !known[page] {
			continue
		}
		var set domain.ActionSet
		if rawActions[string(domain.ActionAll)] {
			set.Set(domain.ActionAll, true)
		} else {
			for _, action := range domain.Actions {
				if action == domain.ActionAll {
					continue
				}
				if rawActions[string(action)] {
					set.Set(action, true)
				}
			}
		}
		out[page] = set
	}
	return out, nil
}

// EncodePermissions serializes the typed map back to the permission_roles
// column format.
func EncodePermissions(m domain.PermissionMap) ([]byte, error) {
	if m == nil {
		m = domain.PermissionMap{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode permissions: %w", err)
	}
	return raw, nil
}
