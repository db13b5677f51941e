package roleadmin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearstack/opsdesk/internal/domain"
)

func TestEditorSeedsEveryPage(t *testing.T) {
	e := NewPermissionEditor(nil)
	m := e.Map()
	require.Len(t, m, len(domain.Pages))
	for _, page := range domain.Pages {
		assert.Equal(t, domain.ActionSet{}, m[page])
	}
}

func TestEditorToggleKeepsAllConsistent(t *testing.T) {
	e := NewPermissionEditor(nil)
	page := domain.PageDashboard

	for _, action := range []domain.Action{
		domain.ActionView, domain.ActionInsert, domain.ActionUpdate, domain.ActionDelete,
	} {
		e.Toggle(page, action)
	}
	assert.True(t, e.Checked(page, domain.ActionAll), "All lights up when every verb is checked")

	e.Toggle(page, domain.ActionInsert)
	assert.False(t, e.Checked(page, domain.ActionAll))
	assert.True(t, e.Checked(page, domain.ActionView))

	e.Toggle(page, domain.ActionAll)
	for _, action := range domain.Actions {
		assert.True(t, e.Checked(page, action))
	}
	e.Toggle(page, domain.ActionAll)
	for _, action := range domain.Actions {
		assert.False(t, e.Checked(page, action), "unchecking All clears %s", action)
	}
}

func TestEditorOverlaysBase(t *testing.T) {
	base := domain.PermissionMap{domain.PageFeedback: {View: true}}
	e := NewPermissionEditor(base)
	assert.True(t, e.Checked(domain.PageFeedback, domain.ActionView))
	assert.False(t, e.Checked(domain.PageFeedback, domain.ActionInsert))

	e.Toggle(domain.PageFeedback, domain.ActionView)
	assert.True(t, base[domain.PageFeedback].View, "editing never mutates the source map")
}
