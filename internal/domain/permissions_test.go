package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionSetAllShortCircuits(t *testing.T) {
	set := ActionSet{All: true}
	for _, action := range Actions {
		assert.True(t, set.Get(action), "All should authorize %s", action)
	}
}

func TestActionSetUnknownActionIsFalse(t *testing.T) {
	set := ActionSet{View: true, Insert: true, Update: true, Delete: true, All: true}
	assert.False(t, ActionSet{}.Get("Export"))
	assert.True(t, set.Get("View"))
	assert.False(t, ActionSet{View: true}.Get("Export"))
}

func TestActionSetSetAllMirrors(t *testing.T) {
	var set ActionSet
	set.Set(ActionAll, true)
	assert.Equal(t, ActionSet{All: true, View: true, Insert: true, Update: true, Delete: true}, set)

	set.Set(ActionAll, false)
	assert.Equal(t, ActionSet{}, set)
}

func TestActionSetAllRederivedOnEachMutation(t *testing.T) {
	var set ActionSet
	set.Set(ActionView, true)
	set.Set(ActionInsert, true)
	set.Set(ActionUpdate, true)
	assert.False(t, set.All)

	set.Set(ActionDelete, true)
	assert.True(t, set.All, "All becomes true once every verb is set")

	set.Set(ActionInsert, false)
	assert.False(t, set.All, "clearing any verb clears All")
	assert.True(t, set.View)
	assert.True(t, set.Update)
	assert.True(t, set.Delete)
}

func TestPermissionMapClone(t *testing.T) {
	m := PermissionMap{PageDashboard: {View: true}}
	c := m.Clone()
	c[PageDashboard] = ActionSet{All: true, View: true, Insert: true, Update: true, Delete: true}
	assert.False(t, m[PageDashboard].All, "clone must not alias the original")
}
