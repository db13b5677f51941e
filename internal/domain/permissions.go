package domain

// Page identifies one console screen. The set is closed: permissions for
// anything outside it are dropped at the database boundary.
type Page string

const (
	PageDashboard          Page = "Dashboard"
	PageProjectForm        Page = "Project Form"
	PageProjectDescription Page = "Project Description"
	PageChatDual           Page = "ChatDual"
	PageFeedback           Page = "Feedback"
	PageCreateMails        Page = "Create Mails"
	PageChooseRoles        Page = "Choose Roles"
	PageOverview           Page = "Overview"
	PageProfileSetting     Page = "profile Setting"
	PageAPIManagement      Page = "API Management"
)

// Pages lists every console page in display order.
var Pages = []Page{
	PageDashboard,
	PageProjectForm,
	PageProjectDescription,
	PageChatDual,
	PageFeedback,
	PageCreateMails,
	PageChooseRoles,
	PageOverview,
	PageProfileSetting,
	PageAPIManagement,
}

// Action is one of the fixed authorization verbs.
type Action string

const (
	ActionAll    Action = "All"
	ActionView   Action = "View"
	ActionInsert Action = "Insert"
	ActionUpdate Action = "Update"
	ActionDelete Action = "Delete"
)

// Actions lists the fixed verb vocabulary in grid order.
var Actions = []Action{ActionAll, ActionView, ActionInsert, ActionUpdate, ActionDelete}

// ActionSet is the per-page authorization record. Invariant: All is true
// exactly when every other flag is true; Set maintains it on every mutation.
type ActionSet struct {
	All    bool `json:"All"`
	View   bool `json:"View"`
	Insert bool `json:"Insert"`
	Update bool `json:"Update"`
	Delete bool `json:"Delete"`
}

// Get reports whether the action is authorized. All short-circuits every
// verb; unknown action names resolve to false.
func (a ActionSet) Get(action Action) bool {
	if a.All {
		return true
	}
	switch action {
	case ActionView:
		return a.View
	case ActionInsert:
		return a.Insert
	case ActionUpdate:
		return a.Update
	case ActionDelete:
		return a.Delete
	}
	return false
}

// Set toggles one action. Setting All mirrors to every verb; setting any
// individual verb re-derives All as the conjunction of the other four.
func (a *ActionSet) Set(action Action, on bool) {
	switch action {
	case ActionAll:
		a.All, a.View, a.Insert, a.Update, a.Delete = on, on, on, on, on
		return
	case ActionView:
		a.View = on
	case ActionInsert:
		a.Insert = on
	case ActionUpdate:
		a.Update = on
	case ActionDelete:
		a.Delete = on
	default:
		return
	}
	a.All = a.View && a.Insert && a.Update && a.Delete
}

// PermissionMap is the page-to-actions authorization table carried by a
// signed-in identity.
type PermissionMap map[Page]ActionSet

// Clone returns a shallow copy safe to hand to a permission editor.
func (m PermissionMap) Clone() PermissionMap {
	out := make(PermissionMap, len(m))
	for page, set := range m {
		out[page] = set
	}
	return out
}
