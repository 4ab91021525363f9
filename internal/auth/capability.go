package auth

import "github.com/sakif/robosaga/internal/model"

// Action is something only some roles may do. Team-level privileges
// (leader-only operations) are checked by the services, not here.
type Action string

const (
	ActionViewAdmin     Action = "view_admin"
	ActionRecordResults Action = "record_results"
	ActionClearResults  Action = "clear_results"
	ActionAdjustScores  Action = "adjust_scores"
	ActionManageRoles   Action = "manage_roles"
	ActionManageEvents  Action = "manage_events"
)

// capabilities lists the roles allowed each action. A signed-in caller whose
// role is missing here gets 403 from RequireCapability, admin routes
// included; 401 is only for a missing or invalid session.
var capabilities = map[Action][]model.Role{
	ActionViewAdmin:     {model.RoleAdmin, model.RoleModerator},
	ActionRecordResults: {model.RoleAdmin, model.RoleModerator},
	ActionClearResults:  {model.RoleAdmin},
	ActionAdjustScores:  {model.RoleAdmin, model.RoleModerator},
	ActionManageRoles:   {model.RoleAdmin},
	ActionManageEvents:  {model.RoleAdmin},
}

// HasCapability reports whether role may perform action. Unknown roles and
// unknown actions are always denied.
func HasCapability(role model.Role, action Action) bool {
	for _, r := range capabilities[action] {
		if r == role {
			return true
		}
	}
	return false
}
