package realtime

// Action names an operation a member may attempt inside a group.
type Action string

const (
	ActionSendMessage  Action = "send_message"
	ActionEditOwn      Action = "edit_own"
	ActionDeleteAny    Action = "delete_any"
	ActionModerate     Action = "moderate"
	ActionPinPost      Action = "pin_post"
	ActionManageMember Action = "manage_member"
)

var capabilities = map[string]map[Action]bool{
	"member": {
		ActionSendMessage: true,
		ActionEditOwn:     true,
	},
	"moderator": {
		ActionSendMessage: true,
		ActionEditOwn:     true,
		ActionDeleteAny:   true,
		ActionModerate:    true,
		ActionPinPost:     true,
	},
	"instructor": {
		ActionSendMessage:  true,
		ActionEditOwn:      true,
		ActionDeleteAny:    true,
		ActionModerate:     true,
		ActionPinPost:      true,
		ActionManageMember: true,
	},
}

// CanPerform is the capability check for a membership role. Unknown roles
// hold no capabilities.
func CanPerform(role string, action Action) bool {
	return capabilities[role][action]
}
