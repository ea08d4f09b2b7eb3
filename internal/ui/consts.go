package ui

// Action is a user command on the workout screen
type Action int

const (
	ActionTogglePause   Action = iota // Start, pause or resume
	ActionComplete                    // Complete segment (or round)
	ActionSkip                        // Skip segment
	ActionNextMovement                // Next movement within the round
	ActionFinishSection               // End the current formatted section
	ActionReady                       // Confirm ready for the next section
	ActionEnd                         // End the workout early
	ActionQuit                        // End if needed, then close the app
)

// ActionInfo contains display information for an action
type ActionInfo struct {
	Action      Action
	DisplayName string
	KeyLabel    string
	Keys        []rune
}

// AllActions defines every action in the order shown in the key help
var AllActions = []ActionInfo{
	{Action: ActionTogglePause, DisplayName: "Start/Pause", KeyLabel: "Space", Keys: []rune{' '}},
	{Action: ActionComplete, DisplayName: "Done", KeyLabel: "Enter/N", Keys: []rune{'n'}},
	{Action: ActionSkip, DisplayName: "Skip", KeyLabel: "S", Keys: []rune{'s'}},
	{Action: ActionNextMovement, DisplayName: "Next move", KeyLabel: "M", Keys: []rune{'m'}},
	{Action: ActionFinishSection, DisplayName: "Finish section", KeyLabel: "F", Keys: []rune{'f'}},
	{Action: ActionReady, DisplayName: "Ready", KeyLabel: "R", Keys: []rune{'r'}},
	{Action: ActionEnd, DisplayName: "End", KeyLabel: "E/Esc", Keys: []rune{'e'}},
	{Action: ActionQuit, DisplayName: "Quit", KeyLabel: "Q", Keys: []rune{'q'}},
}

// GetActionByKey returns the action bound to a rune key
func GetActionByKey(key rune) (Action, bool) {
	for _, info := range AllActions {
		for _, k := range info.Keys {
			if k == key {
				return info.Action, true
			}
		}
	}
	return 0, false
}

// GetActionInfo returns the info for a given action
func GetActionInfo(action Action) (ActionInfo, bool) {
	for _, info := range AllActions {
		if info.Action == action {
			return info, true
		}
	}
	return ActionInfo{}, false
}
