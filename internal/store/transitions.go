package store

import "qms/shift-service/internal/models"

const (
	ActionRequeue  = "requeue"
	ActionQualify  = "qualify"
	ActionStart    = "start"
	ActionDistract = "distract"
	ActionTransfer = "transfer"
)

var transitionMap = map[string][]string{
	ActionRequeue:  {models.StateCreated, models.StateDistracted, models.StateTransferred},
	ActionQualify:  {models.StateCreated, models.StatePending},
	ActionStart:    {models.StateQualified},
	ActionDistract: {models.StateQualified, models.StateInProgress},
	ActionTransfer: {models.StateCreated, models.StatePending, models.StateQualified, models.StateInProgress},
}

var actionTarget = map[string]string{
	ActionRequeue:  models.StatePending,
	ActionQualify:  models.StateQualified,
	ActionStart:    models.StateInProgress,
	ActionDistract: models.StateDistracted,
	ActionTransfer: models.StateTransferred,
}

func ValidTransition(action, fromState string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, state := range allowed {
		if state == fromState {
			return true
		}
	}
	return false
}

// TargetState returns the state a shift ends in after action.
func TargetState(action string) (string, bool) {
	state, ok := actionTarget[action]
	return state, ok
}

// ReleasesModule reports whether leaving fromState through action frees the
// attendant that was serving the shift.
func ReleasesModule(action, fromState string) bool {
	if action != ActionDistract && action != ActionTransfer {
		return false
	}
	return HoldsModule(fromState)
}

// HoldsModule reports whether a shift in state keeps its module's
// current attendant busy.
func HoldsModule(state string) bool {
	return state == models.StateQualified || state == models.StateInProgress
}

// RebindsModule reports whether pointing a shift in state at module to
// moves a busy assignment, so from must be released and to occupied.
func RebindsModule(state string, from *string, to string) bool {
	if !HoldsModule(state) {
		return false
	}
	return from == nil || *from != to
}

// BindsModule reports whether action assigns the shift to the caller's module.
func BindsModule(action string) bool {
	return action == ActionQualify || action == ActionStart
}
