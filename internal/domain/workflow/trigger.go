package workflow

// Trigger is the action requested on a task
type Trigger string

const (
	TriggerApprove  Trigger = "APPROVE"
	TriggerAssign   Trigger = "ASSIGN"
	TriggerComplete Trigger = "COMPLETE"
	TriggerReject   Trigger = "REJECT"
	TriggerHold     Trigger = "HOLD"
	TriggerStartFix Trigger = "START_FIX"
	TriggerReopen   Trigger = "REOPEN"
	TriggerUnpost   Trigger = "UNPOST"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// TriggerFor returns the trigger that moves a task into the target status
func TriggerFor(target State) (Trigger, bool) {
	switch target {
	case StateApproved:
		return TriggerApprove, true
	case StateAssigned:
		return TriggerAssign, true
	case StateCompleted:
		return TriggerComplete, true
	case StateRejected:
		return TriggerReject, true
	case StateOnHold:
		return TriggerHold, true
	case StateInProgress:
		return TriggerStartFix, true
	case StatePending:
		return TriggerReopen, true
	}
	return "", false
}
