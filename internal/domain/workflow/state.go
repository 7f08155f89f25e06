package workflow

import "github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"

// State is a task status as seen by the lifecycle
type State string

const (
	StatePending    State = entity.StatusPending
	StateApproved   State = entity.StatusApproved
	StateAssigned   State = entity.StatusAssigned
	StateInProgress State = entity.StatusInProgress
	StateOnHold     State = entity.StatusOnHold
	StateCompleted  State = entity.StatusCompleted
	StateRejected   State = entity.StatusRejected
	StateUnposted   State = entity.StatusUnposted
)

var validStates = map[State]bool{
	StatePending:    true,
	StateApproved:   true,
	StateAssigned:   true,
	StateInProgress: true,
	StateOnHold:     true,
	StateCompleted:  true,
	StateRejected:   true,
	StateUnposted:   true,
}

var terminalStates = map[State]bool{
	StateCompleted: true,
}

// IsTerminal returns true if the work on the task is finished
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known task status
func (s State) IsValid() bool {
	return validStates[s]
}
