package workflow

import "fmt"

// Transition is an accepted status move. Trigger is empty for no-op moves.
type Transition struct {
	From    State
	To      State
	Trigger Trigger
}

// Changed reports whether the status differs after the move
func (t Transition) Changed() bool {
	return t.From != t.To
}

// TaskLifecycle holds the legal status transitions of a task. Every update
// path validates against it before writing.
type TaskLifecycle struct {
	table *TransitionTable
}

// NewTaskLifecycle builds the transition table
func NewTaskLifecycle() *TaskLifecycle {
	b := NewTableBuilder()

	b.From(StatePending).
		Allow(TriggerApprove, StateApproved).
		Keep(TriggerReopen)

	b.From(StateApproved).
		Allow(TriggerReopen, StatePending).
		Keep(TriggerApprove)

	// Anything not yet finished can be handed to a developer or parked
	b.From(StatePending, StateApproved, StateAssigned, StateInProgress, StateOnHold, StateRejected).
		Allow(TriggerAssign, StateAssigned).
		Allow(TriggerHold, StateOnHold)

	b.From(StateAssigned, StateInProgress, StateOnHold).
		Allow(TriggerComplete, StateCompleted).
		Allow(TriggerReject, StateRejected).
		Allow(TriggerStartFix, StateInProgress)

	b.From(StateAssigned, StateOnHold).
		Allow(TriggerReopen, StatePending)

	// A rejected task must go through the fix cycle before it can complete
	b.From(StateRejected).
		Allow(TriggerStartFix, StateInProgress).
		Keep(TriggerReject)

	b.From(StateCompleted).
		Allow(TriggerReject, StateRejected).
		Keep(TriggerComplete)

	// Unposting edits attachments of reviewed work only
	b.From(StateOnHold, StateRejected, StateCompleted).
		Keep(TriggerUnpost)

	// Legacy unposted records can be picked up again by any review step
	b.From(StateUnposted).
		Allow(TriggerAssign, StateAssigned).
		Allow(TriggerHold, StateOnHold).
		Allow(TriggerComplete, StateCompleted).
		Allow(TriggerReject, StateRejected).
		Allow(TriggerStartFix, StateInProgress).
		Keep(TriggerUnpost)

	return &TaskLifecycle{table: b.Build()}
}

// Fire applies trigger to a task currently in status from.
// An empty status is read as pending for records created before statuses were tracked.
func (l *TaskLifecycle) Fire(from State, trigger Trigger) (Transition, error) {
	if from == "" {
		from = StatePending
	}
	to, err := l.table.Next(from, trigger)
	if err != nil {
		return Transition{}, err
	}
	return Transition{From: from, To: to, Trigger: trigger}, nil
}

// MoveTo validates an explicit status change. Staying in the same status is always allowed.
func (l *TaskLifecycle) MoveTo(from, to State) (Transition, error) {
	if from == "" {
		from = StatePending
	}
	if from == to {
		return Transition{From: from, To: to}, nil
	}

	trigger, ok := TriggerFor(to)
	if !ok && to.IsValid() {
		return Transition{}, fmt.Errorf("%w: %q cannot be set directly", ErrInvalidTransition, to)
	}
	if !ok {
		return Transition{}, fmt.Errorf("%w: %q", ErrInvalidState, to)
	}
	return l.Fire(from, trigger)
}

// Permitted returns the triggers accepted from a status
func (l *TaskLifecycle) Permitted(from State) []Trigger {
	return l.table.Triggers(from)
}

// Reachable returns the statuses a task can move to from a status
func (l *TaskLifecycle) Reachable(from State) []State {
	return l.table.Reachable(from)
}
