package workflow

import (
	"fmt"
	"sort"
)

// TransitionTable maps a status and trigger to the resulting status.
// A built table is read-only and safe for concurrent use.
type TransitionTable struct {
	moves map[State]map[Trigger]State
}

// TableBuilder collects rules before freezing them into a TransitionTable
type TableBuilder struct {
	moves map[State]map[Trigger]State
}

// Rule adds moves for one or more source statuses
type Rule struct {
	b     *TableBuilder
	froms []State
}

// NewTableBuilder returns an empty builder
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{moves: make(map[State]map[Trigger]State)}
}

// From starts a rule for the given statuses. Unknown statuses panic.
func (b *TableBuilder) From(states ...State) *Rule {
	for _, s := range states {
		mustBeValid(s)
		if b.moves[s] == nil {
			b.moves[s] = make(map[Trigger]State)
		}
	}
	return &Rule{b: b, froms: states}
}

// Allow lets trigger move every source status of the rule to target
func (r *Rule) Allow(trigger Trigger, target State) *Rule {
	mustBeValid(target)
	for _, s := range r.froms {
		if prev, ok := r.b.moves[s][trigger]; ok && prev != target {
			panic(fmt.Sprintf("workflow: %s from %s already leads to %s", trigger, s, prev))
		}
		r.b.moves[s][trigger] = target
	}
	return r
}

// Keep accepts triggers that leave the status unchanged
func (r *Rule) Keep(triggers ...Trigger) *Rule {
	for _, s := range r.froms {
		for _, t := range triggers {
			r.b.moves[s][t] = s
		}
	}
	return r
}

// Build copies the collected rules into a table
func (b *TableBuilder) Build() *TransitionTable {
	moves := make(map[State]map[Trigger]State, len(b.moves))
	for from, row := range b.moves {
		copied := make(map[Trigger]State, len(row))
		for t, to := range row {
			copied[t] = to
		}
		moves[from] = copied
	}
	return &TransitionTable{moves: moves}
}

// Next returns the status reached by firing trigger from from
func (t *TransitionTable) Next(from State, trigger Trigger) (State, error) {
	if !from.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, from)
	}
	to, ok := t.moves[from][trigger]
	if !ok {
		return "", &TransitionError{From: from, Trigger: trigger, Allowed: t.Triggers(from)}
	}
	return to, nil
}

// Triggers lists the triggers accepted from a status, sorted
func (t *TransitionTable) Triggers(from State) []Trigger {
	row := t.moves[from]
	triggers := make([]Trigger, 0, len(row))
	for trigger := range row {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

// Reachable lists the distinct statuses one move away from a status, itself excluded
func (t *TransitionTable) Reachable(from State) []State {
	seen := make(map[State]bool)
	var out []State
	for _, to := range t.moves[from] {
		if to == from || seen[to] {
			continue
		}
		seen[to] = true
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func mustBeValid(s State) {
	if !s.IsValid() {
		panic(fmt.Sprintf("workflow: unknown status %q", s))
	}
}
