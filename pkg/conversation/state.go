// Package conversation coordinates the chat overlay with the dialogue service. Every
// network call is a tea.Cmd whose result comes back as a message carrying the state it
// was issued under; results that no longer match the current state are dropped.
package conversation

import "github.com/jwebster45206/local-legends/pkg/actor"

// State is the chat overlay's mode.
type State int

const (
	StateClosed State = iota
	StateLoading
	StateOpen
	StateSending
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateOpen:
		return "open"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Status pairs the state with the NPC being talked to. The zero value is closed, and
// the only way to get a non-closed Status is with an NPC.
type Status struct {
	state State
	npc   *actor.NPC
}

func closedStatus() Status {
	return Status{}
}

func activeStatus(state State, npc *actor.NPC) Status {
	if npc == nil || state == StateClosed {
		return closedStatus()
	}
	return Status{state: state, npc: npc}
}

func (s Status) State() State {
	return s.state
}

// NPC is the conversation partner, nil when closed.
func (s Status) NPC() *actor.NPC {
	return s.npc
}

func (s Status) Closed() bool {
	return s.state == StateClosed
}
