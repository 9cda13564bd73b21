package events

// KindStateChanged identifies controller state transitions.
const KindStateChanged Kind = "conversation_state.changed"

// StateChanged marks a transition between two conversation states.
//
// State names are carried as strings so observers outside the core package
// can consume them without importing controller types.
type StateChanged struct {
	Base
	From string
	To   string
}

// NewStateChanged creates a state changed event.
func NewStateChanged(from, to string) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), From: from, To: to}
}
