package events

const (
	// KindTurnStarted identifies dispatch of an utterance to an assistant.
	KindTurnStarted Kind = "turn_state.started"
	// KindTurnCompleted identifies successful completion of a turn.
	KindTurnCompleted Kind = "turn_state.completed"
	// KindTurnFailed identifies a turn that ended with an apology.
	KindTurnFailed Kind = "turn_state.failed"
)

// TurnStarted marks dispatch of an utterance to an assistant.
type TurnStarted struct {
	Base
	ID        string
	Utterance string
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(id, utterance string) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), ID: id, Utterance: utterance}
}

// TurnCompleted marks a turn whose reply finished playing.
type TurnCompleted struct {
	Base
	ID string
}

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted(id string) TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted), ID: id}
}

// TurnFailed marks a turn that ended with a spoken apology.
type TurnFailed struct {
	Base
	ID     string
	Reason string
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(id, reason string) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), ID: id, Reason: reason}
}
