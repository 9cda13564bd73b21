package conversation

// State is the conversation turn state. Exactly one is active at a time and
// it is owned exclusively by the controller's event loop.
type State int32

const (
	// StateIdle - not listening; entered on teardown, capture
	// unavailability, or when the wake word feature is disabled.
	StateIdle State = iota

	// StateListeningForWakeWord - passively scanning transcripts for the
	// wake token.
	StateListeningForWakeWord

	// StateListeningForUtterance - actively capturing a user utterance,
	// closing it on silence timeout.
	StateListeningForUtterance

	// StateAwaitingReply - the utterance was dispatched to an assistant and
	// the controller is waiting for exactly one reply.
	StateAwaitingReply

	// StateSpeaking - a greeting, reply, or apology is playing.
	StateSpeaking
)

func parseState(name string) State {
	switch name {
	case "ListeningForWakeWord":
		return StateListeningForWakeWord
	case "ListeningForUtterance":
		return StateListeningForUtterance
	case "AwaitingReply":
		return StateAwaitingReply
	case "Speaking":
		return StateSpeaking
	default:
		return StateIdle
	}
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateListeningForWakeWord:
		return "ListeningForWakeWord"
	case StateListeningForUtterance:
		return "ListeningForUtterance"
	case StateAwaitingReply:
		return "AwaitingReply"
	case StateSpeaking:
		return "Speaking"
	default:
		return "Unknown"
	}
}
