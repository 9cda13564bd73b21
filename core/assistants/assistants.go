// Package assistants holds the types shared by the remote and offline reply
// providers and the conversation core that dispatches to them.
package assistants

import "fmt"

// RequestContext carries ambient context sent along with an utterance.
type RequestContext struct {
	Timezone string
	// Location is an optional human-readable location description. Empty
	// means unknown.
	Location string
}

// Reply is a single assistant response. It is consumed once per turn: the
// text (or pre-synthesized audio) goes to the synthesizer, the actions to
// the dispatcher, and nothing is retained afterwards.
type Reply struct {
	Text      string
	ImageURLs []string
	Actions   map[ActionKind]string
	// Audio optionally carries pre-synthesized reply audio. When present it
	// is played instead of synthesizing Text.
	Audio []byte
}

// ActionKind identifies a fire-and-forget device action requested by a reply.
type ActionKind string

const (
	ActionCreateReminder ActionKind = "reminder-create"
	ActionCreateCalendar ActionKind = "calendar-create"
	ActionCreateNote     ActionKind = "note-create"
	ActionMusicControl   ActionKind = "music-control"
	ActionMapsNavigate   ActionKind = "maps-navigate"
)

// ActionDispatcher delivers device actions to external collaborators. Calls
// are fire-and-forget: the conversation core never awaits the outcome.
type ActionDispatcher interface {
	Dispatch(kind ActionKind, payload string)
}

// RemoteErrorKind classifies remote assistant failures.
type RemoteErrorKind string

const (
	RemoteErrorNetwork   RemoteErrorKind = "network"
	RemoteErrorMalformed RemoteErrorKind = "malformed_response"
	RemoteErrorServer    RemoteErrorKind = "server_error"
)

// RemoteError is the error surface of the remote assistant. Callers branch
// on Kind to decide between fallback and apology.
type RemoteError struct {
	Kind    RemoteErrorKind
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote assistant %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("remote assistant %s", e.Kind)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
