package remote

import (
	"github.com/invopop/jsonschema"
	"github.com/mihovilk/jarvis-core/core/assistants"
)

// actionDefinition tells the backend which device actions the client can
// perform and what payload each expects.
type actionDefinition struct {
	Kind        string             `json:"kind"`
	Description string             `json:"description"`
	Payload     *jsonschema.Schema `json:"payload"`
}

type reminderPayload struct {
	Text string `json:"text" jsonschema:"title=Text,description=Reminder text to create"`
}

type calendarPayload struct {
	Text string `json:"text" jsonschema:"title=Text,description=Calendar entry description"`
}

type notePayload struct {
	Text string `json:"text" jsonschema:"title=Text,description=Note body to save"`
}

type musicControlPayload struct {
	Command string `json:"command" jsonschema:"title=Command,description=Playback command such as play pause or skip,enum=play,enum=pause,enum=resume,enum=skip,enum=stop"`
}

type mapsNavigatePayload struct {
	Destination string `json:"destination" jsonschema:"title=Destination,description=Destination to navigate to"`
}

func buildActionCatalog() []actionDefinition {
	reflector := jsonschema.Reflector{DoNotReference: true}

	return []actionDefinition{
		{
			Kind:        string(assistants.ActionCreateReminder),
			Description: "Create a reminder on the user's device",
			Payload:     reflector.Reflect(&reminderPayload{}),
		},
		{
			Kind:        string(assistants.ActionCreateCalendar),
			Description: "Create a calendar entry on the user's device",
			Payload:     reflector.Reflect(&calendarPayload{}),
		},
		{
			Kind:        string(assistants.ActionCreateNote),
			Description: "Save a note on the user's device",
			Payload:     reflector.Reflect(&notePayload{}),
		},
		{
			Kind:        string(assistants.ActionMusicControl),
			Description: "Control music playback on the user's device",
			Payload:     reflector.Reflect(&musicControlPayload{}),
		},
		{
			Kind:        string(assistants.ActionMapsNavigate),
			Description: "Start navigation to a destination",
			Payload:     reflector.Reflect(&mapsNavigatePayload{}),
		},
	}
}
