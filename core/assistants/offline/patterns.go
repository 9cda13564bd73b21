package offline

import (
	"fmt"
	"strings"

	"github.com/mihovilk/jarvis-core/core/assistants"
)

type patternHandler func(r *Responder, text string) (*assistants.Reply, bool)

// movieTerms would otherwise false-positive the time pattern on duration
// phrases like "movie runtime".
var movieTerms = []string{"movie", "film", "runtime", "showtime"}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func (r *Responder) handleTimeQuery(text string) (*assistants.Reply, bool) {
	lowered := strings.ToLower(text)
	if containsAny(lowered, movieTerms) {
		return nil, false
	}
	if !strings.Contains(lowered, "time") {
		return nil, false
	}

	now := r.clock()
	return &assistants.Reply{
		Text: fmt.Sprintf("It is %s, sir.", now.Format("3:04 PM")),
	}, true
}

var placePrefixes = []string{"nearest", "closest", "where is", "directions to", "navigate to", "take me to"}

func (r *Responder) handlePlaceQuery(text string) (*assistants.Reply, bool) {
	lowered := strings.ToLower(text)

	for _, prefix := range placePrefixes {
		index := strings.Index(lowered, prefix)
		if index < 0 {
			continue
		}

		destination := strings.Trim(lowered[index+len(prefix):], " ?.!")
		if destination == "" {
			destination = strings.Trim(lowered, " ?.!")
		}

		r.dispatch(assistants.ActionMapsNavigate, destination)
		return &assistants.Reply{
			Text:    fmt.Sprintf("Pulling up %s on the map for you, sir.", destination),
			Actions: map[assistants.ActionKind]string{assistants.ActionMapsNavigate: destination},
		}, true
	}

	return nil, false
}

var musicCommands = []struct {
	phrase  string
	command string
	reply   string
}{
	{phrase: "pause", command: "pause", reply: "Pausing the music, sir."},
	{phrase: "resume", command: "play", reply: "Resuming playback, sir."},
	{phrase: "next song", command: "skip", reply: "Skipping ahead, sir."},
	{phrase: "skip", command: "skip", reply: "Skipping ahead, sir."},
	{phrase: "stop the music", command: "stop", reply: "Stopping the music, sir."},
	{phrase: "play", command: "play", reply: "Playing that for you now, sir."},
}

func (r *Responder) handleMusicQuery(text string) (*assistants.Reply, bool) {
	lowered := strings.ToLower(text)

	for _, candidate := range musicCommands {
		index := strings.Index(lowered, candidate.phrase)
		if index < 0 {
			continue
		}

		command := candidate.command
		if candidate.command == "play" {
			if request := strings.Trim(lowered[index+len(candidate.phrase):], " ?.!"); request != "" {
				command = "play " + request
			}
		}

		r.dispatch(assistants.ActionMusicControl, command)
		return &assistants.Reply{
			Text:    candidate.reply,
			Actions: map[assistants.ActionKind]string{assistants.ActionMusicControl: command},
		}, true
	}

	return nil, false
}
