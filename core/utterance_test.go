package conversation

import "testing"

func TestPendingUtteranceJoinsTrimmedSegments(t *testing.T) {
	pending := pendingUtterance{}

	if !pending.empty() {
		t.Fatalf("fresh utterance should be empty")
	}

	pending.append("  what is ")
	pending.append("")
	pending.append("   ")
	pending.append("the weather")

	if pending.empty() {
		t.Fatalf("utterance with segments reported empty")
	}
	if got := pending.text(); got != "what is the weather" {
		t.Fatalf("unexpected utterance text %q", got)
	}

	pending.reset()
	if !pending.empty() {
		t.Fatalf("reset utterance should be empty")
	}
}

func TestSettingsDefaults(t *testing.T) {
	settings := Settings{}.withDefaults()

	if settings.WakeWord != DefaultWakeWord {
		t.Fatalf("expected default wake word %q, got %q", DefaultWakeWord, settings.WakeWord)
	}
	if settings.SilenceTimeout != DefaultSilenceTimeout {
		t.Fatalf("expected default silence timeout %v, got %v", DefaultSilenceTimeout, settings.SilenceTimeout)
	}
}

func TestStateStringRoundTrip(t *testing.T) {
	states := []State{
		StateIdle,
		StateListeningForWakeWord,
		StateListeningForUtterance,
		StateAwaitingReply,
		StateSpeaking,
	}

	for _, state := range states {
		if got := parseState(state.String()); got != state {
			t.Fatalf("state %v round-tripped to %v", state, got)
		}
	}
}

func TestContainsWakeWordIsCaseInsensitive(t *testing.T) {
	cases := []struct {
		transcript string
		want       bool
	}{
		{"hey jarvis", true},
		{"JARVIS, are you there?", true},
		{"jar of honey", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := containsWakeWord(tc.transcript, "jarvis"); got != tc.want {
			t.Fatalf("containsWakeWord(%q) = %v, want %v", tc.transcript, got, tc.want)
		}
	}
}
