package events

import "testing"

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "state changed", event: NewStateChanged("Idle", "ListeningForWakeWord"), expected: KindStateChanged},
		{name: "user transcript partial", event: NewUserTranscriptPartial("hel"), expected: KindUserTranscriptPartial},
		{name: "user transcript final", event: NewUserTranscriptFinal("hello"), expected: KindUserTranscriptFinal},
		{name: "wake word detected", event: NewWakeWordDetected("hey jarvis"), expected: KindWakeWordDetected},
		{name: "utterance captured", event: NewUtteranceCaptured("what time is it"), expected: KindUtteranceCaptured},
		{name: "turn started", event: NewTurnStarted("id", "utterance"), expected: KindTurnStarted},
		{name: "turn completed", event: NewTurnCompleted("id"), expected: KindTurnCompleted},
		{name: "turn failed", event: NewTurnFailed("id", "remote call failed"), expected: KindTurnFailed},
		{name: "reply received", event: NewReplyReceived("id", "text", nil, ReplySourceRemote), expected: KindReplyReceived},
		{name: "playback started", event: NewPlaybackStarted("text"), expected: KindPlaybackStarted},
		{name: "playback ended", event: NewPlaybackEnded("text"), expected: KindPlaybackEnded},
		{name: "capture unavailable", event: NewCaptureUnavailable("permission denied"), expected: KindCaptureUnavailable},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestAllKindsAreDistinct(t *testing.T) {
	kinds := []Kind{
		KindStateChanged,
		KindUserTranscriptPartial,
		KindUserTranscriptFinal,
		KindWakeWordDetected,
		KindUtteranceCaptured,
		KindTurnStarted,
		KindTurnCompleted,
		KindTurnFailed,
		KindReplyReceived,
		KindPlaybackStarted,
		KindPlaybackEnded,
		KindCaptureUnavailable,
	}

	seen := map[Kind]bool{}
	for _, kind := range kinds {
		if seen[kind] {
			t.Fatalf("kind %q declared more than once", kind)
		}
		seen[kind] = true
	}
}
