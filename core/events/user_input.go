package events

const (
	// KindUserTranscriptPartial identifies mutable partial transcript updates.
	KindUserTranscriptPartial Kind = "user_input.transcript_partial"
	// KindUserTranscriptFinal identifies stabilized transcript segments.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
	// KindWakeWordDetected identifies wake token matches.
	KindWakeWordDetected Kind = "user_input.wake_detected"
	// KindUtteranceCaptured identifies utterances closed by the silence timeout.
	KindUtteranceCaptured Kind = "user_input.utterance_captured"
)

// UserTranscriptPartial carries a mutable partial transcript update.
type UserTranscriptPartial struct {
	Base
	Transcript string
}

// NewUserTranscriptPartial creates a partial transcript update event.
func NewUserTranscriptPartial(transcript string) UserTranscriptPartial {
	return UserTranscriptPartial{Base: NewBase(KindUserTranscriptPartial), Transcript: transcript}
}

// UserTranscriptFinal carries a stabilized transcript segment.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a stabilized transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}

// WakeWordDetected marks a transcript fragment that contained the wake token.
type WakeWordDetected struct {
	Base
	Fragment string
}

// NewWakeWordDetected creates a wake word detected event.
func NewWakeWordDetected(fragment string) WakeWordDetected {
	return WakeWordDetected{Base: NewBase(KindWakeWordDetected), Fragment: fragment}
}

// UtteranceCaptured carries the utterance text closed by the silence timeout.
type UtteranceCaptured struct {
	Base
	Transcript string
}

// NewUtteranceCaptured creates an utterance captured event.
func NewUtteranceCaptured(transcript string) UtteranceCaptured {
	return UtteranceCaptured{Base: NewBase(KindUtteranceCaptured), Transcript: transcript}
}
