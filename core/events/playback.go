package events

const (
	// KindPlaybackStarted identifies start of response playback.
	KindPlaybackStarted Kind = "assistant_playback.started"
	// KindPlaybackEnded identifies end of response playback.
	KindPlaybackEnded Kind = "assistant_playback.ended"
)

// PlaybackStarted marks the start of response playback.
type PlaybackStarted struct {
	Base
	Transcript string
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(transcript string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), Transcript: transcript}
}

// PlaybackEnded marks the end of response playback.
type PlaybackEnded struct {
	Base
	Transcript string
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(transcript string) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), Transcript: transcript}
}
