// Package synthesis defines the contract between the conversation core and
// speech synthesis providers.
package synthesis

import "github.com/mihovilk/jarvis-core/core/audio"

type SpeakOptions struct {
	// Voice selects the synthesis voice/model. Empty means provider default.
	Voice string

	// CompletionCallback is invoked exactly once when playback ends or the
	// synthesis fails. Cancellation through Stop does not invoke it.
	CompletionCallback func(err error)

	EncodingInfo audio.EncodingInfo
}

type SpeakOption func(*SpeakOptions)

func WithVoice(voice string) SpeakOption {
	return func(o *SpeakOptions) {
		o.Voice = voice
	}
}

func WithCompletionCallback(callback func(err error)) SpeakOption {
	return func(o *SpeakOptions) {
		o.CompletionCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeakOption {
	return func(o *SpeakOptions) {
		o.EncodingInfo = encodingInfo
	}
}
