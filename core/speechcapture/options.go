// Package speechcapture defines the contract between the conversation core
// and speech-to-text providers.
package speechcapture

import "github.com/mihovilk/jarvis-core/core/audio"

// Mode tells the caller how the transcript stream will be interpreted. It
// does not change capture mechanics: wake word scanning and utterance
// capture consume the same stream.
type Mode string

const (
	ModeWakeWord  Mode = "wake_word"
	ModeUtterance Mode = "utterance"
)

type CaptureOptions struct {
	PartialTranscriptCallback func(transcript string)
	FinalTranscriptCallback   func(transcript string)

	// UnavailableCallback is invoked at most once per capture session when
	// the source cannot run or terminates on an unrecoverable error. The
	// source never retries on its own; restart policy belongs to the caller.
	UnavailableCallback func(reason string)

	Mode         Mode
	EncodingInfo audio.EncodingInfo
}

type CaptureOption func(*CaptureOptions)

func WithPartialTranscriptCallback(callback func(transcript string)) CaptureOption {
	return func(o *CaptureOptions) {
		o.PartialTranscriptCallback = callback
	}
}

func WithFinalTranscriptCallback(callback func(transcript string)) CaptureOption {
	return func(o *CaptureOptions) {
		o.FinalTranscriptCallback = callback
	}
}

func WithUnavailableCallback(callback func(reason string)) CaptureOption {
	return func(o *CaptureOptions) {
		o.UnavailableCallback = callback
	}
}

func WithMode(mode Mode) CaptureOption {
	return func(o *CaptureOptions) {
		o.Mode = mode
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) CaptureOption {
	return func(o *CaptureOptions) {
		o.EncodingInfo = encodingInfo
	}
}
