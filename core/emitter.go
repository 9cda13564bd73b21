package conversation

import events "github.com/mihovilk/jarvis-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts ListenOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}
		switch typedEvent := event.(type) {
		case events.StateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(parseState(typedEvent.From), parseState(typedEvent.To))
			}
		case events.UserTranscriptPartial:
			if opts.onPartialTranscript != nil {
				opts.onPartialTranscript(typedEvent.Transcript)
			}
		case events.UserTranscriptFinal:
			if opts.onTranscript != nil {
				opts.onTranscript(typedEvent.Transcript)
			}
		case events.WakeWordDetected:
			if opts.onWakeWordDetected != nil {
				opts.onWakeWordDetected(typedEvent.Fragment)
			}
		case events.UtteranceCaptured:
			if opts.onUtteranceCaptured != nil {
				opts.onUtteranceCaptured(typedEvent.Transcript)
			}
		case events.ReplyReceived:
			if opts.onReply != nil {
				opts.onReply(typedEvent)
			}
		case events.PlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(typedEvent.Transcript)
			}
		case events.CaptureUnavailable:
			if opts.onCaptureUnavailable != nil {
				opts.onCaptureUnavailable(typedEvent.Reason)
			}
		}
	}
}
