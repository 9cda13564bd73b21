package conversation

import (
	"context"
	"time"

	"github.com/mihovilk/jarvis-core/core/assistants"
	"github.com/mihovilk/jarvis-core/core/events"
	"github.com/mihovilk/jarvis-core/core/speechcapture"
	"github.com/mihovilk/jarvis-core/core/synthesis"
)

type ControllerOption func(*Controller)

// CaptureClient is the speech capture boundary. The deepgram capture client
// satisfies it.
type CaptureClient interface {
	Start(ctx context.Context, opts ...speechcapture.CaptureOption) error
	Stop() error
}

func WithCaptureClient(client CaptureClient) ControllerOption {
	return func(c *Controller) { c.capture = client }
}

// SynthesizerClient is the speech synthesis boundary. The deepgram synthesis
// client satisfies it.
type SynthesizerClient interface {
	Speak(ctx context.Context, text string, opts ...synthesis.SpeakOption) error
	PlayAudio(ctx context.Context, audio []byte, opts ...synthesis.SpeakOption) error
	Stop() error
}

func WithSynthesizerClient(client SynthesizerClient) ControllerOption {
	return func(c *Controller) { c.synthesizer = client }
}

// RemoteAssistant is the cloud reply boundary.
type RemoteAssistant interface {
	SendMessage(ctx context.Context, text string, requestContext assistants.RequestContext) (*assistants.Reply, error)
}

func WithRemoteAssistant(client RemoteAssistant) ControllerOption {
	return func(c *Controller) { c.remote = client }
}

// OfflineAssistant is the local reply boundary. It must always resolve.
type OfflineAssistant interface {
	Respond(ctx context.Context, text string) *assistants.Reply
}

func WithOfflineAssistant(client OfflineAssistant) ControllerOption {
	return func(c *Controller) { c.offline = client }
}

// ConnectivityMonitor reports the live offline signal.
type ConnectivityMonitor interface {
	Offline() bool
	Subscribe(callback func(offline bool)) func()
}

func WithConnectivityMonitor(monitor ConnectivityMonitor) ControllerOption {
	return func(c *Controller) { c.monitor = monitor }
}

func WithSettingsSource(source SettingsSource) ControllerOption {
	return func(c *Controller) { c.settings = source }
}

func WithActionDispatcher(dispatcher assistants.ActionDispatcher) ControllerOption {
	return func(c *Controller) { c.dispatcher = dispatcher }
}

// WithGreetingAudio installs pre-synthesized greeting audio played on wake
// instead of synthesizing the greeting text each time.
func WithGreetingAudio(audio []byte) ControllerOption {
	return func(c *Controller) { c.greetingAudio = audio }
}

// WithRequestContext sets the ambient context (timezone, location) sent with
// remote calls.
func WithRequestContext(requestContext assistants.RequestContext) ControllerOption {
	return func(c *Controller) { c.requestContext = requestContext }
}

// WithCaptureRetryDelay overrides the fixed delay before the single capture
// restart attempted after an unavailability report.
func WithCaptureRetryDelay(delay time.Duration) ControllerOption {
	return func(c *Controller) { c.captureRetryDelay = delay }
}

type ListenOptions struct {
	onEvent               func(events.Event)
	onStateChanged        func(from, to State)
	onPartialTranscript   func(transcript string)
	onTranscript          func(transcript string)
	onWakeWordDetected    func(fragment string)
	onUtteranceCaptured   func(transcript string)
	onReply               func(reply events.ReplyReceived)
	onPlaybackEnded       func(transcript string)
	onCaptureUnavailable  func(reason string)
	onConnectivityChanged func(offline bool)
}

type ListenOption func(*ListenOptions)

// WithEventCallback registers a callback receiving every event the
// controller emits, in emission order.
func WithEventCallback(callback func(events.Event)) ListenOption {
	return func(o *ListenOptions) { o.onEvent = callback }
}

func WithStateChangedCallback(callback func(from, to State)) ListenOption {
	return func(o *ListenOptions) { o.onStateChanged = callback }
}

func WithPartialTranscriptCallback(callback func(transcript string)) ListenOption {
	return func(o *ListenOptions) { o.onPartialTranscript = callback }
}

func WithTranscriptCallback(callback func(transcript string)) ListenOption {
	return func(o *ListenOptions) { o.onTranscript = callback }
}

func WithWakeWordDetectedCallback(callback func(fragment string)) ListenOption {
	return func(o *ListenOptions) { o.onWakeWordDetected = callback }
}

func WithUtteranceCapturedCallback(callback func(transcript string)) ListenOption {
	return func(o *ListenOptions) { o.onUtteranceCaptured = callback }
}

func WithReplyCallback(callback func(reply events.ReplyReceived)) ListenOption {
	return func(o *ListenOptions) { o.onReply = callback }
}

func WithPlaybackEndedCallback(callback func(transcript string)) ListenOption {
	return func(o *ListenOptions) { o.onPlaybackEnded = callback }
}

// WithCaptureUnavailableCallback registers a callback for capture
// unavailability, suitable for a persistent status indicator.
func WithCaptureUnavailableCallback(callback func(reason string)) ListenOption {
	return func(o *ListenOptions) { o.onCaptureUnavailable = callback }
}

func WithConnectivityChangedCallback(callback func(offline bool)) ListenOption {
	return func(o *ListenOptions) { o.onConnectivityChanged = callback }
}
