package conversation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mihovilk/jarvis-core/core/assistants"
	"github.com/mihovilk/jarvis-core/core/events"
)

const (
	controllerQueueCapacity = 16

	defaultCaptureRetryDelay = 2 * time.Second

	greetingText = "Yes, sir? I'm listening."
	apologyText  = "I'm sorry, sir, I couldn't reach the assistant. Please try again."
)

// message is a unit of work for the controller's event loop. Every state
// mutation happens by processing one.
type message interface{ isMessage() }

type transcriptMsg struct {
	session    uint64
	transcript string
	final      bool
}

type captureUnavailableMsg struct {
	session uint64
	reason  string
}

type silenceElapsedMsg struct{ generation uint64 }

type replyMsg struct {
	turnID string
	reply  *assistants.Reply
	source events.ReplySource
}

type remoteFailedMsg struct {
	turnID    string
	utterance string
	err       error
}

type playbackDoneMsg struct {
	token uint64
	err   error
}

type resumeMsg struct{}

type retryCaptureMsg struct{}

type textInputMsg struct{ text string }

type connectivityChangedMsg struct{ offline bool }

func (transcriptMsg) isMessage()          {}
func (captureUnavailableMsg) isMessage()  {}
func (silenceElapsedMsg) isMessage()      {}
func (replyMsg) isMessage()               {}
func (remoteFailedMsg) isMessage()        {}
func (playbackDoneMsg) isMessage()        {}
func (resumeMsg) isMessage()              {}
func (retryCaptureMsg) isMessage()        {}
func (textInputMsg) isMessage()           {}
func (connectivityChangedMsg) isMessage() {}

type playbackPurpose int

const (
	purposeGreeting playbackPurpose = iota
	purposeReply
	purposeApology
)

// Controller drives a single voice conversation session: wake word
// scanning, utterance capture with a silence timeout, assistant dispatch,
// and spoken replies. All state lives on one event loop goroutine; the
// boundary clients call back into it through the queue.
type Controller struct {
	capture           CaptureClient
	synthesizer       SynthesizerClient
	remote            RemoteAssistant
	offline           OfflineAssistant
	monitor           ConnectivityMonitor
	settings          SettingsSource
	dispatcher        assistants.ActionDispatcher
	greetingAudio     []byte
	requestContext    assistants.RequestContext
	captureRetryDelay time.Duration

	queue   chan message
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool

	baseContext context.Context
	emit        eventEmitter
	listenOpts  ListenOptions

	stateMirror atomic.Int32

	// Everything below is owned by the event loop goroutine.
	state                 State
	pending               pendingUtterance
	captureSession        uint64
	captureCancel         context.CancelFunc
	silenceGeneration     uint64
	currentSilenceTimeout time.Duration
	turnID                string
	playbackToken         uint64
	playbackPurpose       playbackPurpose
	playbackTranscript    string
	captureRetryUsed      bool

	unsubscribeConnectivity func()
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		settings:          StaticSettings(Settings{WakeWordEnabled: true}),
		captureRetryDelay: defaultCaptureRetryDelay,
		queue:             make(chan message, controllerQueueCapacity),
		closeCh:           make(chan struct{}),
		done:              make(chan struct{}),
		baseContext:       context.Background(),
		emit:              noopEventEmitter,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Listen starts the controller. It returns once the event loop is running;
// callbacks registered through opts are invoked from the loop goroutine.
//
// ctx is the base context for capture, synthesis, and assistant calls.
// Cancelling it closes the controller.
//
// Contract: call Listen at most once per controller instance.
func (c *Controller) Listen(ctx context.Context, opts ...ListenOption) {
	c.startOnce.Do(func() {
		c.baseContext = ctx
		c.listenOpts = ListenOptions{}
		for _, opt := range opts {
			opt(&c.listenOpts)
		}
		c.emit = newCallbackEventEmitter(c.listenOpts)

		if c.monitor != nil {
			c.unsubscribeConnectivity = c.monitor.Subscribe(func(offline bool) {
				c.enqueue(connectivityChangedMsg{offline: offline})
			})
		}

		go func() {
			<-ctx.Done()
			c.Close()
		}()

		c.started.Store(true)
		go c.run()
	})
}

func (c *Controller) run() {
	defer close(c.done)

	if c.isClosed() {
		return
	}

	c.startWakeListening()

	for {
		select {
		case <-c.closeCh:
			return
		case msg := <-c.queue:
			if c.isClosed() {
				return
			}
			c.process(msg)
		}
	}
}

func (c *Controller) process(msg message) {
	switch typedMsg := msg.(type) {
	case transcriptMsg:
		c.handleTranscript(typedMsg)
	case silenceElapsedMsg:
		c.handleSilenceElapsed(typedMsg)
	case replyMsg:
		c.handleReply(typedMsg)
	case remoteFailedMsg:
		c.handleRemoteFailed(typedMsg)
	case playbackDoneMsg:
		c.handlePlaybackDone(typedMsg)
	case captureUnavailableMsg:
		c.handleCaptureUnavailable(typedMsg)
	case retryCaptureMsg:
		c.handleRetryCapture()
	case resumeMsg:
		c.handleResume()
	case textInputMsg:
		c.handleTextInput(typedMsg)
	case connectivityChangedMsg:
		if c.listenOpts.onConnectivityChanged != nil {
			c.listenOpts.onConnectivityChanged(typedMsg.offline)
		}
	}
}

// SendText feeds a typed message through the assistant pipeline, bypassing
// capture. It is dropped while a turn is already in flight.
func (c *Controller) SendText(text string) {
	c.enqueue(textInputMsg{text: text})
}

// Resume restarts listening after the controller went idle, and re-arms the
// capture retry budget.
func (c *Controller) Resume() {
	c.enqueue(resumeMsg{})
}

// State reports the current conversation state. It is safe to call from any
// goroutine.
func (c *Controller) State() State {
	return State(c.stateMirror.Load())
}

func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		if c.unsubscribeConnectivity != nil {
			c.unsubscribeConnectivity()
		}

		close(c.closeCh)

		if c.capture != nil {
			if err := c.capture.Stop(); err != nil {
				logger.Warn("failed to stop speech capture", "error", err)
			}
		}
		if c.synthesizer != nil {
			if err := c.synthesizer.Stop(); err != nil {
				logger.Warn("failed to stop synthesis playback", "error", err)
			}
		}

		if c.started.Load() {
			<-c.done
		}
		c.stateMirror.Store(int32(StateIdle))
	})
}

func (c *Controller) enqueue(msg message) bool {
	if c.isClosed() {
		return false
	}

	select {
	case <-c.closeCh:
		return false
	case c.queue <- msg:
		return true
	}
}

func (c *Controller) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *Controller) setState(to State) {
	if to == c.state {
		return
	}

	from := c.state
	c.state = to
	c.stateMirror.Store(int32(to))
	c.emit(events.NewStateChanged(from.String(), to.String()))
}
